package proto

import (
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FileName is the registered path of auth.proto.
const FileName = "shortlink/auth/v1/auth.proto"

// File_auth_proto describes auth.proto. It is registered in
// protoregistry.GlobalFiles so that server reflection and dynamic clients can
// resolve the service.
var File_auth_proto protoreflect.FileDescriptor

func ptr[T any](v T) *T { return &v }

func stringField(name string, num int32) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     ptr(name),
		JsonName: ptr(jsonName(name)),
		Number:   ptr(num),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
	}
}

func repeatedStringField(name string, num int32) *descriptorpb.FieldDescriptorProto {
	f := stringField(name, num)
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func int64Field(name string, num int32) *descriptorpb.FieldDescriptorProto {
	f := stringField(name, num)
	f.Type = descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum()
	return f
}

// jsonName converts snake_case to lowerCamelCase.
func jsonName(s string) string {
	out := make([]byte, 0, len(s))
	upper := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
			upper = true
		case upper && 'a' <= c && c <= 'z':
			out = append(out, c-'a'+'A')
			upper = false
		default:
			out = append(out, c)
			upper = false
		}
	}
	return string(out)
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: ptr(name), Field: fields}
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       ptr(name),
		InputType:  ptr(".shortlink.auth.v1." + in),
		OutputType: ptr(".shortlink.auth.v1." + out),
	}
}

func authFileProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    ptr(FileName),
		Package: ptr("shortlink.auth.v1"),
		Syntax:  ptr("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: ptr("github.com/dmitrijs2005/shortlink-auth/internal/proto"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("RegisterRequest",
				stringField("first_name", 1),
				stringField("last_name", 2),
				stringField("email", 3),
				stringField("phone_number", 4),
				stringField("password", 5),
			),
			message("LoginRequest",
				stringField("email", 1),
				stringField("password", 2),
			),
			message("RefreshTokenRequest", stringField("refresh_token", 1)),
			message("RevokeTokenRequest", stringField("refresh_token", 1)),
			message("RevokeTokenResponse"),
			message("ValidateTokenRequest", stringField("access_token", 1)),
			message("ValidateTokenResponse",
				stringField("user_id", 1),
				stringField("email", 2),
				repeatedStringField("roles", 3),
				int64Field("expires_at", 4),
			),
			message("AuthResponse",
				stringField("access_token", 1),
				stringField("refresh_token", 2),
				stringField("user_id", 3),
				stringField("email", 4),
				stringField("first_name", 5),
				stringField("last_name", 6),
				repeatedStringField("roles", 7),
				int64Field("expires_in", 8),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: ptr("AuthService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Register", "RegisterRequest", "AuthResponse"),
				method("Login", "LoginRequest", "AuthResponse"),
				method("RefreshToken", "RefreshTokenRequest", "AuthResponse"),
				method("RevokeToken", "RevokeTokenRequest", "RevokeTokenResponse"),
				method("ValidateToken", "ValidateTokenRequest", "ValidateTokenResponse"),
			},
		}},
	}
}

func init() {
	fd, err := protodesc.NewFile(authFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic("proto: build " + FileName + ": " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("proto: register " + FileName + ": " + err.Error())
	}
	File_auth_proto = fd
}
