package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every message of auth.proto. Field numbers
// follow auth.proto; zero values are omitted as in proto3.
type wireMessage interface {
	appendWire(b []byte) []byte
	consumeField(num protowire.Number, typ protowire.Type, b []byte) int
	reset()
}

// unmarshalWire decodes b into m. Unknown fields are skipped.
func unmarshalWire(b []byte, m wireMessage) error {
	m.reset()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n = m.consumeField(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendStrings(b []byte, num protowire.Number, vs []string) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func consumeString(num protowire.Number, typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return protowire.ConsumeFieldValue(num, typ, b)
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeStrings(num protowire.Number, typ protowire.Type, b []byte, dst *[]string) int {
	if typ != protowire.BytesType {
		return protowire.ConsumeFieldValue(num, typ, b)
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = append(*dst, v)
	}
	return n
}

func consumeInt64(num protowire.Number, typ protowire.Type, b []byte, dst *int64) int {
	if typ != protowire.VarintType {
		return protowire.ConsumeFieldValue(num, typ, b)
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = int64(v)
	}
	return n
}

func (m *RegisterRequest) reset() { *m = RegisterRequest{} }

func (m *RegisterRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.FirstName)
	b = appendString(b, 2, m.LastName)
	b = appendString(b, 3, m.Email)
	b = appendString(b, 4, m.PhoneNumber)
	return appendString(b, 5, m.Password)
}

func (m *RegisterRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(num, typ, b, &m.FirstName)
	case 2:
		return consumeString(num, typ, b, &m.LastName)
	case 3:
		return consumeString(num, typ, b, &m.Email)
	case 4:
		return consumeString(num, typ, b, &m.PhoneNumber)
	case 5:
		return consumeString(num, typ, b, &m.Password)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *LoginRequest) reset() { *m = LoginRequest{} }

func (m *LoginRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Password)
}

func (m *LoginRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(num, typ, b, &m.Email)
	case 2:
		return consumeString(num, typ, b, &m.Password)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *RefreshTokenRequest) reset() { *m = RefreshTokenRequest{} }

func (m *RefreshTokenRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.RefreshToken)
}

func (m *RefreshTokenRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	if num == 1 {
		return consumeString(num, typ, b, &m.RefreshToken)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *RevokeTokenRequest) reset() { *m = RevokeTokenRequest{} }

func (m *RevokeTokenRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.RefreshToken)
}

func (m *RevokeTokenRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	if num == 1 {
		return consumeString(num, typ, b, &m.RefreshToken)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *RevokeTokenResponse) reset() {}

func (m *RevokeTokenResponse) appendWire(b []byte) []byte { return b }

func (m *RevokeTokenResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *ValidateTokenRequest) reset() { *m = ValidateTokenRequest{} }

func (m *ValidateTokenRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.AccessToken)
}

func (m *ValidateTokenRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	if num == 1 {
		return consumeString(num, typ, b, &m.AccessToken)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *ValidateTokenResponse) reset() { *m = ValidateTokenResponse{} }

func (m *ValidateTokenResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	b = appendString(b, 2, m.Email)
	b = appendStrings(b, 3, m.Roles)
	return appendInt64(b, 4, m.ExpiresAt)
}

func (m *ValidateTokenResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(num, typ, b, &m.UserID)
	case 2:
		return consumeString(num, typ, b, &m.Email)
	case 3:
		return consumeStrings(num, typ, b, &m.Roles)
	case 4:
		return consumeInt64(num, typ, b, &m.ExpiresAt)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}

func (m *AuthResponse) reset() { *m = AuthResponse{} }

func (m *AuthResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.AccessToken)
	b = appendString(b, 2, m.RefreshToken)
	b = appendString(b, 3, m.UserID)
	b = appendString(b, 4, m.Email)
	b = appendString(b, 5, m.FirstName)
	b = appendString(b, 6, m.LastName)
	b = appendStrings(b, 7, m.Roles)
	return appendInt64(b, 8, m.ExpiresIn)
}

func (m *AuthResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) int {
	switch num {
	case 1:
		return consumeString(num, typ, b, &m.AccessToken)
	case 2:
		return consumeString(num, typ, b, &m.RefreshToken)
	case 3:
		return consumeString(num, typ, b, &m.UserID)
	case 4:
		return consumeString(num, typ, b, &m.Email)
	case 5:
		return consumeString(num, typ, b, &m.FirstName)
	case 6:
		return consumeString(num, typ, b, &m.LastName)
	case 7:
		return consumeStrings(num, typ, b, &m.Roles)
	case 8:
		return consumeInt64(num, typ, b, &m.ExpiresIn)
	}
	return protowire.ConsumeFieldValue(num, typ, b)
}
