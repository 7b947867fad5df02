package services

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  string
	}{
		{"P@ssw0rd1", ""},
		{"Str0ng#Enough", ""},
		{"P@s0rd", "at least 8"},
		{"p@ssw0rd1", "uppercase"},
		{"P@SSW0RD1", "lowercase"},
		{"P@ssword!", "digit"},
		{"Passw0rd1", "special"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := validatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, validatePhone(""))
	assert.NoError(t, validatePhone("+14155552671"))
	assert.NoError(t, validatePhone("+447400123456"))
	assert.Error(t, validatePhone("12"))
	assert.Error(t, validatePhone("not a phone"))
}

func TestRegisterRequest_Normalize(t *testing.T) {
	r := RegisterRequest{
		FirstName:   "  Ann ",
		LastName:    " Lee",
		Email:       " Ann@Example.COM ",
		PhoneNumber: "(415) 555-2671",
	}
	r.normalize()

	assert.Equal(t, "Ann", r.FirstName)
	assert.Equal(t, "Lee", r.LastName)
	assert.Equal(t, "ann@example.com", r.Email)
	assert.Equal(t, "+14155552671", r.PhoneNumber)
}

func TestRegisterRequest_ValidateAggregatesFields(t *testing.T) {
	err := RegisterRequest{Email: "bad", PhoneNumber: "123", Password: "weak"}.Validate()
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	for _, field := range []string{"firstName", "lastName", "email", "phoneNumber", "password"} {
		assert.Contains(t, verrs, field)
	}

	se := validationError(err)
	assert.Equal(t, KindInvalidArgument, se.Kind)
	assert.Len(t, se.Fields, 5)
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "a@b.io", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "a@b.io"}.Validate())
	assert.Error(t, LoginRequest{Email: "nope", Password: "x"}.Validate())
}
