package services

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	// numbers without a country code are read as US numbers
	defaultPhoneRegion = "US"
)

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// normalize trims names, lower-cases the email and formats the phone as
// E.164 when it parses.
func (r *RegisterRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = normalizeEmail(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if r.PhoneNumber == "" {
		return
	}
	if num, err := phonenumbers.Parse(r.PhoneNumber, defaultPhoneRegion); err == nil && phonenumbers.IsValidNumber(num) {
		r.PhoneNumber = phonenumbers.Format(num, phonenumbers.E164)
	}
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 256), is.Email),
		validation.Field(&r.PhoneNumber, validation.By(validatePhone)),
		validation.Field(&r.Password, validation.Required, validation.By(validatePassword)),
	)
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePhone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

func validatePassword(value interface{}) error {
	s, _ := value.(string)

	if len(s) < minPasswordLength {
		return errors.New("must be at least 8 characters long")
	}
	if len(s) > maxPasswordLength {
		return errors.New("must be at most 128 characters long")
	}

	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case !upper:
		return errors.New("must contain an uppercase letter")
	case !lower:
		return errors.New("must contain a lowercase letter")
	case !digit:
		return errors.New("must contain a digit")
	case !special:
		return errors.New("must contain a special character")
	}
	return nil
}

// validationError converts ozzo errors into an InvalidArgument service error.
func validationError(err error) *Error {
	fields := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, fe := range verrs {
			if fe != nil {
				fields[field] = fe.Error()
			}
		}
	} else {
		fields["request"] = err.Error()
	}
	return invalidArgument("validation failed", fields)
}
