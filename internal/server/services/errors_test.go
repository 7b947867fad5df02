package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "internal error", internal(errors.New("secret detail")).Error())
	assert.Equal(t, "validation failed (email: must be a valid email address; password: cannot be blank)",
		invalidArgument("validation failed", map[string]string{
			"password": "cannot be blank",
			"email":    "must be a valid email address",
		}).Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnauthenticated, KindOf(fmt.Errorf("wrapped: %w", unauthenticated("x", nil))))
	assert.Equal(t, KindAlreadyExists, KindOf(alreadyExists("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("foreign")))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("root")
	assert.ErrorIs(t, failedPrecondition("x", cause), cause)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "invalid_argument", KindInvalidArgument.String())
	assert.Equal(t, "failed_precondition", KindFailedPrecondition.String())
	assert.Equal(t, "internal", Kind(99).String())
}
