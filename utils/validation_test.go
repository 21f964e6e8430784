package utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindErrorsFieldMessages(t *testing.T) {
	type form struct {
		Username string `validate:"required,min=3"`
		Email    string `validate:"omitempty,email"`
	}

	v := validator.New()
	err := v.Struct(form{Username: "", Email: "not-an-email"})
	require.Error(t, err)

	errs := BindErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "username", errs[0].Field)
	assert.Equal(t, "username is required", errs[0].Message)
	assert.Equal(t, "email", errs[1].Field)
	assert.Equal(t, "email must be a valid email address", errs[1].Message)
}

func TestBindErrorsMinMax(t *testing.T) {
	type form struct {
		Text string `validate:"min=2,max=4"`
	}

	v := validator.New()
	errs := BindErrors(v.Struct(form{Text: "a"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "text must be at least 2 characters", errs[0].Message)

	errs = BindErrors(v.Struct(form{Text: "abcde"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "text must be at most 4 characters", errs[0].Message)
}

func TestBindErrorsNonValidatorError(t *testing.T) {
	errs := BindErrors(errors.New("unexpected EOF"))
	require.Len(t, errs, 1)
	assert.Equal(t, "body", errs[0].Field)
	assert.Equal(t, "request body is invalid", errs[0].Message)
}
