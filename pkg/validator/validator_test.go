package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,role"`
	Name     string `json:"name" validate:"max=5"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	err := v.Struct(signup{Username: "ada_l", Email: "ada@example.com", Role: "staff", Name: "Ada"})
	assert.NoError(t, err)

	err = v.Struct(signup{Username: "a b", Email: "nope", Role: "professor", Name: "Augusta"})
	require.Error(t, err)

	fields := Translate(err)
	require.Len(t, fields, 4)
	assert.Equal(t, FieldError{Field: "username", Message: "username must be 3-32 letters, digits, '.' or '_'"}, fields[0])
	assert.Equal(t, FieldError{Field: "email", Message: "email must be a valid email"}, fields[1])
	assert.Equal(t, FieldError{Field: "role", Message: "role must be one of: admin staff student"}, fields[2])
	assert.Equal(t, FieldError{Field: "name", Message: "name must not exceed 5 characters"}, fields[3])
}

func TestTranslateIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Translate(errors.New("plain")))
	assert.Nil(t, Translate(nil))
}

func TestRegisterWithGin(t *testing.T) {
	assert.NoError(t, RegisterWithGin())
	assert.NoError(t, RegisterWithGin())
}
