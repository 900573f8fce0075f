// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type passwordFixture struct {
	Password string `validate:"strong_password"`
}

func TestStrongPassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"StrongPass1!", true},
		{"Ab1!Ab1!", true},
		{"short1A!", true},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoNumbers!", false},
		{"NoSpecials1", false},
		{"Ab1!", false}, // too short
	}

	for _, tc := range cases {
		err := ValidateStruct(&passwordFixture{Password: tc.password})
		if tc.ok {
			assert.NoError(t, err, "password %q should be accepted", tc.password)
		} else {
			assert.Error(t, err, "password %q should be rejected", tc.password)
		}
	}
}

type validationFixture struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,min=2"`
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&validationFixture{Email: "not-an-email", Name: "x"})
	errs := GetValidationErrors(err)

	assert.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "email", byField["email"].Tag)
	assert.Equal(t, "Invalid email format", byField["email"].Message)
	assert.Equal(t, "min", byField["name"].Tag)
}

func TestGetValidationErrorsNilError(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
}
