package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
	Note     string `json:"-" validate:"omitempty,max=8"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(&sampleInput{Email: "a@b.com", Username: "abc"})
	require.NoError(t, err)
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(&sampleInput{Email: "nope", Username: "abc"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 1)
	require.Equal(t, "email", ve[0].Field)
	require.Equal(t, "email", ve[0].Tag)
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	err := ValidateStruct(&sampleInput{})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 2)
	require.Equal(t, "required", ve[0].Tag)
}

func TestValidationErrorsMessage(t *testing.T) {
	err := ValidateStruct(&sampleInput{Email: "a@b.com", Username: "ab"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "username failed on min=3")
}

func TestValidateStructDashTagFallsBackToFieldName(t *testing.T) {
	err := ValidateStruct(&sampleInput{Email: "a@b.com", Username: "abc", Note: "way too long note"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Equal(t, "Note", ve[0].Field)
}
