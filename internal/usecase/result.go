package usecase

import (
	"strings"

	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/pkg/validator"
)

// Result is the normalized outcome handed to the transport layer. SetCookies
// carries the raw Set-Cookie values to write onto the outbound response, in
// order.
type Result struct {
	Identity   *kratos.Identity
	Session    *kratos.Session
	Token      string
	SetCookies []string
}

// propagateCookies picks the cookies to hand back to the caller: the
// provider's newly issued cookies, or the caller's own cookie when the
// provider returned none. The caller's cookie is never silently dropped.
func propagateCookies(issued kratos.CookieSet, callerCookie string) []string {
	if len(issued) > 0 {
		return issued
	}
	if callerCookie != "" {
		return []string{callerCookie}
	}
	return nil
}

// validateInput runs struct validation and converts the first failure into a
// flow validation error. Orchestrators call this before any network request.
func validateInput(v any) error {
	err := validator.ValidateStruct(v)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		failure := ve[0]
		return kratos.ValidationError(strings.ToLower(failure.Field), validationReason(failure))
	}
	return kratos.ValidationError("input", err.Error())
}

func validationReason(failure validator.ValidationError) string {
	switch failure.Tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + failure.Param + " characters"
	case "max":
		return "must be at most " + failure.Param + " characters"
	default:
		if failure.Param != "" {
			return "failed validation: " + failure.Tag + "=" + failure.Param
		}
		return "failed validation: " + failure.Tag
	}
}
