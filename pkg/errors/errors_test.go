package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	appErr := New("TEST", "something failed", http.StatusTeapot)
	require.Equal(t, "something failed", appErr.Error())

	withInternal := appErr.WithInternal(errors.New("root cause"))
	require.Equal(t, "something failed: root cause", withInternal.Error())
	require.Equal(t, "root cause", withInternal.Unwrap().Error())

	// The original sentinel is untouched.
	require.Nil(t, appErr.Internal)
}

func TestWithMessageCopies(t *testing.T) {
	specific := ErrBadRequest.WithMessage("email: is required")
	require.Equal(t, "email: is required", specific.Message)
	require.Equal(t, ErrBadRequest.Code, specific.Code)
	require.Equal(t, "Invalid request", ErrBadRequest.Message)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrUnauthorized)
	require.Equal(t, ErrUnauthorized, appErr)

	wrapped := FromError(fmt.Errorf("handler: %w", ErrNotFound))
	require.Equal(t, ErrNotFound.Code, wrapped.Code)

	plain := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.StatusCode)
}

func TestWrapKeepsOriginal(t *testing.T) {
	cause := errors.New("disk full")
	appErr := Wrap(cause, "could not persist user")
	require.True(t, errors.Is(appErr, cause))
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}
