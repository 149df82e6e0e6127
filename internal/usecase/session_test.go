package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vwency/auth-gateway/internal/kratos"
)

func TestGetSessionRequiresCredentials(t *testing.T) {
	client, provider := newProvider(t, http.NotFoundHandler())
	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), GetSessionInput{})
	require.True(t, kratos.IsUnauthorized(err))
	require.EqualValues(t, 0, provider.count())
}

func TestGetSessionExecute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"s1","active":true,"identity":{"id":"u1","traits":{"email":"a@b.com","username":"ab"}}}`)
	})

	client, _ := newProvider(t, mux)
	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	input := GetSessionInput{Cookie: "ory_kratos_session=abc"}

	first, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "u1", first.Identity.ID)
	require.Empty(t, first.SetCookies)

	// Read-only: a second lookup with the same cookie resolves the same identity.
	second, err := svc.Execute(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, first.Identity.ID, second.Identity.ID)
	require.Equal(t, first.Session.ID, second.Session.ID)
}

func TestGetSessionLegacyToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/whoami", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "st-legacy", r.Header.Get("X-Session-Token"))
		_, _ = fmt.Fprint(w, `{"id":"s1","active":true,"identity":{"id":"u1","traits":{"email":"a@b.com","username":"ab"}}}`)
	})

	client, _ := newProvider(t, mux)
	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	result, err := svc.Execute(context.Background(), GetSessionInput{SessionToken: "st-legacy"})
	require.NoError(t, err)
	require.Equal(t, "u1", result.Identity.ID)
}

func TestGetSessionProviderRejectionIsUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/whoami", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401}}`, http.StatusUnauthorized)
	})

	client, _ := newProvider(t, mux)
	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), GetSessionInput{Cookie: "ory_kratos_session=stale"})
	require.True(t, kratos.IsUnauthorized(err))
}

func TestGetSessionInactiveIsUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"s1","active":false,"identity":{"id":"u1","traits":{"email":"a@b.com","username":"ab"}}}`)
	})

	client, _ := newProvider(t, mux)
	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), GetSessionInput{Cookie: "ory_kratos_session=old"})
	require.True(t, kratos.IsUnauthorized(err))
}

func TestGetSessionNetworkFailurePassesThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client, err := kratos.New(kratos.Config{PublicURL: ts.URL, AdminURL: ts.URL})
	require.NoError(t, err)

	svc, err := NewGetSessionService(client)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), GetSessionInput{Cookie: "ory_kratos_session=abc"})
	require.Equal(t, kratos.KindNetwork, kratos.KindOf(err))
}
