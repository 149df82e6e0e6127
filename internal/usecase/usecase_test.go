package usecase

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vwency/auth-gateway/internal/auth"
	"github.com/vwency/auth-gateway/internal/kratos"
)

// countingHandler records how many provider requests an orchestrator issued.
type countingHandler struct {
	next http.Handler
	hits atomic.Int64
	url  string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	h.next.ServeHTTP(w, r)
}

func (h *countingHandler) count() int64 {
	return h.hits.Load()
}

// newProvider starts a fake identity provider and returns a client pointed at
// it together with the request counter.
func newProvider(t *testing.T, handler http.Handler) (*kratos.Client, *countingHandler) {
	t.Helper()

	counting := &countingHandler{next: handler}
	ts := httptest.NewServer(counting)
	t.Cleanup(ts.Close)
	counting.url = ts.URL

	client, err := kratos.New(kratos.Config{PublicURL: ts.URL, AdminURL: ts.URL})
	require.NoError(t, err)
	return client, counting
}

func newJWTService(t *testing.T) *auth.JWTService {
	t.Helper()

	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "auth-gateway"})
	require.NoError(t, err)
	return svc
}

// registrationProvider simulates the browser-mode registration exchange from
// initiation redirect through submission. The submission response nests the
// identity beside the session, the shape registration answers use.
func registrationProvider(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/self-service/registration/browser", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "csrf_reg=c1; Path=/; HttpOnly")
		w.Header().Set("Location", "/ui/registration?flow=f1")
		w.WriteHeader(http.StatusSeeOther)
	})
	mux.HandleFunc("/self-service/registration/flows", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "f1", r.URL.Query().Get("id"))
		_, _ = fmt.Fprint(w, `{"id":"f1","ui":{"nodes":[{"attributes":{"name":"csrf_token","value":"tok1"}}]}}`)
	})
	mux.HandleFunc("/self-service/registration", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "f1", r.URL.Query().Get("flow"))
		require.Contains(t, r.Header.Get("Cookie"), "csrf_reg=c1")
		w.Header().Add("Set-Cookie", "ory_kratos_session=sess-abc; Path=/; HttpOnly")
		_, _ = fmt.Fprint(w, `{
			"session_token": "st-1",
			"session": {"id": "s1", "active": true},
			"identity": {"id": "u1", "traits": {"email": "a@b.com", "username": "ab"}}
		}`)
	})
	mux.HandleFunc("/admin/identities/u1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"u1","schema_id":"default","traits":{"email":"a@b.com","username":"ab","geo_location":"Berlin"}}`)
	})
	return mux
}
