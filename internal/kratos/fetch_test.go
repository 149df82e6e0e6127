package kratos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func flowDocument(id, csrf string) []byte {
	doc := map[string]any{
		"id":   id,
		"type": "browser",
		"ui": map[string]any{
			"nodes": []any{
				map[string]any{
					"attributes": map[string]any{"name": "traits.email", "value": ""},
				},
				map[string]any{
					"attributes": map[string]any{"name": "csrf_token", "value": csrf},
				},
			},
		},
	}
	raw, _ := json.Marshal(doc)
	return raw
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(Config{PublicURL: baseURL, AdminURL: baseURL})
	require.NoError(t, err)
	return client
}

func TestNewRequiresURLs(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{PublicURL: "http://localhost:4433"})
	require.Error(t, err)
}

func TestFetchFlowDirect(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "/self-service/login/browser", r.URL.Path)
		w.Header().Add("Set-Cookie", "csrf_cookie=abc; Path=/; HttpOnly")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(flowDocument("f1", "tok1"))
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	flow, cookies, err := client.FetchFlow(context.Background(), FlowLogin, "")
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	require.Equal(t, "f1", flow.ID)
	require.Equal(t, FlowLogin, flow.Type)
	require.Equal(t, "tok1", flow.CSRFToken)
	require.Equal(t, "csrf_cookie=abc", cookies.Header())
}

func TestFetchFlowFollowsRedirect(t *testing.T) {
	var readCookie string
	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/self-service/registration/browser", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "A=1", r.Header.Get("Cookie"))
		w.Header().Add("Set-Cookie", "B=2; Path=/")
		w.Header().Set("Location", ts.URL+"/ui/registration?flow=XYZ")
		w.WriteHeader(http.StatusSeeOther)
	})
	mux.HandleFunc("/self-service/registration/flows", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "XYZ", r.URL.Query().Get("id"))
		readCookie = r.Header.Get("Cookie")
		w.Header().Add("Set-Cookie", "C=3; Path=/")
		_, _ = w.Write(flowDocument("XYZ", "tok-xyz"))
	})

	ts = httptest.NewServer(mux)
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	flow, cookies, err := client.FetchFlow(context.Background(), FlowRegistration, "A=1")
	require.NoError(t, err)
	require.Equal(t, "XYZ", flow.ID)
	require.Equal(t, "tok-xyz", flow.CSRFToken)

	// Cookies merged from both hops, caller cookie first.
	require.Equal(t, "A=1; B=2", readCookie)
	require.Equal(t, CookieSet{"A=1", "B=2", "C=3"}, cookies)
}

func TestFetchFlowRedirectWithoutFlowID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/ui/login")
		w.WriteHeader(http.StatusFound)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, _, err := client.FetchFlow(context.Background(), FlowLogin, "")
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindMissingField, fe.Kind)
	require.Equal(t, "flow", fe.Field)
}

func TestFetchFlowMissingCSRFToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"f1","ui":{"nodes":[]}}`)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, _, err := client.FetchFlow(context.Background(), FlowLogin, "")
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindMissingField, fe.Kind)
	require.Equal(t, "csrf_token", fe.Field)
}

func TestFetchFlowProtocolFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := newTestClient(t, ts.URL)

	_, _, err := client.FetchFlow(context.Background(), FlowLogin, "")
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindProtocol, fe.Kind)
	require.Equal(t, http.StatusInternalServerError, fe.Status)
	require.Contains(t, fe.Body, "gone fishing")
}

func TestFetchFlowNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // closed on purpose

	client := newTestClient(t, ts.URL)

	_, _, err := client.FetchFlow(context.Background(), FlowLogin, "")
	var fe *FlowError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindNetwork, fe.Kind)
	require.Error(t, fe.Unwrap())
}
