package kratos

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"
)

// Identity is the provider's durable representation of a user account.
type Identity struct {
	ID        string         `json:"id"`
	SchemaID  string         `json:"schema_id,omitempty"`
	Traits    map[string]any `json:"traits"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Email returns the email trait.
func (i *Identity) Email() string {
	return stringTrait(i.Traits, "email")
}

// Username returns the username trait.
func (i *Identity) Username() string {
	return stringTrait(i.Traits, "username")
}

func stringTrait(traits map[string]any, key string) string {
	if v, ok := traits[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Session is a provider-issued proof of authentication. Token is present only
// for flow variants that return a bearer token; cookie-only flows leave it
// empty. A session authenticates its holder only while Active is true.
type Session struct {
	ID       string    `json:"id"`
	Active   bool      `json:"active"`
	Identity *Identity `json:"identity"`
	Token    string    `json:"token,omitempty"`
}

// AuthResult is the normalized outcome of a successful flow submission.
type AuthResult struct {
	Identity *Identity
	Session  *Session
}

// ExtractSession normalizes a submission response into an identity and
// session. Two response layouts are accepted: the session object nested under
// a "session" key with a sibling "session_token", and a flat object that is
// itself a session. The identity is taken from the session, falling back to a
// top-level "identity" for registration responses issued before a session
// exists. Required identity fields are never defaulted; their absence is a
// hard failure.
func ExtractSession(body []byte) (*AuthResult, error) {
	root := gjson.ParseBytes(body)

	sessionDoc := root
	if nested := root.Get("session"); nested.Exists() {
		sessionDoc = nested
	}
	token := root.Get("session_token").String()

	identityDoc := sessionDoc.Get("identity")
	if !identityDoc.Exists() {
		identityDoc = root.Get("identity")
	}
	if !identityDoc.Exists() {
		return nil, MissingFieldError("identity")
	}

	identity, err := parseIdentity(identityDoc)
	if err != nil {
		return nil, err
	}

	// A missing or ambiguous active flag must read as "not authenticated".
	session := &Session{
		ID:       sessionDoc.Get("id").String(),
		Active:   sessionDoc.Get("active").Bool(),
		Identity: identity,
		Token:    token,
	}

	return &AuthResult{Identity: identity, Session: session}, nil
}

func parseIdentity(doc gjson.Result) (*Identity, error) {
	id := doc.Get("id").String()
	if id == "" {
		return nil, MissingFieldError("id")
	}
	if doc.Get("traits.email").String() == "" {
		return nil, MissingFieldError("email")
	}
	if doc.Get("traits.username").String() == "" {
		return nil, MissingFieldError("username")
	}

	traits := map[string]any{}
	if raw := doc.Get("traits"); raw.IsObject() {
		for k, v := range raw.Map() {
			traits[k] = v.Value()
		}
	}

	return &Identity{
		ID:        id,
		SchemaID:  doc.Get("schema_id").String(),
		Traits:    traits,
		CreatedAt: doc.Get("created_at").String(),
		UpdatedAt: doc.Get("updated_at").String(),
	}, nil
}

// WhoAmI resolves the session behind the supplied credentials. The cookie is
// the canonical transport; a bare session token is accepted as legacy input
// and forwarded via X-Session-Token. Any non-2xx answer means the caller is
// not authenticated, regardless of the underlying status code.
func (c *Client) WhoAmI(ctx context.Context, cookie, sessionToken string) (*Session, error) {
	cookies := CookieSet{}.Append(cookie)

	req, err := http.NewRequestWithContext(ctx, "GET", c.publicURL+"/sessions/whoami", nil)
	if err != nil {
		return nil, NetworkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if len(cookies) > 0 {
		req.Header.Set("Cookie", cookies.Header())
	}
	if sessionToken != "" {
		req.Header.Set("X-Session-Token", sessionToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, NetworkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, UnauthorizedError()
	}

	result, err := ExtractSession(body)
	if err != nil {
		return nil, err
	}
	return result.Session, nil
}
