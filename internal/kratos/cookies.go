package kratos

import (
	"net/http"
	"strings"
)

// CookieSet is an ordered collection of cookie values accumulated across a
// request chain. Entries arrive in order: cookies supplied by the caller
// first, then provider-issued cookies as they are received. Duplicate cookie
// names are kept; the provider's newest value simply appears later.
type CookieSet []string

// Append returns a new set with the given non-empty values added.
func (cs CookieSet) Append(values ...string) CookieSet {
	out := cs
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Merge appends every entry of other, preserving order.
func (cs CookieSet) Merge(other CookieSet) CookieSet {
	return cs.Append(other...)
}

// Header renders the set as a single Cookie header value.
func (cs CookieSet) Header() string {
	return strings.Join(cs, "; ")
}

// cookiePairs extracts the name=value pairs from the Set-Cookie headers of a
// response, in arrival order, with attributes stripped.
func cookiePairs(h http.Header) []string {
	raw := h.Values("Set-Cookie")
	pairs := make([]string, 0, len(raw))
	for _, v := range raw {
		if idx := strings.Index(v, ";"); idx >= 0 {
			v = v[:idx]
		}
		v = strings.TrimSpace(v)
		if v != "" {
			pairs = append(pairs, v)
		}
	}
	return pairs
}

// setCookies returns the raw Set-Cookie header values of a response,
// attributes included, in arrival order. These are what the gateway
// propagates back to its own caller.
func setCookies(h http.Header) []string {
	return append([]string(nil), h.Values("Set-Cookie")...)
}
