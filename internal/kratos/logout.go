package kratos

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Logout invalidates the session behind the given cookie. The provider
// separates "obtain a logout url" from "perform the logout": the first hop
// returns the url, the second GET executes it. Any 2xx on the second hop is
// success; the provider invalidates the session implicitly and returns no
// confirmation payload.
func (c *Client) Logout(ctx context.Context, cookie string) (CookieSet, error) {
	cookies := CookieSet{}.Append(cookie)

	resp, body, err := c.do(ctx, "GET", c.publicURL+"/self-service/logout/browser", nil, cookies)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, ProtocolError(resp.StatusCode, string(body))
	}
	cookies = cookies.Append(cookiePairs(resp.Header)...)

	logoutURL := gjson.GetBytes(body, "logout_url").String()
	if logoutURL == "" {
		return nil, MissingFieldError("logout_url")
	}

	resp, body, err = c.do(ctx, "GET", logoutURL, nil, cookies)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, ProtocolError(resp.StatusCode, string(body))
	}

	c.log.Debug("logout completed", zap.Int("status", resp.StatusCode))

	return CookieSet(setCookies(resp.Header)), nil
}

// AdminIdentity reads an identity through the admin API. This is a
// server-to-server call; no end-user cookies are forwarded.
func (c *Client) AdminIdentity(ctx context.Context, identityID string) (*Identity, error) {
	resp, body, err := c.do(ctx, "GET", fmt.Sprintf("%s/admin/identities/%s", c.adminURL, identityID), nil, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, ProtocolError(resp.StatusCode, string(body))
	}

	return parseIdentity(gjson.ParseBytes(body))
}
