package kratos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// SubmitFlow posts a method-specific body against a fetched flow id,
// forwarding the accumulated cookie set. It returns the raw response body
// together with the cookies newly issued on this hop only; merging them with
// the input set is the orchestrator's job.
func (c *Client) SubmitFlow(ctx context.Context, flowType FlowType, flowID string, body map[string]any, cookies CookieSet) ([]byte, CookieSet, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, ProtocolError(0, fmt.Sprintf("encode submission body: %v", err))
	}

	submitURL := fmt.Sprintf("%s/self-service/%s?flow=%s", c.publicURL, flowType, url.QueryEscape(flowID))
	resp, respBody, err := c.do(ctx, "POST", submitURL, payload, cookies)
	if err != nil {
		return nil, nil, err
	}

	if !is2xx(resp.StatusCode) {
		return nil, nil, ProtocolError(resp.StatusCode, string(respBody))
	}
	if !gjson.ValidBytes(respBody) {
		return nil, nil, ProtocolError(resp.StatusCode, "submission response is not valid JSON")
	}

	c.log.Debug("flow submitted",
		zap.String("flow_type", string(flowType)),
		zap.String("flow_id", flowID),
	)

	return respBody, CookieSet(setCookies(resp.Header)), nil
}

// PasswordLoginBody builds the submission payload for a password-method
// login.
func PasswordLoginBody(csrfToken, identifier, password string) map[string]any {
	return map[string]any{
		"method":     "password",
		"csrf_token": csrfToken,
		"identifier": identifier,
		"password":   password,
	}
}

// PasswordRegistrationBody builds the submission payload for a
// password-method registration. Free-form traits are merged under the traits
// object; email and password keys are excluded from the merge so they cannot
// clobber the required fields.
func PasswordRegistrationBody(csrfToken, email, username, password string, extraTraits map[string]any) map[string]any {
	traits := map[string]any{
		"email":    email,
		"username": username,
	}
	for k, v := range extraTraits {
		if k == "email" || k == "password" {
			continue
		}
		traits[k] = v
	}

	return map[string]any{
		"method":     "password",
		"csrf_token": csrfToken,
		"password":   password,
		"traits":     traits,
	}
}

// RecoveryLinkBody builds the submission payload for a link-method recovery.
func RecoveryLinkBody(csrfToken, email string) map[string]any {
	return map[string]any{
		"method":     "link",
		"csrf_token": csrfToken,
		"email":      email,
	}
}
