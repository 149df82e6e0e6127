package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/internal/middleware"
	"github.com/vwency/auth-gateway/internal/store"
	"github.com/vwency/auth-gateway/internal/usecase"
	appErrors "github.com/vwency/auth-gateway/pkg/errors"
	"github.com/vwency/auth-gateway/pkg/metrics"
	"github.com/vwency/auth-gateway/pkg/response"
)

// sessionCookieName matches the provider's browser session cookie.
const sessionCookieName = "ory_kratos_session"

// AuthHandler exposes the self-service authentication flows over HTTP.
type AuthHandler struct {
	signup   *usecase.SignupService
	login    *usecase.LoginService
	logout   *usecase.LogoutService
	session  *usecase.GetSessionService
	recovery *usecase.RecoveryService
	users    *store.UserStore
}

// NewAuthHandler wires the handler with its use cases.
func NewAuthHandler(
	signup *usecase.SignupService,
	login *usecase.LoginService,
	logout *usecase.LogoutService,
	session *usecase.GetSessionService,
	recovery *usecase.RecoveryService,
	users *store.UserStore,
) (*AuthHandler, error) {
	if signup == nil || login == nil || logout == nil || session == nil || recovery == nil {
		return nil, errors.New("handlers: all use cases must be provided")
	}
	if users == nil {
		return nil, errors.New("handlers: user store must be provided")
	}

	return &AuthHandler{
		signup:   signup,
		login:    login,
		logout:   logout,
		session:  session,
		recovery: recovery,
		users:    users,
	}, nil
}

type registerRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Username string         `json:"username" validate:"required,min=3,max=32"`
	Password string         `json:"password" validate:"required,min=8"`
	Traits   map[string]any `json:"traits"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.signup.Execute(requestContext(c), usecase.SignupInput{
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Traits:   req.Traits,
		Cookie:   c.GetHeader("Cookie"),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("signup", "failure").Inc()
		response.Error(c, kratos.AsAppError(err))
		return
	}
	metrics.AuthAttempts.WithLabelValues("signup", "success").Inc()

	writeCookies(c, res)

	response.Success(c, http.StatusCreated, gin.H{
		"identity": res.Identity,
		"token":    res.Token,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.login.Execute(requestContext(c), usecase.LoginInput{
		Identifier: strings.TrimSpace(req.Identifier),
		Password:   req.Password,
		Cookie:     c.GetHeader("Cookie"),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		response.Error(c, kratos.AsAppError(err))
		return
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()

	writeCookies(c, res)

	response.Success(c, http.StatusOK, gin.H{
		"identity": res.Identity,
		"session":  res.Session,
		"token":    res.Token,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie := c.GetHeader("Cookie")
	if cookie == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.logout.Execute(requestContext(c), usecase.LogoutInput{Cookie: cookie})
	if err != nil {
		response.Error(c, kratos.AsAppError(err))
		return
	}

	for _, v := range res.SetCookies {
		c.Writer.Header().Add("Set-Cookie", v)
	}
	// Expire the session cookie on the caller regardless of what the provider returned.
	c.Writer.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=; Path=/; Max-Age=0; HttpOnly; Secure; SameSite=Lax", sessionCookieName))

	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	res, err := h.session.Execute(requestContext(c), usecase.GetSessionInput{
		Cookie:       c.GetHeader("Cookie"),
		SessionToken: legacySessionToken(c),
	})
	if err != nil {
		response.Error(c, kratos.AsAppError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"identity": res.Identity,
		"session":  res.Session,
	})
}

// GET /auth/recovery
func (h *AuthHandler) InitRecovery(c *gin.Context) {
	flow, err := h.recovery.Initiate(requestContext(c), c.GetHeader("Cookie"))
	if err != nil {
		response.Error(c, kratos.AsAppError(err))
		return
	}

	for _, v := range flow.SetCookies {
		c.Writer.Header().Add("Set-Cookie", v)
	}

	response.Success(c, http.StatusOK, flow)
}

type completeRecoveryRequest struct {
	Flow  string `json:"flow" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// POST /auth/recovery
func (h *AuthHandler) CompleteRecovery(c *gin.Context) {
	var req completeRecoveryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.recovery.Complete(requestContext(c), usecase.CompleteRecoveryInput{
		FlowID: req.Flow,
		Email:  strings.TrimSpace(req.Email),
		Cookie: c.GetHeader("Cookie"),
	})
	if err != nil {
		response.Error(c, kratos.AsAppError(err))
		return
	}

	for _, v := range res.SetCookies {
		c.Writer.Header().Add("Set-Cookie", v)
	}

	response.Success(c, http.StatusOK, gin.H{"message": "recovery initiated"})
}

// GET /api/profile, authenticated by the gateway's own JWT.
func (h *AuthHandler) Profile(c *gin.Context) {
	v, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	userID, _ := v.(string)

	user, found := h.users.FindByID(userID)
	if !found {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// writeCookies propagates the provider's cookies onto the outbound response.
// When only a bearer session token came back, it is translated into the
// session cookie so the gateway always answers in cookie convention.
func writeCookies(c *gin.Context, res *usecase.Result) {
	for _, v := range res.SetCookies {
		c.Writer.Header().Add("Set-Cookie", v)
	}

	if len(res.SetCookies) == 0 && res.Session != nil && res.Session.Token != "" {
		c.Writer.Header().Add("Set-Cookie",
			fmt.Sprintf("%s=%s; Path=/; HttpOnly; Secure; SameSite=Lax", sessionCookieName, res.Session.Token))
	}
}

// legacySessionToken accepts the legacy token transports: X-Session-Token and
// a bearer Authorization header. Accepted on input only; responses always use
// cookies.
func legacySessionToken(c *gin.Context) string {
	if token := c.GetHeader("X-Session-Token"); token != "" {
		return token
	}
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
