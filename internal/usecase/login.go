package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vwency/auth-gateway/internal/auth"
	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/internal/store"
	"github.com/vwency/auth-gateway/pkg/logger"
	"github.com/vwency/auth-gateway/pkg/metrics"
)

// LoginService authenticates an existing identity against the provider.
type LoginService struct {
	client *kratos.Client
	users  *store.UserStore
	jwt    *auth.JWTService
	log    *zap.Logger
}

// NewLoginService wires the login orchestrator.
func NewLoginService(client *kratos.Client, users *store.UserStore, jwtSvc *auth.JWTService) (*LoginService, error) {
	if client == nil {
		return nil, errors.New("usecase: kratos client must be provided")
	}
	if users == nil {
		return nil, errors.New("usecase: user store must be provided")
	}
	if jwtSvc == nil {
		return nil, errors.New("usecase: jwt service must be provided")
	}

	return &LoginService{
		client: client,
		users:  users,
		jwt:    jwtSvc,
		log:    logger.WithModule("usecase.login"),
	}, nil
}

// LoginInput carries the login request. Identifier is whatever the provider
// accepts as a lookup key, typically email or username.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`

	Cookie string `json:"-"`
}

// Execute runs the login flow. A caller whose cookie already resolves to an
// active session is rejected before any flow is fetched; proceeding would
// create concurrent sessions for one browser.
func (s *LoginService) Execute(ctx context.Context, input LoginInput) (*Result, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	if input.Cookie != "" {
		if existing, err := s.client.WhoAmI(ctx, input.Cookie, ""); err == nil && existing != nil && existing.Active {
			return nil, kratos.ValidationError("session", "already logged in")
		}
	}

	start := time.Now()

	flow, cookies, err := s.client.FetchFlow(ctx, kratos.FlowLogin, input.Cookie)
	if err != nil {
		return nil, err
	}

	body := kratos.PasswordLoginBody(flow.CSRFToken, input.Identifier, input.Password)
	respBody, issued, err := s.client.SubmitFlow(ctx, kratos.FlowLogin, flow.ID, body, cookies)
	if err != nil {
		return nil, err
	}
	metrics.FlowDuration.WithLabelValues(string(kratos.FlowLogin)).Observe(time.Since(start).Seconds())

	extracted, err := kratos.ExtractSession(respBody)
	if err != nil {
		return nil, err
	}
	if extracted.Session == nil || !extracted.Session.Active {
		return nil, kratos.UnauthorizedError()
	}

	identity := extracted.Identity
	s.users.Save(store.User{
		ID:       identity.ID,
		Email:    identity.Email(),
		Username: identity.Username(),
		Traits:   identity.Traits,
	})

	token, err := s.jwt.GenerateToken(identity.ID, identity.Email())
	if err != nil {
		return nil, err
	}

	s.log.Info("login completed",
		zap.String("identity_id", identity.ID),
		zap.String("flow_id", flow.ID),
	)

	return &Result{
		Identity:   identity,
		Session:    extracted.Session,
		Token:      token,
		SetCookies: propagateCookies(issued, input.Cookie),
	}, nil
}
