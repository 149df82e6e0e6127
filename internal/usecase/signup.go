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

// SignupService registers a new identity with the provider and mirrors it
// into the local user store.
type SignupService struct {
	client *kratos.Client
	users  *store.UserStore
	jwt    *auth.JWTService
	log    *zap.Logger
}

// NewSignupService wires the signup orchestrator.
func NewSignupService(client *kratos.Client, users *store.UserStore, jwtSvc *auth.JWTService) (*SignupService, error) {
	if client == nil {
		return nil, errors.New("usecase: kratos client must be provided")
	}
	if users == nil {
		return nil, errors.New("usecase: user store must be provided")
	}
	if jwtSvc == nil {
		return nil, errors.New("usecase: jwt service must be provided")
	}

	return &SignupService{
		client: client,
		users:  users,
		jwt:    jwtSvc,
		log:    logger.WithModule("usecase.signup"),
	}, nil
}

// SignupInput carries the registration request. Traits holds free-form
// identity attributes beyond email and username.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`

	Traits map[string]any `json:"-"`
	Cookie string         `json:"-"`
}

// Execute runs the registration flow: fetch, submit, extract. Validation
// failures short-circuit before any network call.
func (s *SignupService) Execute(ctx context.Context, input SignupInput) (*Result, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	start := time.Now()

	flow, cookies, err := s.client.FetchFlow(ctx, kratos.FlowRegistration, input.Cookie)
	if err != nil {
		return nil, err
	}

	body := kratos.PasswordRegistrationBody(flow.CSRFToken, input.Email, input.Username, input.Password, input.Traits)
	respBody, issued, err := s.client.SubmitFlow(ctx, kratos.FlowRegistration, flow.ID, body, cookies)
	if err != nil {
		return nil, err
	}
	metrics.FlowDuration.WithLabelValues(string(kratos.FlowRegistration)).Observe(time.Since(start).Seconds())

	extracted, err := kratos.ExtractSession(respBody)
	if err != nil {
		return nil, err
	}

	identity := extracted.Identity
	if fresh, adminErr := s.client.AdminIdentity(ctx, identity.ID); adminErr == nil {
		identity = fresh
	} else {
		// The session already carries a usable identity; the admin
		// read-back only enriches it.
		s.log.Warn("admin identity lookup failed", zap.String("identity_id", identity.ID), zap.Error(adminErr))
	}

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

	s.log.Info("registration completed",
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
