package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/pkg/logger"
)

// LogoutService terminates the provider session behind a cookie.
type LogoutService struct {
	client *kratos.Client
	log    *zap.Logger
}

// NewLogoutService wires the logout orchestrator.
func NewLogoutService(client *kratos.Client) (*LogoutService, error) {
	if client == nil {
		return nil, errors.New("usecase: kratos client must be provided")
	}

	return &LogoutService{
		client: client,
		log:    logger.WithModule("usecase.logout"),
	}, nil
}

// LogoutInput carries the caller's session cookie.
type LogoutInput struct {
	Cookie string
}

// Execute runs the two-hop logout. The provider invalidates the session
// implicitly; success needs no confirmation payload.
func (s *LogoutService) Execute(ctx context.Context, input LogoutInput) (*Result, error) {
	if input.Cookie == "" {
		return nil, kratos.UnauthorizedError()
	}

	issued, err := s.client.Logout(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	s.log.Info("logout completed")

	return &Result{SetCookies: issued}, nil
}
