package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/pkg/logger"
)

// GetSessionService resolves the provider session behind caller credentials.
// It is read-only: two calls with the same cookie return the same identity.
type GetSessionService struct {
	client *kratos.Client
	log    *zap.Logger
}

// NewGetSessionService wires the session-lookup orchestrator.
func NewGetSessionService(client *kratos.Client) (*GetSessionService, error) {
	if client == nil {
		return nil, errors.New("usecase: kratos client must be provided")
	}

	return &GetSessionService{
		client: client,
		log:    logger.WithModule("usecase.session"),
	}, nil
}

// GetSessionInput carries the caller's credentials. Cookie is the canonical
// transport; SessionToken covers legacy clients still sending
// X-Session-Token or a bearer token. Accepted on input, never emitted.
type GetSessionInput struct {
	Cookie       string
	SessionToken string
}

// Execute looks the session up. Every failure, whatever the provider said,
// surfaces as unauthorized: from this service's perspective a failed lookup
// means the caller is not authenticated.
func (s *GetSessionService) Execute(ctx context.Context, input GetSessionInput) (*Result, error) {
	if input.Cookie == "" && input.SessionToken == "" {
		return nil, kratos.UnauthorizedError()
	}

	session, err := s.client.WhoAmI(ctx, input.Cookie, input.SessionToken)
	if err != nil {
		if kratos.KindOf(err) == kratos.KindNetwork {
			return nil, err
		}
		return nil, kratos.UnauthorizedError()
	}
	if session == nil || !session.Active {
		return nil, kratos.UnauthorizedError()
	}

	s.log.Debug("session resolved", zap.String("session_id", session.ID))

	return &Result{Identity: session.Identity, Session: session}, nil
}
