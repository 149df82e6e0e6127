package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/pkg/logger"
)

// RecoveryService drives the password-recovery flow: initiation hands the
// flow document to the caller, completion submits the link-method request.
type RecoveryService struct {
	client *kratos.Client
	log    *zap.Logger
}

// NewRecoveryService wires the recovery orchestrator.
func NewRecoveryService(client *kratos.Client) (*RecoveryService, error) {
	if client == nil {
		return nil, errors.New("usecase: kratos client must be provided")
	}

	return &RecoveryService{
		client: client,
		log:    logger.WithModule("usecase.recovery"),
	}, nil
}

// RecoveryFlow is the initiation response handed back to the caller.
type RecoveryFlow struct {
	FlowID     string          `json:"flow_id"`
	Raw        json.RawMessage `json:"flow"`
	SetCookies []string        `json:"-"`
}

// Initiate fetches a fresh recovery flow.
func (s *RecoveryService) Initiate(ctx context.Context, cookie string) (*RecoveryFlow, error) {
	flow, cookies, err := s.client.FetchFlow(ctx, kratos.FlowRecovery, cookie)
	if err != nil {
		return nil, err
	}

	s.log.Info("recovery flow initiated", zap.String("flow_id", flow.ID))

	return &RecoveryFlow{
		FlowID:     flow.ID,
		Raw:        flow.Raw,
		SetCookies: propagateCookies(cookies, cookie),
	}, nil
}

// CompleteRecoveryInput carries the completion request for a previously
// initiated flow.
type CompleteRecoveryInput struct {
	FlowID string `json:"flow" validate:"required"`
	Email  string `json:"email" validate:"required,email"`

	Cookie string `json:"-"`
}

// Complete reads the flow back to obtain its CSRF token, then submits the
// link-method recovery request.
func (s *RecoveryService) Complete(ctx context.Context, input CompleteRecoveryInput) (*Result, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	cookies := kratos.CookieSet{}.Append(input.Cookie)
	flow, cookies, err := s.client.GetFlow(ctx, kratos.FlowRecovery, input.FlowID, cookies)
	if err != nil {
		return nil, err
	}

	body := kratos.RecoveryLinkBody(flow.CSRFToken, input.Email)
	_, issued, err := s.client.SubmitFlow(ctx, kratos.FlowRecovery, flow.ID, body, cookies)
	if err != nil {
		return nil, err
	}

	s.log.Info("recovery flow completed", zap.String("flow_id", flow.ID))

	return &Result{SetCookies: propagateCookies(issued, input.Cookie)}, nil
}
