package forms

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/resilience"
)

// Submitter delivers a validated form payload to wherever forms end up
// (mailing list provider, helpdesk).
type Submitter interface {
	Submit(ctx context.Context, form Form, payload any) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, form Form, payload any) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, form Form, payload any) error {
	return f(ctx, form, payload)
}

// HTTPSubmitter posts {"form": ..., "data": ...} to Endpoint.
type HTTPSubmitter struct {
	HTTP     resilience.HTTPClient
	Endpoint string
}

type envelope struct {
	Form Form `json:"form"`
	Data any  `json:"data"`
}

// Submit implements Submitter.
func (s HTTPSubmitter) Submit(ctx context.Context, form Form, payload any) error {
	if s.Endpoint == "" {
		return errors.New("forms: endpoint not configured")
	}
	return s.HTTP.DoJSON(ctx, http.MethodPost, s.Endpoint, envelope{Form: form, Data: payload}, nil)
}

// LogSubmitter accepts every submission and only logs it. It stands in when
// no forms endpoint is configured.
type LogSubmitter struct {
	Logger *zerolog.Logger
}

// Submit implements Submitter.
func (s LogSubmitter) Submit(ctx context.Context, form Form, payload any) error {
	logger := s.Logger
	if logger == nil {
		logger = &nopLogger
	}
	logger.Info().Str("form", string(form)).Msg("form accepted without delivery endpoint")
	return ctx.Err()
}
