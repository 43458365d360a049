package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/lock"
	"github.com/noah-isme/storefront-bundle/internal/notify"
	"github.com/noah-isme/storefront-bundle/internal/obs"
)

var nopLogger = zerolog.Nop()

// ErrBusy is returned while the same form is already being submitted by the
// same client.
var ErrBusy = errors.New("forms: submission already in progress")

// ErrInvalid wraps payload validation failures.
var ErrInvalid = errors.New("forms: invalid submission")

// Form names a storefront form.
type Form string

const (
	FormNewsletter Form = "newsletter"
	FormContact    Form = "contact"
)

// NewsletterRequest is the newsletter signup payload.
type NewsletterRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ContactRequest is the contact form payload.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
}

type outcome struct {
	success string
	failure string
}

var messages = map[Form]outcome{
	FormNewsletter: {success: "Successfully subscribed to newsletter!", failure: "Failed to subscribe. Please try again."},
	FormContact:    {success: "Message sent successfully!", failure: "Failed to send message. Please try again."},
}

// SuccessMessage returns the toast text for a delivered submission.
func SuccessMessage(f Form) string { return messages[f].success }

// FailureMessage returns the toast text for a failed submission.
func FailureMessage(f Form) string { return messages[f].failure }

// Locker guards a key across API instances. lock.Locker implements it.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service validates and delivers form submissions. It allows one in-flight
// submission per form and client key; Lock extends that guard to every
// instance sharing the same Redis.
type Service struct {
	Submitter Submitter
	Toasts    *notify.Center
	Validate  *validator.Validate
	Logger    *zerolog.Logger
	Lock      Locker
	LockTTL   time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

func (s *Service) validate() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	return defaultValidator
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger == nil {
		return &nopLogger
	}
	return s.Logger
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// Busy reports whether form is being submitted for clientKey.
func (s *Service) Busy(form Form, clientKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[string(form)+"|"+clientKey]
	return busy
}

// Newsletter submits a newsletter signup.
func (s *Service) Newsletter(ctx context.Context, clientKey string, req NewsletterRequest) (notify.Toast, error) {
	req.Email = strings.TrimSpace(req.Email)
	return s.submit(ctx, FormNewsletter, clientKey, req)
}

// Contact submits a contact message.
func (s *Service) Contact(ctx context.Context, clientKey string, req ContactRequest) (notify.Toast, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	return s.submit(ctx, FormContact, clientKey, req)
}

func (s *Service) submit(ctx context.Context, form Form, clientKey string, payload any) (notify.Toast, error) {
	if err := s.validate().Struct(payload); err != nil {
		record(form, "invalid")
		return notify.Toast{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	key := string(form) + "|" + clientKey
	if !s.acquire(key) {
		record(form, "busy")
		return notify.Toast{}, ErrBusy
	}
	defer s.release(key)

	if s.Submitter == nil {
		record(form, "error")
		return s.show(clientKey, notify.KindError, FailureMessage(form)), errors.New("forms: submitter not configured")
	}
	err := s.deliver(ctx, key, form, payload)
	if errors.Is(err, lock.ErrLocked) {
		record(form, "busy")
		return notify.Toast{}, ErrBusy
	}
	if err != nil {
		record(form, "error")
		s.log().Error().Err(err).Str("form", string(form)).Msg("form submission failed")
		return s.show(clientKey, notify.KindError, FailureMessage(form)), fmt.Errorf("submit %s: %w", form, err)
	}
	record(form, "ok")
	s.log().Info().Str("form", string(form)).Msg("form submitted")
	return s.show(clientKey, notify.KindSuccess, SuccessMessage(form)), nil
}

func (s *Service) deliver(ctx context.Context, key string, form Form, payload any) error {
	if s.Lock == nil {
		return s.Submitter.Submit(ctx, form, payload)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return s.Lock.TryWithLock(ctx, "form:"+key, ttl, func(ctx context.Context) error {
		return s.Submitter.Submit(ctx, form, payload)
	})
}

func (s *Service) show(owner string, kind notify.Kind, msg string) notify.Toast {
	if s.Toasts == nil {
		return notify.Toast{Owner: owner, Kind: kind, Message: msg}
	}
	return s.Toasts.Show(owner, kind, msg)
}

func record(form Form, result string) {
	if obs.FormSubmissionsTotal != nil {
		obs.FormSubmissionsTotal.WithLabelValues(string(form), result).Inc()
	}
}
