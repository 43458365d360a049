package notify

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/obs"
)

var nopLogger = zerolog.Nop()

// Center keeps the toasts currently on screen, each scoped to the shopper it
// was raised for. It is shared by request handlers and safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
	logger *zerolog.Logger
}

// NewCenter returns an empty Center. A nil logger discards output.
func NewCenter(logger *zerolog.Logger) *Center {
	if logger == nil {
		logger = &nopLogger
	}
	return &Center{now: time.Now, logger: logger}
}

// WithClock replaces the time source.
func (c *Center) WithClock(now func() time.Time) *Center {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now != nil {
		c.now = now
	}
	return c
}

// Show queues a toast for owner and returns it. Expired toasts are pruned first.
func (c *Center) Show(owner string, kind Kind, message string) Toast {
	kind = ParseKind(string(kind))
	c.mu.Lock()
	now := c.now()
	c.pruneLocked(now)
	t := Toast{
		Owner:     owner,
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   strings.TrimSpace(message),
		CreatedAt: now,
	}
	c.toasts = append(c.toasts, t)
	c.mu.Unlock()

	if obs.NotificationsTotal != nil {
		obs.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	}
	c.logger.Debug().Str("toast_id", t.ID).Str("kind", string(kind)).Msg("toast shown")
	return t
}

// Success is Show(owner, KindSuccess, message).
func (c *Center) Success(owner, message string) Toast { return c.Show(owner, KindSuccess, message) }

// Error is Show(owner, KindError, message).
func (c *Center) Error(owner, message string) Toast { return c.Show(owner, KindError, message) }

// Active returns owner's toasts not yet gone at now, oldest first.
func (c *Center) Active(owner string, now time.Time) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, 0)
	for _, t := range c.toasts {
		if t.Owner == owner && t.Phase(now) != PhaseGone {
			out = append(out, t)
		}
	}
	return out
}

// Prune drops gone toasts and returns how many were removed.
func (c *Center) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(now)
}

func (c *Center) pruneLocked(now time.Time) int {
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if t.Phase(now) != PhaseGone {
			kept = append(kept, t)
		}
	}
	removed := len(c.toasts) - len(kept)
	for i := len(kept); i < len(c.toasts); i++ {
		c.toasts[i] = Toast{}
	}
	c.toasts = kept
	return removed
}

// ToastView is a toast with its phase resolved for rendering.
type ToastView struct {
	Toast
	Phase Phase `json:"phase"`
}

// List serves the requesting shopper's active toasts with their current phase.
func (c *Center) List(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	now := c.now()
	c.mu.Unlock()
	active := c.Active(common.ShopperKey(r), now)
	views := make([]ToastView, 0, len(active))
	for _, t := range active {
		views = append(views, ToastView{Toast: t, Phase: t.Phase(now)})
	}
	common.Data(w, http.StatusOK, views)
}
