package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// Rate is a request budget per window.
type Rate struct {
	Max    int
	Window time.Duration
}

// Disabled reports whether the rate allows unlimited requests.
func (r Rate) Disabled() bool { return r.Max <= 0 || r.Window <= 0 }

// ParseRate reads the "<limit>-<period>" form, e.g. "5-M" or "100-H".
// "off" and the empty string disable limiting.
func ParseRate(value string) (Rate, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "off") {
		return Rate{}, nil
	}
	r, err := limiter.NewRateFromFormatted(value)
	if err != nil {
		return Rate{}, fmt.Errorf("rate %q: %w", value, err)
	}
	return Rate{Max: int(r.Limit), Window: r.Period}, nil
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts an event for key and decides whether it fits the rate.
type Limiter interface {
	Allow(ctx context.Context, key string, rate Rate) (Decision, error)
}
