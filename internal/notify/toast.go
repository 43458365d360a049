package notify

import (
	"strings"
	"time"
)

// Kind selects the toast colour scheme.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// ParseKind normalises a kind name. Unknown names map to KindInfo.
func ParseKind(value string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return k
	default:
		return KindInfo
	}
}

// Lifecycle timings of a toast measured from its creation.
const (
	EnterDuration = 100 * time.Millisecond
	VisibleUntil  = 3 * time.Second
	LeaveDuration = 300 * time.Millisecond
)

// Phase is where a toast sits in its show/hide lifecycle.
type Phase int

const (
	PhaseEntering Phase = iota
	PhaseVisible
	PhaseLeaving
	PhaseGone
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseVisible:
		return "visible"
	case PhaseLeaving:
		return "leaving"
	default:
		return "gone"
	}
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Toast is a transient user-facing message.
type Toast struct {
	// Owner is the shopper key the toast is shown to.
	Owner     string    `json:"-"`
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Phase reports the lifecycle phase at now.
func (t Toast) Phase(now time.Time) Phase {
	elapsed := now.Sub(t.CreatedAt)
	switch {
	case elapsed < EnterDuration:
		return PhaseEntering
	case elapsed < VisibleUntil:
		return PhaseVisible
	case elapsed < VisibleUntil+LeaveDuration:
		return PhaseLeaving
	default:
		return PhaseGone
	}
}

// RemovedAt is the instant the toast leaves the screen for good.
func (t Toast) RemovedAt() time.Time {
	return t.CreatedAt.Add(VisibleUntil + LeaveDuration)
}
