package bundle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

// MaxQuantity bounds a single line's quantity, matching the cart add limit.
const MaxQuantity = 999

// ErrInvalidQuantity is returned when a quantity is not an integer in 1..MaxQuantity.
var ErrInvalidQuantity = fmt.Errorf("quantity must be an integer between 1 and %d", MaxQuantity)

// ErrInvalidProduct is returned when a product identifier is blank.
var ErrInvalidProduct = errors.New("product id is required")

// SelectionEntry is one chosen product line.
type SelectionEntry = pricing.Line

// Selection holds the chosen bundle lines for a single page session. It is
// owned by one caller and is not safe for concurrent mutation.
type Selection struct {
	entries  []SelectionEntry
	onChange func()
}

// NewSelection returns an empty selection. onChange, when non-nil, runs after
// every mutation that alters the selection.
func NewSelection(onChange func()) *Selection {
	return &Selection{onChange: onChange}
}

// Add inserts productID with quantity 1. Adding a product already present is a no-op.
func (s *Selection) Add(productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrInvalidProduct
	}
	if s.index(productID) >= 0 {
		return nil
	}
	s.entries = append(s.entries, SelectionEntry{ProductID: productID, Quantity: 1})
	s.changed()
	return nil
}

// Remove deletes productID if present.
func (s *Selection) Remove(productID string) {
	i := s.index(strings.TrimSpace(productID))
	if i < 0 {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.changed()
}

// SetQuantity updates the quantity of an existing line. Unknown products are
// ignored because UI events can arrive after the line was toggled off.
func (s *Selection) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return fmt.Errorf("%s: %d: %w", productID, quantity, ErrInvalidQuantity)
	}
	i := s.index(strings.TrimSpace(productID))
	if i < 0 {
		return nil
	}
	if s.entries[i].Quantity == quantity {
		return nil
	}
	s.entries[i].Quantity = quantity
	s.changed()
	return nil
}

// Contains reports whether productID is selected.
func (s *Selection) Contains(productID string) bool {
	return s.index(strings.TrimSpace(productID)) >= 0
}

// Len returns the number of distinct product lines.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// TotalItemCount returns the sum of quantities across all lines.
func (s *Selection) TotalItemCount() int {
	if s == nil {
		return 0
	}
	var total int
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

// Entries returns a copy of the selected lines in insertion order.
func (s *Selection) Entries() []SelectionEntry {
	if s == nil {
		return nil
	}
	out := make([]SelectionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Selection) index(productID string) int {
	if s == nil {
		return -1
	}
	for i, e := range s.entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Selection) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// ParseQuantity validates raw quantity input from a form field.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	q, err := strconv.Atoi(raw)
	if err != nil || q <= 0 || q > MaxQuantity {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidQuantity)
	}
	return q, nil
}
