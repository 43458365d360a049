package storefront

import "strconv"

// Badge is the header cart-count bubble state.
type Badge struct {
	Visible bool   `json:"visible"`
	Count   int    `json:"count"`
	Text    string `json:"text"`
}

// BadgeFor hides the bubble for an empty cart and shows the count otherwise.
func BadgeFor(count int) Badge {
	if count <= 0 {
		return Badge{}
	}
	return Badge{Visible: true, Count: count, Text: strconv.Itoa(count)}
}
