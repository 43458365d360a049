package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// CartCookie is the commerce platform's cart session cookie.
const CartCookie = "cart"

// ClientIP returns the first valid address from X-Forwarded-For or X-Real-IP,
// falling back to the connection's remote address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

// ShopperKey identifies the shopper behind a request. Shoppers with a cart
// session are keyed by a digest of the cart token so that visitors behind one
// NAT address do not share limits; everyone else is keyed by client IP.
func ShopperKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	if c, err := r.Cookie(CartCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		sum := sha256.Sum256([]byte(c.Value))
		return "cart:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + ClientIP(r)
}
