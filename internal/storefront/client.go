package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/obs"
	"github.com/noah-isme/storefront-bundle/internal/resilience"
)

var nopLogger = zerolog.Nop()

// ErrInvalidVariant is returned for a blank variant id.
var ErrInvalidVariant = errors.New("storefront: variant id is required")

// CartItem is the line the commerce API returns from /cart/add.js.
type CartItem struct {
	ID        int64  `json:"id"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// Cart is the subset of the commerce cart API used by the handlers.
type Cart interface {
	AddItem(ctx context.Context, variantID string, quantity int) (CartItem, error)
	ItemCount(ctx context.Context) (int, error)
}

type sessionKey struct{}

// WithSession attaches the shopper's cookie header so cart calls act on their
// cart rather than an anonymous one.
func WithSession(ctx context.Context, cookieHeader string) context.Context {
	return context.WithValue(ctx, sessionKey{}, cookieHeader)
}

// SessionFrom returns the cookie header stored by WithSession.
func SessionFrom(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey{}).(string)
	return v
}

// Client talks to the storefront's AJAX cart endpoints.
type Client struct {
	HTTP    resilience.HTTPClient
	BaseURL string
	Logger  *zerolog.Logger
}

func (c *Client) log() *zerolog.Logger {
	if c.Logger == nil {
		return &nopLogger
	}
	return c.Logger
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := SessionFrom(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	return req, nil
}

// AddItem posts {id, quantity} to /cart/add.js. A quantity below 1 adds one unit.
func (c *Client) AddItem(ctx context.Context, variantID string, quantity int) (CartItem, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return CartItem{}, ErrInvalidVariant
	}
	if quantity < 1 {
		quantity = 1
	}
	payload, err := json.Marshal(addRequest{ID: variantLiteral(variantID), Quantity: quantity})
	if err != nil {
		return CartItem{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/cart/add.js", payload)
	if err != nil {
		return CartItem{}, err
	}
	var item CartItem
	err = c.do(ctx, req, &item)
	recordResult(obs.CartAddTotal, err)
	if err != nil {
		c.log().Error().Err(err).Str("variant_id", variantID).Msg("add to cart failed")
		return CartItem{}, fmt.Errorf("add item %s: %w", variantID, err)
	}
	return item, nil
}

// ItemCount reads item_count from /cart.js.
func (c *Client) ItemCount(ctx context.Context) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/cart.js", nil)
	if err != nil {
		return 0, err
	}
	var cart struct {
		ItemCount int `json:"item_count"`
	}
	err = c.do(ctx, req, &cart)
	recordResult(obs.CartCountTotal, err)
	if err != nil {
		c.log().Warn().Err(err).Msg("cart count failed")
		return 0, fmt.Errorf("cart count: %w", err)
	}
	return cart.ItemCount, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

type addRequest struct {
	ID       json.RawMessage `json:"id"`
	Quantity int             `json:"quantity"`
}

// variantLiteral keeps numeric variant ids as JSON numbers.
func variantLiteral(id string) json.RawMessage {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.RawMessage(id)
	}
	quoted, _ := json.Marshal(id)
	return quoted
}
