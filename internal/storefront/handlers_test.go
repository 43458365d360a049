package storefront_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/notify"
	"github.com/noah-isme/storefront-bundle/internal/storefront"
)

type fakeCart struct {
	addErr   error
	countErr error
	count    int
	session  string
	added    []string
}

func (f *fakeCart) AddItem(ctx context.Context, variantID string, quantity int) (storefront.CartItem, error) {
	f.session = storefront.SessionFrom(ctx)
	if f.addErr != nil {
		return storefront.CartItem{}, f.addErr
	}
	f.added = append(f.added, variantID)
	f.count += quantity
	return storefront.CartItem{VariantID: 7, Quantity: quantity}, nil
}

func (f *fakeCart) ItemCount(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func TestAddItemHandlerSuccess(t *testing.T) {
	cart := &fakeCart{count: 1}
	center := notify.NewCenter(nil)
	h := &storefront.Handler{Cart: cart, Toasts: center}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"variantId":"7","quantity":2}`))
	req.Header.Set("Cookie", "cart=xyz")
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Item  storefront.CartItem `json:"item"`
			Badge storefront.Badge    `json:"badge"`
			Toast notify.Toast        `json:"toast"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Data.Item.Quantity)
	require.Equal(t, storefront.BadgeFor(3), body.Data.Badge)
	require.Equal(t, notify.KindSuccess, body.Data.Toast.Kind)
	require.Equal(t, storefront.MsgAdded, body.Data.Toast.Message)
	require.Equal(t, "cart=xyz", cart.session)

	require.Len(t, center.Active(common.ShopperKey(req), time.Now()), 1)
	require.Empty(t, center.Active("ip:192.0.2.1", time.Now()), "toast belongs to the cart session")
}

func TestAddItemHandlerDefaultsQuantity(t *testing.T) {
	cart := &fakeCart{}
	h := &storefront.Handler{Cart: cart}
	rec := httptest.NewRecorder()
	h.AddItem(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"variantId":"7"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, cart.count)
}

func TestAddItemHandlerFailure(t *testing.T) {
	center := notify.NewCenter(nil)
	h := &storefront.Handler{Cart: &fakeCart{addErr: errors.New("boom")}, Toasts: center}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"variantId":"7"}`))
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "CART_ADD_FAILED")
	require.Contains(t, rec.Body.String(), storefront.MsgAddFailed)
	active := center.Active(common.ShopperKey(req), time.Now())
	require.Len(t, active, 1)
	require.Equal(t, notify.KindError, active[0].Kind)
}

func TestAddItemHandlerValidation(t *testing.T) {
	h := &storefront.Handler{Cart: &fakeCart{}}
	for _, payload := range []string{`{`, `{"quantity":1}`, `{"variantId":"7","quantity":-1}`} {
		rec := httptest.NewRecorder()
		h.AddItem(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload)))
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestBadgeHandler(t *testing.T) {
	h := &storefront.Handler{Cart: &fakeCart{count: 4}}
	rec := httptest.NewRecorder()
	h.Badge(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/badge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"visible":true,"count":4,"text":"4"}}`, rec.Body.String())

	h = &storefront.Handler{Cart: &fakeCart{countErr: errors.New("down")}}
	rec = httptest.NewRecorder()
	h.Badge(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/badge", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
