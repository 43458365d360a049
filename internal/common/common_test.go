package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/common"
)

func TestWriteErrorAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, common.NewAppError("BUSY", "form busy", http.StatusConflict, errors.New("inner")))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "BUSY", body.Error.Code)
	require.Equal(t, "form busy", body.Error.Message)
}

func TestWriteErrorPlainErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, errors.New("secret detail"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret detail")
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := common.NewAppError("X", "msg", 0, inner)
	require.ErrorIs(t, err, inner)
	require.Equal(t, "inner", err.Error())
}

func TestIdempotencyMiddleware(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	status := http.StatusCreated
	calls := 0
	handler := common.Idem{R: client}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/newsletter", nil)
		if key != "" {
			req.Header.Set(common.IdempotencyHeader, key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusCreated, send("k1"))
	require.Equal(t, http.StatusConflict, send("k1"))
	require.Equal(t, 1, calls)

	require.Equal(t, http.StatusCreated, send(""))
	require.Equal(t, http.StatusCreated, send(""))
	require.Equal(t, 3, calls)

	status = http.StatusBadGateway
	require.Equal(t, http.StatusBadGateway, send("k2"))
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send("k2"), "server failures release the key")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", common.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "unknown, 198.51.100.4")
	require.Equal(t, "198.51.100.4", common.ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", common.ClientIP(req))
}

func TestShopperKey(t *testing.T) {
	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "ip:192.0.2.1", common.ShopperKey(anon))

	a := httptest.NewRequest(http.MethodGet, "/", nil)
	a.AddCookie(&http.Cookie{Name: common.CartCookie, Value: "c1-token"})
	b := httptest.NewRequest(http.MethodGet, "/", nil)
	b.AddCookie(&http.Cookie{Name: common.CartCookie, Value: "c2-token"})

	keyA := common.ShopperKey(a)
	require.True(t, strings.HasPrefix(keyA, "cart:"))
	require.NotEqual(t, keyA, common.ShopperKey(b))
	require.Equal(t, keyA, common.ShopperKey(a))
}
