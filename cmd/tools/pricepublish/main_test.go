package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRunPublishesAndInvalidates(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	path := filepath.Join(t.TempDir(), "prices.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"currency":"eur","products":[{"productId":"honey","price":1500},{"productId":"ghee","price":"2200"}]}`), 0o600))

	url := "redis://" + mr.Addr()
	require.NoError(t, run(context.Background(), zerolog.Nop(), path, url, "", 0, false))

	raw, err := mr.Get("prices:EUR")
	require.NoError(t, err)
	require.JSONEq(t, `{"honey":1500,"ghee":2200}`, raw)

	require.NoError(t, run(context.Background(), zerolog.Nop(), "", url, "eur", 0, true))
	require.False(t, mr.Exists("prices:EUR"))
}

func TestRunRejectsBadRedisURL(t *testing.T) {
	require.Error(t, run(context.Background(), zerolog.Nop(), "", "not a url", "", 0, false))
}
