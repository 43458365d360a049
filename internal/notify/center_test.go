package notify_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/notify"
)

func TestParseKind(t *testing.T) {
	require.Equal(t, notify.KindSuccess, notify.ParseKind("Success"))
	require.Equal(t, notify.KindWarning, notify.ParseKind(" warning "))
	require.Equal(t, notify.KindInfo, notify.ParseKind("celebration"))
	require.Equal(t, notify.KindInfo, notify.ParseKind(""))
}

func TestToastPhaseBoundaries(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	toast := notify.Toast{CreatedAt: start}

	cases := []struct {
		offset time.Duration
		want   notify.Phase
	}{
		{0, notify.PhaseEntering},
		{99 * time.Millisecond, notify.PhaseEntering},
		{100 * time.Millisecond, notify.PhaseVisible},
		{2999 * time.Millisecond, notify.PhaseVisible},
		{3000 * time.Millisecond, notify.PhaseLeaving},
		{3299 * time.Millisecond, notify.PhaseLeaving},
		{3300 * time.Millisecond, notify.PhaseGone},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, toast.Phase(start.Add(tc.offset)), "offset %s", tc.offset)
	}
	require.Equal(t, start.Add(3300*time.Millisecond), toast.RemovedAt())
}

func TestCenterShowActivePrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	center := notify.NewCenter(nil).WithClock(func() time.Time { return now })

	first := center.Show("ip:203.0.113.7", "bogus", "  Item added to cart!  ")
	require.Equal(t, notify.KindInfo, first.Kind)
	require.Equal(t, "Item added to cart!", first.Message)
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	second := center.Error("ip:203.0.113.7", "Failed to add item to cart")
	require.NotEqual(t, first.ID, second.ID)

	require.Len(t, center.Active("ip:203.0.113.7", now), 2)
	require.Empty(t, center.Active("ip:198.51.100.1", now))
	later := now.Add(1500 * time.Millisecond)
	active := center.Active("ip:203.0.113.7", later)
	require.Len(t, active, 1)
	require.Equal(t, second.ID, active[0].ID)

	require.Equal(t, 1, center.Prune(later))
	require.Equal(t, 0, center.Prune(later))
	require.Equal(t, 1, center.Prune(later.Add(5*time.Second)))
	require.Empty(t, center.Active("ip:203.0.113.7", later))
}

func TestCenterConcurrentShow(t *testing.T) {
	center := notify.NewCenter(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			center.Success("cart:abc", "ok")
		}()
	}
	wg.Wait()
	require.Len(t, center.Active("cart:abc", time.Now()), 50)
}

func TestCenterListHandler(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	center := notify.NewCenter(nil).WithClock(func() time.Time { return now })
	center.Success("ip:10.0.0.1", "Message sent successfully!")
	now = now.Add(500 * time.Millisecond)

	list := func(remote string) []toastJSON {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		center.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []toastJSON `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Data
	}

	mine := list("10.0.0.1:5000")
	require.Len(t, mine, 1)
	require.Equal(t, "success", mine[0].Kind)
	require.Equal(t, "visible", mine[0].Phase)

	require.Empty(t, list("10.9.9.9:5000"))
}

type toastJSON struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Phase   string `json:"phase"`
}
