package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/pipeline"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticPrefs is a PreferenceSource with a fixed table; users not listed get
// defaults, like the real cache.
type staticPrefs map[string]notify.Preferences

func (s staticPrefs) GetBatch(_ context.Context, userIDs []string) map[string]notify.Preferences {
	out := make(map[string]notify.Preferences, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s[id]; ok {
			out[id] = p
		} else {
			out[id] = notify.DefaultPreferences()
		}
	}
	return out
}

func orderEvent(user string, ts int64, orderID uint64, status string) notify.Event {
	return notify.Event{
		UserID:    user,
		Type:      notify.TypeOrder,
		Timestamp: ts,
		Metadata:  notify.Metadata{Order: &notify.OrderMeta{OrderID: orderID, Status: status}},
	}
}

func txEvent(user string, ts int64, status string) notify.Event {
	return notify.Event{
		UserID:    user,
		Type:      notify.TypeTransaction,
		Timestamp: ts,
		Metadata: notify.Metadata{Transaction: &notify.TransactionMeta{
			ID: 1, Asset: "APT", Amount: "5", TradeType: notify.TradeAdd, Status: status,
		}},
	}
}

func TestGroupByUser_CoalescesBySecond(t *testing.T) {
	ctx := context.Background()
	events := []notify.Event{
		orderEvent("U1", 1700000000900, 42, "FILLED"),
		orderEvent("U1", 1700000000100, 42, "NEW"),
		orderEvent("U1", 1700000001100, 43, "NEW"),
	}

	grouped := pipeline.GroupByUser(ctx, events, staticPrefs{}, newTestLogger())

	require.Len(t, grouped, 2)

	first := grouped[pipeline.GroupKey{UserID: "U1", Second: 1700000000, Type: notify.TypeOrder}]
	require.Len(t, first, 2)
	// Stable sort by timestamp: the NEW event comes first despite arriving second.
	assert.Equal(t, "Order 42 placed successfully.", first[0].Message)
	assert.Equal(t, "Order 42 matched.", first[1].Message)
	assert.Equal(t, int64(1700000000900), first[1].Timestamp)

	second := grouped[pipeline.GroupKey{UserID: "U1", Second: 1700000001, Type: notify.TypeOrder}]
	require.Len(t, second, 1)
	assert.Equal(t, "Order 43 placed successfully.", second[0].Message)
}

func TestGroupByUser_Stability(t *testing.T) {
	ctx := context.Background()
	events := []notify.Event{
		orderEvent("U1", 1700000000100, 1, "NEW"),
		txEvent("U2", 1700000000100, "COMPLETED"),
		orderEvent("U1", 1700000000100, 2, "NEW"),
		txEvent("U1", 1700000000400, "FAILED"),
	}

	first := pipeline.GroupByUser(ctx, events, staticPrefs{}, newTestLogger())
	second := pipeline.GroupByUser(ctx, events, staticPrefs{}, newTestLogger())
	assert.Equal(t, first, second)
}

func TestGroupByUser_PreferenceFilter(t *testing.T) {
	ctx := context.Background()
	prefs := staticPrefs{
		"U2": {Announcement: true, Account: true, Campaign: true, Transaction: false},
	}
	events := []notify.Event{
		txEvent("U2", 1700000000100, "COMPLETED"),
		// Order is gated by the transaction toggle as well.
		orderEvent("U2", 1700000000200, 7, "NEW"),
		txEvent("U3", 1700000000100, "COMPLETED"),
	}

	grouped := pipeline.GroupByUser(ctx, events, prefs, newTestLogger())

	for key := range grouped {
		assert.NotEqual(t, "U2", key.UserID)
	}
	require.Len(t, grouped, 1)
}

func TestGroupByUser_SkipsUnsupportedWithoutFailing(t *testing.T) {
	ctx := context.Background()
	events := []notify.Event{
		orderEvent("U1", 1700000000100, 42, "FOO"),
		orderEvent("U1", 1700000000200, 42, "NEW"),
	}

	grouped := pipeline.GroupByUser(ctx, events, staticPrefs{}, newTestLogger())

	key := pipeline.GroupKey{UserID: "U1", Second: 1700000000, Type: notify.TypeOrder}
	require.Len(t, grouped[key], 1)
	assert.Equal(t, "Order 42 placed successfully.", grouped[key][0].Message)
}
