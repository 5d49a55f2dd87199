package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

// 2023-11-14 22:13:20 UTC
const testMillis = int64(1700000000000)

func TestRenderOrder(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{"NEW", "Order 42 placed successfully."},
		{"FILLED", "Order 42 matched."},
		{"CANCELLED", "Order 42 cancelled."},
		{"REJECTED", "Order 42 rejected."},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			m := notify.Metadata{Order: &notify.OrderMeta{OrderID: 42, Status: tc.status}}
			got, err := m.Render(testMillis)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("unsupported status", func(t *testing.T) {
		m := notify.Metadata{Order: &notify.OrderMeta{OrderID: 42, Status: "FOO"}}
		_, err := m.Render(testMillis)
		require.ErrorIs(t, err, notify.ErrUnsupported)
	})
}

func TestRenderTransaction(t *testing.T) {
	meta := func(tt notify.TradeType, status string) notify.Metadata {
		return notify.Metadata{Transaction: &notify.TransactionMeta{
			ID: 7, Asset: "SUI", Amount: "12.5", TradeType: tt, Status: status,
		}}
	}

	t.Run("deposit", func(t *testing.T) {
		got, err := meta(notify.TradeAdd, "COMPLETED").Render(testMillis)
		require.NoError(t, err)
		assert.Equal(t, "You have successfully deposit 12.5 SUI at 2023-11-14 22:13:20", got)
	})

	t.Run("withdraw carries the security advisory", func(t *testing.T) {
		for _, tt := range []notify.TradeType{notify.TradeRemove, notify.TradeBuy, notify.TradeSell} {
			got, err := meta(tt, "COMPLETED").Render(testMillis)
			require.NoError(t, err)
			assert.Equal(t, "You have successfully withdraw 12.5 SUI at 2023-11-14 22:13:20. "+
				"If you do not recognize this activity, please contact us immediately.", got)
		}
	})

	t.Run("failed and rejected share a template", func(t *testing.T) {
		for _, status := range []string{"FAILED", "REJECTED"} {
			got, err := meta(notify.TradeBuy, status).Render(testMillis)
			require.NoError(t, err)
			assert.Equal(t, "Your BUY transaction of 12.5 SUI failed at 2023-11-14 22:13:20.", got)
		}
	})

	t.Run("unsupported status", func(t *testing.T) {
		_, err := meta(notify.TradeBuy, "PENDING").Render(testMillis)
		require.ErrorIs(t, err, notify.ErrUnsupported)
	})
}

func TestRenderAccount(t *testing.T) {
	kyc := notify.KycApproved
	mfa := notify.MfaDisabled
	pw := notify.PasswordChange

	t.Run("success branches on activity", func(t *testing.T) {
		m := notify.Metadata{Account: &notify.AccountMeta{
			Activity: notify.Activity{Kyc: &kyc},
			Status:   notify.ActionSuccess,
		}}
		got, err := m.Render(testMillis)
		require.NoError(t, err)
		assert.Equal(t, "Your identity verification was approved on 2023-11-14 22:13:20.", got)
	})

	t.Run("sensitive success carries the advisory", func(t *testing.T) {
		m := notify.Metadata{Account: &notify.AccountMeta{
			Activity: notify.Activity{Mfa: &mfa},
			Status:   notify.ActionSuccess,
		}}
		got, err := m.Render(testMillis)
		require.NoError(t, err)
		assert.Contains(t, got, "Two-factor authentication was disabled on 2023-11-14 22:13:20.")
		assert.Contains(t, got, "please contact us immediately")
	})

	t.Run("failed shares one template", func(t *testing.T) {
		m := notify.Metadata{Account: &notify.AccountMeta{
			Activity: notify.Activity{Password: &pw},
			Status:   notify.ActionFailed,
		}}
		got, err := m.Render(testMillis)
		require.NoError(t, err)
		assert.Equal(t, "Your request to change password failed on 2023-11-14 22:13:20. "+
			"If you do not recognize this activity, please contact us immediately.", got)
	})
}

func TestRenderIsDeterministic(t *testing.T) {
	ev := notify.Event{
		UserID:    "u1",
		Type:      notify.TypeTransaction,
		Timestamp: testMillis,
		Metadata: notify.Metadata{Transaction: &notify.TransactionMeta{
			ID: 1, Asset: "APT", Amount: "3", TradeType: notify.TradeAdd, Status: "COMPLETED",
		}},
	}
	first, err := ev.Render()
	require.NoError(t, err)
	second, err := ev.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTitlesAndLabels(t *testing.T) {
	assert.Equal(t, "Order Notification", notify.TypeOrder.Title())
	assert.Equal(t, "Transaction Notification", notify.TypeTransaction.Title())
	assert.Equal(t, "ACCOUNT", notify.TypeAccount.Label())

	parsed, err := notify.ParseType("CAMPAIGN")
	require.NoError(t, err)
	assert.Equal(t, notify.TypeCampaign, parsed)

	_, err = notify.ParseType("BOGUS")
	require.Error(t, err)
}

func TestPreferencesGateOrderByTransaction(t *testing.T) {
	p := notify.DefaultPreferences()
	p.Transaction = false
	assert.False(t, p.Allows(notify.TypeOrder))
	assert.False(t, p.Allows(notify.TypeTransaction))
	assert.True(t, p.Allows(notify.TypeAccount))
}

// The metadata union must keep its externally tagged wire shape: a
// single-entry map keyed by the variant name.
func TestMetadataWireShape(t *testing.T) {
	ev := notify.Event{
		UserID:    "u1",
		Type:      notify.TypeOrder,
		Timestamp: testMillis,
		Metadata:  notify.Metadata{Order: &notify.OrderMeta{OrderID: 9, Status: "NEW"}},
	}

	raw, err := msgpack.Marshal(ev)
	require.NoError(t, err)

	var loose map[string]any
	require.NoError(t, msgpack.Unmarshal(raw, &loose))
	meta, ok := loose["metadata"].(map[string]any)
	require.True(t, ok)
	require.Len(t, meta, 1)
	_, ok = meta["Order"]
	assert.True(t, ok)

	var back notify.Event
	require.NoError(t, msgpack.Unmarshal(raw, &back))
	require.NotNil(t, back.Metadata.Order)
	assert.Equal(t, uint64(9), back.Metadata.Order.OrderID)
	assert.Nil(t, back.Metadata.Transaction)
}
