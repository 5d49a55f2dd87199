package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sotatek-NgonVu/push-notify-service/internal/pipeline"
	"github.com/Sotatek-NgonVu/push-notify-service/pkg/notify"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Insert(ctx context.Context, n notify.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestPersister_CoalescesOrderEvents(t *testing.T) {
	ctx := context.Background()
	writer := new(mockWriter)

	var inserted []notify.Notification
	writer.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = append(inserted, args.Get(1).(notify.Notification))
	}).Return(nil)

	p := pipeline.NewPersister(writer, staticPrefs{}, newTestLogger())
	err := p.HandleBatch(ctx, []notify.Event{
		orderEvent("U1", 1700000000100, 42, "NEW"),
		orderEvent("U1", 1700000000900, 42, "FILLED"),
	})
	require.NoError(t, err)

	require.Len(t, inserted, 1)
	rec := inserted[0]
	assert.Equal(t, "U1", rec.UserID)
	assert.Equal(t, "ORDER", rec.Type)
	assert.Equal(t, "Order Notification", rec.Title)
	assert.Equal(t, "Order 42 matched.", rec.Message)
	assert.Equal(t, time.UnixMilli(1700000000900).UTC(), rec.CreatedAt)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.False(t, rec.IsRead)
}

func TestPersister_WritesEveryTransactionEvent(t *testing.T) {
	ctx := context.Background()
	writer := new(mockWriter)
	writer.On("Insert", mock.Anything, mock.Anything).Return(nil)

	p := pipeline.NewPersister(writer, staticPrefs{}, newTestLogger())
	err := p.HandleBatch(ctx, []notify.Event{
		txEvent("U1", 1700000000100, "COMPLETED"),
		txEvent("U1", 1700000000400, "FAILED"),
	})
	require.NoError(t, err)

	writer.AssertNumberOfCalls(t, "Insert", 2)
}

func TestPersister_FilteredBatchCommitsWithoutWrites(t *testing.T) {
	ctx := context.Background()
	writer := new(mockWriter)
	prefs := staticPrefs{
		"U2": {Announcement: true, Account: true, Campaign: true, Transaction: false},
	}

	p := pipeline.NewPersister(writer, prefs, newTestLogger())
	err := p.HandleBatch(ctx, []notify.Event{txEvent("U2", 1700000000100, "COMPLETED")})

	require.NoError(t, err)
	writer.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestPersister_EmptyBatchIsANoOp(t *testing.T) {
	writer := new(mockWriter)
	p := pipeline.NewPersister(writer, staticPrefs{}, newTestLogger())

	require.NoError(t, p.HandleBatch(context.Background(), nil))
	writer.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// A single failed insert must not abort the batch: the remaining records
// still get written and the handler still reports success.
func TestPersister_InsertFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	writer := new(mockWriter)
	writer.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	p := pipeline.NewPersister(writer, staticPrefs{}, newTestLogger())
	err := p.HandleBatch(ctx, []notify.Event{
		txEvent("U1", 1700000000100, "COMPLETED"),
		txEvent("U1", 1700000000400, "FAILED"),
	})

	require.NoError(t, err)
	writer.AssertNumberOfCalls(t, "Insert", 2)
}

func TestPersister_SkipsAnnouncementAndCampaign(t *testing.T) {
	ctx := context.Background()
	writer := new(mockWriter)

	ev := txEvent("U1", 1700000000100, "COMPLETED")
	ev.Type = notify.TypeAnnouncement

	p := pipeline.NewPersister(writer, staticPrefs{}, newTestLogger())
	require.NoError(t, p.HandleBatch(ctx, []notify.Event{ev}))
	writer.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
