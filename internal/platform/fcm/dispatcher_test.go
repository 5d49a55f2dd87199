package fcm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls int
	errs  []error
	last  *messaging.Message
}

func (f *fakeClient) Send(_ context.Context, msg *messaging.Message) (string, error) {
	f.calls++
	f.last = msg
	if f.calls <= len(f.errs) {
		return "", f.errs[f.calls-1]
	}
	return "projects/p/messages/1", nil
}

func newTestDispatcher(c Client) *Dispatcher {
	return NewDispatcher(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_SendSucceedsFirstTry(t *testing.T) {
	client := &fakeClient{}
	d := newTestDispatcher(client)

	err := d.Send(context.Background(), "T1", "Order Notification", "Order 42 matched.")

	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "T1", client.last.Token)
	assert.Equal(t, "Order Notification", client.last.Notification.Title)
	assert.Equal(t, "Order 42 matched.", client.last.Notification.Body)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	client := &fakeClient{errs: []error{
		errors.New("unavailable"),
		errors.New("unavailable"),
	}}
	d := newTestDispatcher(client)

	err := d.Send(context.Background(), "T1", "t", "b")

	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestDispatcher_GivesUpAfterThreeAttempts(t *testing.T) {
	transient := errors.New("unavailable")
	client := &fakeClient{errs: []error{transient, transient, transient, transient}}
	d := newTestDispatcher(client)

	err := d.Send(context.Background(), "T1", "t", "b")

	require.Error(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestDispatcher_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{errs: []error{errors.New("unavailable")}}
	d := newTestDispatcher(client)

	err := d.Send(ctx, "T1", "t", "b")

	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}
