package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

func external(res *model.Resource, ref, status string, iv model.Interval) model.ExternalBooking {
	return model.ExternalBooking{
		ExternalSystem: "workflow",
		ExternalRef:    ref,
		ResourceID:     res.ID,
		Requester:      "workflow-bot",
		Title:          "Step " + ref,
		Interval:       iv,
		ExternalStatus: status,
		Payload:        map[string]any{"step": "review"},
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	ext := external(room, "item-7", "requested", between(monday(10, 0), monday(11, 0)))

	first, err := f.sync.Sync(ctx, ext)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, model.BookingStatusConfirmed, first.Booking.Status, "auto approval still applies")
	assert.Equal(t, "scheduled", first.ExternalStatus)
	assert.Equal(t, "workflow", first.Booking.OriginService)
	assert.Equal(t, "item-7", first.Booking.OriginRef)

	second, err := f.sync.Sync(ctx, ext)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	all, err := f.bookings.List(ctx, model.BookingFilter{OriginService: "workflow", OriginRef: "item-7"})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	linked, err := f.sync.Linked(ctx, "workflow", "item-7")
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, linked.Link.BookingID)
	assert.Equal(t, "requested", linked.Link.LastExternalStatus)
}

func TestSyncRedeliveryOfRejectedItemIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	ext := external(room, "item-x", "scheduled", between(monday(20, 0), monday(21, 0)))

	first, err := f.sync.Sync(ctx, ext)
	require.NoError(t, err)
	require.Equal(t, model.BookingStatusRejected, first.Booking.Status)
	assert.Equal(t, string(model.ReasonOutsideAvailability), first.Booking.StatusReason)

	for i := 0; i < 2; i++ {
		again, err := f.sync.Sync(ctx, ext)
		require.NoError(t, err, "redelivery %d", i+1)
		assert.Equal(t, first.Booking.ID, again.Booking.ID)
		assert.Equal(t, model.BookingStatusRejected, again.Booking.Status)
		assert.False(t, again.Changed)
	}

	_, err = f.sync.Sync(ctx, external(room, "item-x", "started", ext.Interval))
	assert.ErrorIs(t, err, model.ErrSyncConflict, "a new hint on a rejected booking still conflicts")
}

func TestSyncNeverRegressesFinishedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	iv := between(monday(10, 0), monday(11, 0))

	res, err := f.sync.Sync(ctx, external(room, "item-1", "done", iv))
	require.NoError(t, err)
	require.Equal(t, model.BookingStatusCompleted, res.Booking.Status)

	for _, stale := range []string{"requested", "scheduled", "started"} {
		_, err := f.sync.Sync(ctx, external(room, "item-1", stale, iv))
		assert.True(t, errors.Is(err, model.ErrSyncConflict), "%s: got %v", stale, err)
	}

	again, err := f.sync.Sync(ctx, external(room, "item-1", "completed", iv))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, again.Booking.Status)

	history, err := f.bookings.History(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, history[len(history)-1].ToStatus)
	assert.Equal(t, "sync:workflow", history[len(history)-1].Actor)
}

func TestSyncIgnoresHintBehindInternalState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	iv := between(monday(10, 0), monday(11, 0))

	created, err := f.sync.Sync(ctx, external(room, "item-2", "started", iv))
	require.NoError(t, err)
	require.Equal(t, model.BookingStatusInProgress, created.Booking.Status)

	res, err := f.sync.Sync(ctx, external(room, "item-2", "scheduled", iv))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusInProgress, res.Booking.Status)
	assert.Equal(t, "scheduled", res.Link.LastExternalStatus)
}

func TestSyncDeclinedApprovedWorkIsCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	iv := between(monday(10, 0), monday(11, 0))

	_, err := f.sync.Sync(ctx, external(room, "item-3", "scheduled", iv))
	require.NoError(t, err)
	res, err := f.sync.Sync(ctx, external(room, "item-3", "declined", iv))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, res.Booking.Status)
	assert.Equal(t, "cancelled", res.ExternalStatus)
}

func TestSyncIntervalChangeReadmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	t.Run("pending booking moved outside hours is rejected", func(t *testing.T) {
		created, err := f.sync.Sync(ctx, external(room, "long", "", between(monday(13, 0), monday(16, 0))))
		require.NoError(t, err)
		require.Equal(t, model.BookingStatusPending, created.Booking.Status)

		moved, err := f.sync.Sync(ctx, external(room, "long", "", between(monday(18, 0), monday(21, 0))))
		require.NoError(t, err)
		assert.True(t, moved.Changed)
		assert.Equal(t, model.BookingStatusRejected, moved.Booking.Status)
		assert.Equal(t, string(model.ReasonOutsideAvailability), moved.Booking.StatusReason)
	})

	t.Run("approved booking cannot move into a conflict", func(t *testing.T) {
		f.submit(t, room, between(monday(9, 0), monday(10, 0)))
		created, err := f.sync.Sync(ctx, external(room, "short", "", between(monday(11, 0), monday(12, 0))))
		require.NoError(t, err)
		require.Equal(t, model.BookingStatusConfirmed, created.Booking.Status)

		_, err = f.sync.Sync(ctx, external(room, "short", "", between(monday(9, 30), monday(10, 30))))
		assert.True(t, errors.Is(err, model.ErrConflict))
		assert.True(t, errors.Is(err, model.ErrCapacityExceeded))

		kept, err := f.bookings.Get(ctx, created.Booking.ID)
		require.NoError(t, err)
		assert.True(t, kept.Interval.Equal(between(monday(11, 0), monday(12, 0))))
	})
}

func TestSyncRejectsUnknownStatusAndResourceSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	other := f.room(t, "Room B", 1, true)
	iv := between(monday(10, 0), monday(11, 0))

	_, err := f.sync.Sync(ctx, external(room, "item-4", "lost", iv))
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = f.sync.Sync(ctx, external(room, "item-4", "", iv))
	require.NoError(t, err)
	_, err = f.sync.Sync(ctx, external(other, "item-4", "", iv))
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestSyncEventsCarryExternalStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	res, err := f.sync.Sync(ctx, external(room, "item-5", "", between(monday(10, 0), monday(11, 0))))
	require.NoError(t, err)

	evts := f.events.For(res.Booking.ID)
	require.Len(t, evts, 2)
	assert.Equal(t, "requested", evts[0].ExternalStatus)
	assert.Equal(t, "scheduled", evts[1].ExternalStatus)
	assert.Equal(t, "item-5", evts[1].OriginRef)
}

func TestSyncBatchKeepsGoing(t *testing.T) {
	f := newFixture(t)
	room := f.roomA(t)

	out := f.sync.SyncBatch(context.Background(), []model.ExternalBooking{
		external(room, "a", "", between(monday(9, 0), monday(10, 0))),
		external(room, "b", "lost", between(monday(10, 0), monday(11, 0))),
		external(room, "c", "", between(monday(11, 0), monday(12, 0))),
	})
	require.Len(t, out, 3)
	assert.NoError(t, out[0].Err)
	assert.Error(t, out[1].Err)
	assert.NoError(t, out[2].Err)
	assert.True(t, out[2].Result.Created)
}

func TestForwardPath(t *testing.T) {
	tests := []struct {
		from, to model.BookingStatus
		want     []model.BookingStatus
	}{
		{model.BookingStatusPending, model.BookingStatusCompleted, []model.BookingStatus{
			model.BookingStatusConfirmed, model.BookingStatusInProgress, model.BookingStatusCompleted,
		}},
		{model.BookingStatusConfirmed, model.BookingStatusInProgress, []model.BookingStatus{model.BookingStatusInProgress}},
		{model.BookingStatusPending, model.BookingStatusRejected, []model.BookingStatus{model.BookingStatusRejected}},
		{model.BookingStatusInProgress, model.BookingStatusRejected, []model.BookingStatus{model.BookingStatusCancelled}},
		{model.BookingStatusConfirmed, model.BookingStatusPending, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, forwardPath(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
