package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

func TestSubmitRoomAScenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	first := f.submit(t, room, between(monday(10, 0), monday(11, 0)))
	assert.Equal(t, model.BookingStatusConfirmed, first.Status)
	require.NotNil(t, first.ConfirmedAt)

	overlap := f.submit(t, room, between(monday(10, 30), monday(11, 30)))
	assert.Equal(t, model.BookingStatusRejected, overlap.Status)
	assert.Equal(t, string(model.ReasonCapacityExceeded), overlap.StatusReason)

	evening := f.submit(t, room, between(monday(18, 0), monday(19, 0)))
	assert.Equal(t, model.BookingStatusRejected, evening.Status)
	assert.Equal(t, string(model.ReasonOutsideAvailability), evening.StatusReason)

	_, err := f.resources.AddBlackoutPeriod(ctx, room.ID, "Christmas",
		time.Date(2030, 12, 25, 0, 0, 0, 0, time.UTC), time.Date(2030, 12, 26, 0, 0, 0, 0, time.UTC), "holiday")
	require.NoError(t, err)
	christmas := f.submit(t, room, between(
		time.Date(2030, 12, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2030, 12, 25, 11, 0, 0, 0, time.UTC),
	))
	assert.Equal(t, model.BookingStatusRejected, christmas.Status)
	assert.Equal(t, string(model.ReasonBlackout), christmas.StatusReason)

	_, err = f.bookings.Cancel(ctx, first.ID, "alice", "moved")
	require.NoError(t, err)
	retry := f.submit(t, room, between(monday(10, 30), monday(11, 30)))
	assert.Equal(t, model.BookingStatusConfirmed, retry.Status, "cancellation releases capacity")
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{
			name: "end before start",
			req:  SubmitRequest{ResourceID: room.ID, Requester: "a", Interval: between(monday(11, 0), monday(10, 0))},
			want: model.ErrValidation,
		},
		{
			name: "empty interval",
			req:  SubmitRequest{ResourceID: room.ID, Requester: "a", Interval: between(monday(10, 0), monday(10, 0))},
			want: model.ErrValidation,
		},
		{
			name: "start in the past",
			req:  SubmitRequest{ResourceID: room.ID, Requester: "a", Interval: between(clockNow.Add(-time.Hour), clockNow)},
			want: model.ErrValidation,
		},
		{
			name: "unknown priority",
			req:  SubmitRequest{ResourceID: room.ID, Requester: "a", Interval: between(monday(10, 0), monday(11, 0)), Priority: "asap"},
			want: model.ErrValidation,
		},
		{
			name: "unknown resource",
			req:  SubmitRequest{ResourceID: uuid.New(), Requester: "a", Interval: between(monday(10, 0), monday(11, 0))},
			want: model.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Submit(ctx, tt.req, "a")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	all, err := f.bookings.List(ctx, model.BookingFilter{ResourceID: &room.ID})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitWithinGraceIsAccepted(t *testing.T) {
	f := newFixture(t)
	room, err := f.resources.CreateResource(context.Background(), ResourceInput{Name: "Always open", Capacity: 1})
	require.NoError(t, err)

	b := f.submit(t, room, between(clockNow.Add(-time.Minute), clockNow.Add(time.Hour)))
	assert.Equal(t, model.BookingStatusPending, b.Status)
}

func TestConcurrentSubmitsNeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, "Lab", 3, false)

	const workers = 24
	var wg sync.WaitGroup
	results := make([]*model.BookingRequest, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.bookings.Submit(ctx, SubmitRequest{
				ResourceID: room.ID,
				Requester:  "load",
				Interval:   between(monday(13, 0), monday(14, 0)),
			}, "load")
		}()
	}
	wg.Wait()

	admitted := 0
	for i := range workers {
		require.NoError(t, errs[i])
		if results[i].Status != model.BookingStatusRejected {
			admitted++
		} else {
			assert.Equal(t, string(model.ReasonCapacityExceeded), results[i].StatusReason)
		}
	}
	assert.Equal(t, 3, admitted)

	used, err := f.bookings.CapacityUsed(ctx, room.ID, between(monday(13, 0), monday(14, 0)))
	require.NoError(t, err)
	assert.Equal(t, 3, used)
	conflict, err := f.bookings.HasConflict(ctx, room.ID, between(monday(13, 30), monday(15, 0)), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, conflict)
}

func TestLifecycleAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	b := f.submit(t, room, between(monday(9, 0), monday(12, 0)))
	require.Equal(t, model.BookingStatusPending, b.Status, "three hours is above the auto-approval limit")

	_, err := f.bookings.Start(ctx, b.ID, "bob")
	var terr *model.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
	unchanged, err := f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, unchanged.Status)

	for _, step := range []func(context.Context, uuid.UUID, string) (*model.BookingRequest, error){
		f.bookings.Confirm, f.bookings.Start, f.bookings.Complete,
	} {
		_, err := step(ctx, b.ID, "bob")
		require.NoError(t, err)
	}

	_, err = f.bookings.Cancel(ctx, b.ID, "bob", "too late")
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	done, err := f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, done.Status)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.CancelledAt)

	history, err := f.bookings.History(ctx, b.ID)
	require.NoError(t, err)
	var got []model.BookingStatus
	for _, e := range history {
		got = append(got, e.ToStatus)
	}
	assert.Equal(t, []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusInProgress,
		model.BookingStatusCompleted,
	}, got)
	assert.Equal(t, "bob", history[len(history)-1].Actor)
	assert.Len(t, f.events.For(b.ID), 4)

	_, err = f.bookings.History(ctx, uuid.New())
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRejectOnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	confirmed := f.submit(t, room, between(monday(10, 0), monday(11, 0)))
	_, err := f.bookings.Reject(ctx, confirmed.ID, "bob", "no")
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	pending := f.submit(t, room, between(monday(13, 0), monday(16, 0)))
	rejected, err := f.bookings.Reject(ctx, pending.ID, "bob", "no budget")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, rejected.Status)
	assert.Equal(t, "no budget", rejected.StatusReason)
}

func TestConfirmRechecksAdmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	b := f.submit(t, room, between(monday(9, 0), monday(12, 0)))
	require.Equal(t, model.BookingStatusPending, b.Status)

	_, err := f.resources.AddBlackoutPeriod(ctx, room.ID, "", monday(0, 0), monday(23, 0), "maintenance")
	require.NoError(t, err)

	_, err = f.bookings.Confirm(ctx, b.ID, "bob")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))
	assert.True(t, errors.Is(err, model.ErrBlackout))

	still, err := f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, still.Status)
}

func TestOriginHelpers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	submit := func(iv model.Interval, ref string) *model.BookingRequest {
		b, err := f.bookings.Submit(ctx, SubmitRequest{
			ResourceID:    room.ID,
			Requester:     "workflow",
			Interval:      iv,
			OriginService: "workflow",
			OriginRef:     ref,
		}, "workflow")
		require.NoError(t, err)
		return b
	}
	first := submit(between(monday(9, 0), monday(10, 0)), "item-1")
	second := submit(between(monday(11, 0), monday(12, 0)), "item-2")
	require.Equal(t, model.BookingStatusConfirmed, first.Status)

	completed, err := f.bookings.CompleteByOrigin(ctx, "workflow", "item-1", "workflow")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, model.BookingStatusCompleted, completed[0].Status)

	cancelled, err := f.bookings.CancelByOrigin(ctx, "workflow", "item-2", "workflow", "")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, second.ID, cancelled[0].ID)
	assert.Equal(t, "origin cancelled", cancelled[0].StatusReason)

	evts := f.events.For(second.ID)
	require.NotEmpty(t, evts)
	last := evts[len(evts)-1]
	assert.Equal(t, "cancelled", last.ToStatus)
	assert.Equal(t, "cancelled", last.ExternalStatus)
	assert.Equal(t, "item-2", last.OriginRef)

	_, err = f.bookings.CancelByOrigin(ctx, "", "item-2", "workflow", "")
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	f.submit(t, room, between(monday(10, 0), monday(11, 0)))
	f.submit(t, room, between(monday(18, 0), monday(19, 0)))

	confirmed, err := f.bookings.List(ctx, model.BookingFilter{
		ResourceID: &room.ID,
		Statuses:   []model.BookingStatus{model.BookingStatusConfirmed},
	})
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)

	_, err = f.bookings.List(ctx, model.BookingFilter{Statuses: []model.BookingStatus{"lost"}})
	assert.True(t, errors.Is(err, model.ErrValidation))
}
