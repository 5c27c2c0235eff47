package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

func TestSuggestNearestFreeSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	f.submit(t, room, between(monday(10, 0), monday(11, 0)))

	got, err := f.suggest.Suggest(ctx, room.ID, SuggestRequest{
		Preferred: between(monday(10, 0), monday(11, 0)),
		MaxCount:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Interval{
		between(monday(11, 0), monday(12, 0)),
		between(monday(9, 0), monday(10, 0)),
	}, got)

	seq, err := f.suggest.Alternatives(ctx, room.ID, SuggestRequest{Preferred: between(monday(10, 0), monday(11, 0))})
	require.NoError(t, err)
	count := 0
	for range seq {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestSuggestEmptyWhenNothingFits(t *testing.T) {
	f := newFixture(t)
	room := f.roomA(t)

	got, err := f.suggest.Suggest(context.Background(), room.ID, SuggestRequest{
		Preferred: between(monday(8, 0), monday(18, 0)),
		Horizon:   3 * time.Hour,
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.suggest.Suggest(context.Background(), uuid.New(), SuggestRequest{Preferred: between(monday(9, 0), monday(10, 0))})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestAvailabilityReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)
	f.submit(t, room, between(monday(10, 0), monday(11, 0)))
	f.submit(t, room, between(monday(18, 0), monday(19, 0)))

	days, err := f.reports.Availability(ctx, room.ID, "2030-01-07", "2030-01-12")
	require.NoError(t, err)
	require.Len(t, days, 6)

	assert.Equal(t, DayAvailability{
		Date:               "2030-01-07",
		IsAvailable:        true,
		BookingCount:       1,
		BookedHours:        1,
		CapacityHours:      8,
		UtilizationPercent: 12.5,
	}, days[0])
	assert.Equal(t, "2030-01-12", days[5].Date)
	assert.False(t, days[5].IsAvailable)
	assert.Zero(t, days[5].CapacityHours)

	_, err = f.reports.Availability(ctx, room.ID, "2030-01-12", "2030-01-07")
	assert.True(t, errors.Is(err, model.ErrValidation))
	_, err = f.reports.Availability(ctx, room.ID, "2030-01-07", "2032-01-07")
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestScheduleAndUtilization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.roomA(t)

	late := f.submit(t, room, between(monday(14, 0), monday(16, 0)))
	early := f.submit(t, room, between(monday(9, 0), monday(12, 0)))
	require.Equal(t, model.BookingStatusPending, early.Status)
	cancelled := f.submit(t, room, between(monday(12, 0), monday(13, 0)))
	_, err := f.bookings.Cancel(ctx, cancelled.ID, "alice", "")
	require.NoError(t, err)

	schedule, err := f.reports.Schedule(ctx, room.ID, monday(0, 0), monday(23, 59))
	require.NoError(t, err)
	require.Len(t, schedule, 2)
	assert.Equal(t, early.ID, schedule[0].ID)
	assert.Equal(t, late.ID, schedule[1].ID)

	stats, err := f.reports.Utilization(ctx, room.ID, "2030-01-07", "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBookings, "pending and cancelled bookings do not count")
	assert.Equal(t, 2.0, stats.BookedHours)
	assert.Equal(t, 8.0, stats.CapacityHours)
	assert.Equal(t, 25.0, stats.UtilizationPercent)
	assert.Equal(t, 1, stats.ByStatus[model.BookingStatusConfirmed])
}
