package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/events"
	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/memory"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
	"github.com/Liam-Lillieroth/MetaTask/internal/telemetry"
)

// clockNow - вторник, за шесть дней до monday().
var clockNow = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

// monday - 2030-01-07.
func monday(hour, min int) time.Time {
	return time.Date(2030, 1, 7, hour, min, 0, 0, time.UTC)
}

func between(start, end time.Time) model.Interval {
	return model.Interval{Start: start, End: end}
}

type recorder struct {
	mu     sync.Mutex
	events []events.BookingStatusChanged
}

func (r *recorder) Publish(_ context.Context, e events.BookingStatusChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) For(id uuid.UUID) []events.BookingStatusChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.BookingStatusChanged
	for _, e := range r.events {
		if e.BookingID == id {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store     *memory.Store
	events    *recorder
	resources *ResourceService
	bookings  *BookingService
	sync      *SyncService
	suggest   *SuggestionService
	reports   *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{}
	logger := zap.NewNop()
	now := func() time.Time { return clockNow }

	bookings := NewBookingService(store, rec, telemetry.NewScheduling(), logger, BookingOptions{Now: now})
	return &fixture{
		store:     store,
		events:    rec,
		resources: NewResourceService(store, logger),
		bookings:  bookings,
		sync:      NewSyncService(bookings),
		suggest:   NewSuggestionService(store, scheduling.SuggestOptions{}, logger, now),
		reports:   NewReportService(store),
	}
}

// roomA принимает одно бронирование за раз, с понедельника по пятницу с 9 до 17,
// и одобряет автоматически бронирования до двух часов.
func (f *fixture) roomA(t *testing.T) *model.Resource {
	t.Helper()
	return f.room(t, "Room A", 1, true)
}

func (f *fixture) room(t *testing.T, name string, capacity int, autoApprove bool) *model.Resource {
	t.Helper()
	ctx := context.Background()
	res, err := f.resources.CreateResource(ctx, ResourceInput{
		Name:         name,
		Kind:         model.ResourceKindRoom,
		Capacity:     capacity,
		Availability: DefaultTeamAvailability(),
	})
	require.NoError(t, err)
	if autoApprove {
		_, err = f.resources.AddRule(ctx, res.ID, RuleInput{
			Name:   "short meetings",
			Type:   model.RuleTypeAutoApproval,
			Config: map[string]any{"max_duration_hours": 2.0},
		})
		require.NoError(t, err)
	}
	return res
}

func (f *fixture) submit(t *testing.T, res *model.Resource, iv model.Interval) *model.BookingRequest {
	t.Helper()
	b, err := f.bookings.Submit(context.Background(), SubmitRequest{
		ResourceID: res.ID,
		Requester:  "alice",
		Title:      "Planning",
		Interval:   iv,
	}, "alice")
	require.NoError(t, err)
	return b
}
