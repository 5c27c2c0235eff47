package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// monday - 2030-01-07, понедельник.
func monday(hour, min int) time.Time {
	return time.Date(2030, 1, 7, hour, min, 0, 0, time.UTC)
}

func between(start, end time.Time) model.Interval {
	return model.Interval{Start: start, End: end}
}

func roomA(t *testing.T) *model.Resource {
	t.Helper()
	require.Equal(t, time.Monday, monday(0, 0).Weekday())
	return &model.Resource{
		ID:       uuid.New(),
		Name:     "Room A",
		Kind:     model.ResourceKindRoom,
		Capacity: 1,
		Availability: map[string]any{
			"working_days": []any{1.0, 2.0, 3.0, 4.0, 5.0},
			"start_hour":   9.0,
			"end_hour":     17.0,
		},
		IsActive: true,
	}
}

func rule(t *testing.T, typ model.RuleType, priority int, raw map[string]any) *model.ScheduleRule {
	t.Helper()
	cfg, err := model.ParseRuleConfig(typ, raw)
	require.NoError(t, err)
	return &model.ScheduleRule{
		ID:        uuid.New(),
		Name:      string(typ),
		Type:      typ,
		Priority:  priority,
		Config:    cfg,
		IsActive:  true,
		CreatedAt: monday(0, 0).AddDate(0, -1, 0),
	}
}

func booking(iv model.Interval, status model.BookingStatus) *model.BookingRequest {
	return &model.BookingRequest{ID: uuid.New(), Interval: iv, Status: status, Priority: model.PriorityNormal}
}

func snapshot(t *testing.T, res *model.Resource, rules []*model.ScheduleRule, bookings ...*model.BookingRequest) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(res, rules, bookings, monday(0, 0).AddDate(0, 0, -7))
	require.NoError(t, err)
	return s
}
