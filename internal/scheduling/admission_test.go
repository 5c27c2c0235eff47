package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

var evaluatedAt = monday(0, 0).AddDate(0, 0, -7)

func admit(s *Snapshot, iv model.Interval) Decision {
	return Admit(s, Candidate{Interval: iv, Priority: model.PriorityNormal}, evaluatedAt)
}

func TestCapacityUsedIsPeakConcurrency(t *testing.T) {
	bookings := []*model.BookingRequest{
		booking(between(monday(9, 0), monday(10, 0)), model.BookingStatusConfirmed),
		booking(between(monday(10, 0), monday(11, 0)), model.BookingStatusPending),
		booking(between(monday(10, 30), monday(12, 0)), model.BookingStatusInProgress),
		booking(between(monday(9, 0), monday(12, 0)), model.BookingStatusCancelled),
		booking(between(monday(9, 0), monday(12, 0)), model.BookingStatusRejected),
		booking(between(monday(9, 0), monday(12, 0)), model.BookingStatusCompleted),
	}

	assert.Equal(t, 1, CapacityUsed(bookings, between(monday(9, 0), monday(10, 30)), uuid.Nil),
		"back-to-back bookings never overlap")
	assert.Equal(t, 2, CapacityUsed(bookings, between(monday(9, 0), monday(12, 0)), uuid.Nil))
	assert.Equal(t, 1, CapacityUsed(bookings, between(monday(9, 0), monday(12, 0)), bookings[2].ID))
	assert.Equal(t, 0, CapacityUsed(bookings, between(monday(12, 0), monday(13, 0)), uuid.Nil))

	assert.True(t, HasConflict(2, bookings, between(monday(10, 45), monday(11, 0)), uuid.Nil))
	assert.False(t, HasConflict(2, bookings, between(monday(11, 0), monday(12, 0)), uuid.Nil))
}

func TestAdmitRoomAScenarios(t *testing.T) {
	autoApprove := rule(t, model.RuleTypeAutoApproval, 10, map[string]any{"max_duration_hours": 2.0})
	christmas := rule(t, model.RuleTypeBlackout, 10, map[string]any{
		"start": "2030-12-25T00:00:00Z", "end": "2030-12-26T00:00:00Z", "reason": "Christmas",
	})

	t.Run("no approval rule stays pending", func(t *testing.T) {
		d := admit(snapshot(t, roomA(t), nil), between(monday(10, 0), monday(11, 0)))
		assert.Equal(t, model.BookingStatusPending, d.Status)
		assert.Nil(t, d.RuleID)
	})

	t.Run("auto approval confirms short booking", func(t *testing.T) {
		d := admit(snapshot(t, roomA(t), []*model.ScheduleRule{autoApprove}), between(monday(10, 0), monday(11, 0)))
		assert.Equal(t, model.BookingStatusConfirmed, d.Status)
		require.NotNil(t, d.RuleID)
		assert.Equal(t, autoApprove.ID, *d.RuleID)
	})

	t.Run("auto approval skips long booking", func(t *testing.T) {
		d := admit(snapshot(t, roomA(t), []*model.ScheduleRule{autoApprove}), between(monday(9, 0), monday(12, 0)))
		assert.Equal(t, model.BookingStatusPending, d.Status)
	})

	t.Run("overlap beyond capacity", func(t *testing.T) {
		first := booking(between(monday(10, 0), monday(11, 0)), model.BookingStatusConfirmed)
		d := admit(snapshot(t, roomA(t), nil, first), between(monday(10, 30), monday(11, 30)))
		assert.True(t, d.Rejected())
		assert.Equal(t, model.ReasonCapacityExceeded, d.Reason)
	})

	t.Run("outside working hours regardless of capacity", func(t *testing.T) {
		res := roomA(t)
		res.Capacity = 10
		d := admit(snapshot(t, res, nil), between(monday(20, 0), monday(21, 0)))
		assert.Equal(t, model.ReasonOutsideAvailability, d.Reason)
	})

	t.Run("blackout beats availability and capacity", func(t *testing.T) {
		xmas := time.Date(2030, 12, 25, 10, 0, 0, 0, time.UTC)
		require.Equal(t, time.Wednesday, xmas.Weekday())
		d := admit(snapshot(t, roomA(t), []*model.ScheduleRule{christmas, autoApprove}), between(xmas, xmas.Add(time.Hour)))
		assert.Equal(t, model.ReasonBlackout, d.Reason)
		assert.Contains(t, d.Message, "Christmas")
	})

	t.Run("cancelled booking releases capacity", func(t *testing.T) {
		gone := booking(between(monday(10, 0), monday(11, 0)), model.BookingStatusCancelled)
		d := admit(snapshot(t, roomA(t), nil, gone), between(monday(10, 0), monday(11, 0)))
		assert.False(t, d.Rejected())
	})
}

func TestAdmitRuleOrdering(t *testing.T) {
	res := roomA(t)
	res.Capacity = 5
	res.Availability = nil

	morning := rule(t, model.RuleTypeAvailability, 1, map[string]any{"days": []any{1.0}, "start_time": "08:00", "end_time": "12:00"})
	afternoon := rule(t, model.RuleTypeAvailability, 2, map[string]any{"days": []any{1.0}, "start_time": "13:00", "end_time": "18:00"})
	maxTwo := rule(t, model.RuleTypeCapacityLimit, 1, map[string]any{"max_concurrent": 2.0})
	maxThree := rule(t, model.RuleTypeCapacityLimit, 2, map[string]any{"max_duration_hours": 3.0})
	urgentOnly := rule(t, model.RuleTypeAutoApproval, 1, map[string]any{"min_priority": "urgent"})
	review := rule(t, model.RuleTypeRequireApproval, 1, map[string]any{"reason": "facilities review"})
	rules := []*model.ScheduleRule{review, urgentOnly, maxThree, maxTwo, afternoon, morning}

	busy := []*model.BookingRequest{
		booking(between(monday(14, 0), monday(15, 0)), model.BookingStatusConfirmed),
		booking(between(monday(14, 0), monday(15, 0)), model.BookingStatusPending),
	}
	s := snapshot(t, res, rules, busy...)

	assert.Equal(t, model.ReasonOutsideAvailability, admit(s, between(monday(11, 0), monday(14, 0))).Reason,
		"windows are not combined")
	assert.Equal(t, model.ReasonNone, admit(s, between(monday(13, 0), monday(14, 0))).Reason)

	d := admit(s, between(monday(14, 30), monday(15, 30)))
	assert.Equal(t, model.ReasonCapacityExceeded, d.Reason)
	require.NotNil(t, d.RuleID)
	assert.Equal(t, maxTwo.ID, *d.RuleID)

	d = admit(s, between(monday(8, 0), monday(11, 0)))
	assert.Equal(t, model.BookingStatusPending, d.Status)
	assert.Equal(t, "facilities review", d.Message)

	d = Admit(s, Candidate{Interval: between(monday(8, 0), monday(9, 0)), Priority: model.PriorityUrgent}, evaluatedAt)
	assert.Equal(t, model.BookingStatusConfirmed, d.Status, "auto approval wins over require approval")
	assert.Equal(t, urgentOnly.ID, *d.RuleID)

	d = admit(s, between(monday(8, 0), monday(12, 0)))
	assert.Equal(t, model.ReasonCapacityExceeded, d.Reason)
	assert.Equal(t, maxThree.ID, *d.RuleID)
}

func TestRuleSetFiltersAndSorts(t *testing.T) {
	now := monday(12, 0)
	later := now.Add(time.Hour)

	a := rule(t, model.RuleTypeRequireApproval, 5, nil)
	b := rule(t, model.RuleTypeRequireApproval, 1, nil)
	c := rule(t, model.RuleTypeRequireApproval, 5, nil)
	c.CreatedAt = a.CreatedAt.Add(-time.Hour)
	inactive := rule(t, model.RuleTypeBlackout, 0, map[string]any{"start": "2030-01-01T00:00:00Z", "end": "2030-01-02T00:00:00Z"})
	inactive.IsActive = false
	notYet := rule(t, model.RuleTypeAutoApproval, 0, nil)
	notYet.ValidFrom = &later

	rs := NewRuleSet([]*model.ScheduleRule{a, b, c, inactive, notYet}, now)
	assert.Equal(t, []*model.ScheduleRule{b, c, a}, rs.Of(model.RuleTypeRequireApproval))
	assert.Empty(t, rs.Of(model.RuleTypeBlackout))
	assert.Empty(t, rs.Of(model.RuleTypeAutoApproval))
	assert.Equal(t, 3, rs.Len())
}

func TestConcurrencyLimitUsesExistingLoad(t *testing.T) {
	res := roomA(t)
	res.Capacity = 3
	limit := rule(t, model.RuleTypeCapacityLimit, 1, map[string]any{"max_concurrent": 1.0})
	existing := booking(between(monday(10, 0), monday(11, 0)), model.BookingStatusPending)
	s := snapshot(t, res, []*model.ScheduleRule{limit}, existing)

	d := Admit(s, Candidate{Interval: existing.Interval, Exclude: existing.ID}, evaluatedAt)
	assert.False(t, d.Rejected(), "a booking does not conflict with itself")

	d = admit(s, existing.Interval)
	assert.Equal(t, model.ReasonCapacityExceeded, d.Reason)
}
