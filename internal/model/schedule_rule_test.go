package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleConfig(t *testing.T) {
	tests := []struct {
		name    string
		typ     RuleType
		raw     map[string]any
		wantErr bool
	}{
		{"availability ok", RuleTypeAvailability, map[string]any{"days": []any{1.0, 2.0}, "start_time": "09:00", "end_time": "17:00"}, false},
		{"availability weekday names", RuleTypeAvailability, map[string]any{"days": []any{"mon", "Friday"}, "start_time": "09:00", "end_time": "24:00", "timezone": "Europe/Stockholm"}, false},
		{"availability missing end", RuleTypeAvailability, map[string]any{"days": []any{1.0}, "start_time": "09:00"}, true},
		{"availability reversed", RuleTypeAvailability, map[string]any{"days": []any{1.0}, "start_time": "17:00", "end_time": "09:00"}, true},
		{"availability bad day", RuleTypeAvailability, map[string]any{"days": []any{7.0}, "start_time": "09:00", "end_time": "17:00"}, true},
		{"availability bad timezone", RuleTypeAvailability, map[string]any{"days": []any{1.0}, "start_time": "09:00", "end_time": "17:00", "timezone": "Mars/Olympus"}, true},
		{"blackout ok", RuleTypeBlackout, map[string]any{"start": "2030-12-25T00:00:00Z", "end": "2030-12-26T00:00:00Z", "reason": "Christmas"}, false},
		{"blackout not rfc3339", RuleTypeBlackout, map[string]any{"start": "Dec 25", "end": "2030-12-26T00:00:00Z"}, true},
		{"blackout unknown key", RuleTypeBlackout, map[string]any{"start": "2030-12-25T00:00:00Z", "end": "2030-12-26T00:00:00Z", "color": "red"}, true},
		{"capacity needs a limit", RuleTypeCapacityLimit, map[string]any{}, true},
		{"capacity concurrent", RuleTypeCapacityLimit, map[string]any{"max_concurrent": 2.0}, false},
		{"capacity fractional concurrent", RuleTypeCapacityLimit, map[string]any{"max_concurrent": 1.5}, true},
		{"capacity huge concurrent", RuleTypeCapacityLimit, map[string]any{"max_concurrent": 1e30}, true},
		{"capacity infinite concurrent", RuleTypeCapacityLimit, map[string]any{"max_concurrent": math.Inf(1)}, true},
		{"capacity duration", RuleTypeCapacityLimit, map[string]any{"max_duration_hours": 4}, false},
		{"auto approval empty", RuleTypeAutoApproval, nil, false},
		{"auto approval thresholds", RuleTypeAutoApproval, map[string]any{"max_duration_hours": 2.0, "min_priority": "high", "min_notice_hours": 24.0}, false},
		{"auto approval bad priority", RuleTypeAutoApproval, map[string]any{"min_priority": "asap"}, true},
		{"require approval", RuleTypeRequireApproval, map[string]any{"min_duration_hours": 8.0, "reason": "long bookings"}, false},
		{"require approval unknown", RuleTypeRequireApproval, map[string]any{"approver": "bob"}, true},
		{"unknown type", RuleType("lottery"), map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRuleConfig(tt.typ, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, cfg.Type())

			again, err := ParseRuleConfig(tt.typ, roundTrip(t, cfg.Map()))
			require.NoError(t, err)
			assert.Equal(t, cfg, again)
		})
	}
}

func TestIntValueRange(t *testing.T) {
	n, err := IntValue(float64(math.MaxInt32))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, n)

	for _, v := range []any{1e30, -1e30, float64(math.MaxInt32) + 1} {
		_, err := IntValue(v)
		assert.Error(t, err, "%v", v)
	}
}

// roundTrip прогоняет конфиг через JSON так же, как хранилище.
func roundTrip(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestAvailabilityConfigParsesWeekdays(t *testing.T) {
	cfg, err := ParseRuleConfig(RuleTypeAvailability, map[string]any{
		"days": []any{"mon", 3.0}, "start_time": "08:30", "end_time": "12:00",
	})
	require.NoError(t, err)
	av := cfg.(AvailabilityConfig)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, av.Days)
	assert.Equal(t, ClockAt(8, 30), av.StartTime)
	assert.Equal(t, "12:00", av.EndTime.String())
	assert.Equal(t, time.UTC, av.Location())
}

func TestScheduleRuleEffectiveAt(t *testing.T) {
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	r := &ScheduleRule{IsActive: true, ValidFrom: &from, ValidUntil: &until}

	assert.False(t, r.EffectiveAt(from.Add(-time.Second)))
	assert.True(t, r.EffectiveAt(from))
	assert.True(t, r.EffectiveAt(until.Add(-time.Second)))
	assert.False(t, r.EffectiveAt(until))

	r.ValidUntil = nil
	assert.True(t, r.EffectiveAt(until.AddDate(5, 0, 0)))

	r.IsActive = false
	assert.False(t, r.EffectiveAt(from))
}

func TestScheduleRuleJSON(t *testing.T) {
	cfg, err := ParseRuleConfig(RuleTypeCapacityLimit, map[string]any{"max_concurrent": 3.0})
	require.NoError(t, err)
	rule := ScheduleRule{
		ID:       uuid.New(),
		Name:     "three at a time",
		Type:     RuleTypeCapacityLimit,
		Priority: 10,
		Config:   cfg,
		IsActive: true,
	}

	data, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"config":{"max_concurrent":3}`)

	var decoded ScheduleRule
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rule.ID, decoded.ID)
	assert.Equal(t, 3, *decoded.Config.(CapacityLimitConfig).MaxConcurrent)
	require.NoError(t, decoded.Validate())
}

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("24:00")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, c.Duration())

	for _, bad := range []string{"24:30", "9", "ab:cd", "12:60"} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, bad)
	}
}
