package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 7, hour, min, 0, 0, time.UTC)
}

func TestIntervalValidate(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewInterval(at(11, 0), at(10, 0))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewInterval(time.Time{}, at(10, 0))
	assert.True(t, errors.Is(err, ErrValidation))

	iv, err := NewInterval(at(10, 0), at(11, 30))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, iv.Duration())
}

func TestIntervalOverlapsIsHalfOpen(t *testing.T) {
	base := Interval{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", base, true},
		{"inside", Interval{at(10, 15), at(10, 45)}, true},
		{"straddles start", Interval{at(9, 30), at(10, 30)}, true},
		{"straddles end", Interval{at(10, 30), at(11, 30)}, true},
		{"touches end", Interval{at(11, 0), at(12, 0)}, false},
		{"touches start", Interval{at(9, 0), at(10, 0)}, false},
		{"disjoint", Interval{at(13, 0), at(14, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestIntervalContainsAndShift(t *testing.T) {
	day := Interval{Start: at(9, 0), End: at(17, 0)}
	assert.True(t, day.Contains(Interval{at(9, 0), at(17, 0)}))
	assert.True(t, day.Contains(Interval{at(10, 0), at(11, 0)}))
	assert.False(t, day.Contains(Interval{at(16, 30), at(17, 30)}))

	moved := Interval{at(10, 0), at(11, 0)}.Shift(-30 * time.Minute)
	assert.True(t, moved.Equal(Interval{at(9, 30), at(10, 30)}))
}
