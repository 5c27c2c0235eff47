package scheduling

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

func TestOffsetsInterleave(t *testing.T) {
	got := slices.Collect(Offsets(30*time.Minute, 90*time.Minute))
	assert.Equal(t, []time.Duration{
		0,
		30 * time.Minute, -30 * time.Minute,
		60 * time.Minute, -60 * time.Minute,
		90 * time.Minute, -90 * time.Minute,
	}, got)
}

func TestSuggestNearestFirst(t *testing.T) {
	taken := booking(between(monday(11, 0), monday(12, 0)), model.BookingStatusConfirmed)
	s := snapshot(t, roomA(t), nil, taken)

	preferred := between(monday(11, 0), monday(12, 0))
	got := slices.Collect(Suggest(s, preferred, SuggestOptions{Max: 4, Now: evaluatedAt}))
	require.Len(t, got, 4)

	assert.Equal(t, monday(12, 0), got[0].Start, "tie at one hour prefers the later slot")
	assert.Equal(t, monday(10, 0), got[1].Start)
	assert.Equal(t, monday(12, 30), got[2].Start)
	assert.Equal(t, monday(9, 30), got[3].Start)

	for i := 1; i < len(got); i++ {
		prev := got[i-1].Start.Sub(preferred.Start).Abs()
		cur := got[i].Start.Sub(preferred.Start).Abs()
		assert.LessOrEqual(t, prev, cur)
	}
	for _, iv := range got {
		assert.Equal(t, time.Hour, iv.Duration())
		assert.False(t, iv.Overlaps(taken.Interval))
	}
}

func TestSuggestIsRestartableAndSkipsPast(t *testing.T) {
	s := snapshot(t, roomA(t), nil)
	preferred := between(monday(10, 0), monday(11, 0))
	opts := SuggestOptions{Max: 3, Now: monday(9, 45)}

	seq := Suggest(s, preferred, opts)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	for _, iv := range first {
		assert.False(t, iv.Start.Before(opts.Now))
	}
	assert.Equal(t, monday(10, 0), first[0].Start)
}

func TestSuggestExhaustsHorizonQuietly(t *testing.T) {
	res := roomA(t)
	s := snapshot(t, res, nil)

	// Девять часов не помещаются в восьмичасовой рабочий день.
	preferred := between(monday(8, 0), monday(17, 0))
	got := slices.Collect(Suggest(s, preferred, SuggestOptions{Horizon: 3 * 24 * time.Hour, Now: evaluatedAt}))
	assert.Empty(t, got)
}

func TestSuggestStopsWhenCallerStops(t *testing.T) {
	s := snapshot(t, roomA(t), nil)
	n := 0
	for range Suggest(s, between(monday(10, 0), monday(11, 0)), SuggestOptions{Max: 10, Now: evaluatedAt}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
