package scheduling

import (
	"iter"
	"time"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

const (
	DefaultGranularity = 30 * time.Minute
	DefaultHorizon     = 14 * 24 * time.Hour
	DefaultMaxSuggest  = 5
)

// SuggestOptions ограничивает поиск альтернатив
type SuggestOptions struct {
	Granularity time.Duration
	Horizon     time.Duration
	Max         int
	Priority    model.Priority
	Now         time.Time
}

func (o SuggestOptions) withDefaults() SuggestOptions {
	if o.Granularity <= 0 {
		o.Granularity = DefaultGranularity
	}
	if o.Horizon <= 0 {
		o.Horizon = DefaultHorizon
	}
	if o.Max <= 0 {
		o.Max = DefaultMaxSuggest
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// SearchWindow - промежуток бронирований, нужный снимку для Suggest по preferred
func SearchWindow(preferred model.Interval, opts SuggestOptions) model.Interval {
	opts = opts.withDefaults()
	return model.Interval{Start: preferred.Start.Add(-opts.Horizon), End: preferred.End.Add(opts.Horizon)}
}

// Offsets выдаёт 0, +g, -g, +2g, -2g ... до горизонта.
// При равном расстоянии первым идёт более поздний кандидат.
func Offsets(granularity, horizon time.Duration) iter.Seq[time.Duration] {
	return func(yield func(time.Duration) bool) {
		if !yield(0) {
			return
		}
		for d := granularity; d <= horizon; d += granularity {
			if !yield(d) || !yield(-d) {
				return
			}
		}
	}
}

// Suggest возвращает допустимые интервалы длительности preferred, ближайшие к
// preferred.Start. Последовательность конечна, по ней можно проходить повторно.
func Suggest(s *Snapshot, preferred model.Interval, opts SuggestOptions) iter.Seq[model.Interval] {
	opts = opts.withDefaults()
	return func(yield func(model.Interval) bool) {
		found := 0
		for off := range Offsets(opts.Granularity, opts.Horizon) {
			cand := preferred.Shift(off)
			if cand.Start.Before(opts.Now) {
				continue
			}
			d := Admit(s, Candidate{Interval: cand, Priority: opts.Priority}, opts.Now)
			if d.Rejected() {
				continue
			}
			if !yield(cand) {
				return
			}
			found++
			if found >= opts.Max {
				return
			}
		}
	}
}
