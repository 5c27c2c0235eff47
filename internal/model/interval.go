package model

import "time"

// Interval - полуоткрытый промежуток [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval создаёт интервал и проверяет его
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	return iv, iv.Validate()
}

// Validate проверяет, что интервал не пустой
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return NewValidationError("interval", "start and end are required")
	}
	if !iv.End.After(iv.Start) {
		return NewValidationError("interval", "end must be after start")
	}
	return nil
}

// Duration возвращает End - Start
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps - [s1,e1) и [s2,e2) пересекаются: s1 < e2 && s2 < e1
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains - other целиком лежит внутри iv
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Shift сдвигает интервал на d, сохраняя длительность
func (iv Interval) Shift(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(d), End: iv.End.Add(d)}
}

// Equal сравнивает моменты времени без учёта зоны
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}
