package model

import (
	"fmt"
	"time"
)

// ClockTime - время суток в минутах от полуночи, 0..1440
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClockTime разбирает "HH:MM". "24:00" означает конец дня.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("must be a HH:MM string, got %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// ClockAt собирает ClockTime из часов и минут
func ClockAt(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// Duration возвращает смещение от полуночи
func (c ClockTime) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid - значение в пределах суток
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= minutesPerDay
}
