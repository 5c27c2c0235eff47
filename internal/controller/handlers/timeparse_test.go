package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

var base = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

func TestParseExactFormats(t *testing.T) {
	p := NewTimeParser()
	want := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		text     string
		duration time.Duration
	}{
		{"07.01.2030 10:00", DefaultSlotDuration},
		{"2030-01-07 10:00", DefaultSlotDuration},
		{"07.01 10:00", DefaultSlotDuration},
		{"07.01.2030 10:00 на 2 часа", 2 * time.Hour},
		{"07.01.2030 10:00 на 30 минут", 30 * time.Minute},
		{"07.01.2030 10:00 на 1 час", time.Hour},
		{"2030-01-07 10:00 for 90 min", 90 * time.Minute},
		{"2030-01-07 10:00 for 3h", 3 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			iv, err := p.Parse(tt.text, base)
			require.NoError(t, err)
			assert.Equal(t, want, iv.Start)
			assert.Equal(t, tt.duration, iv.Duration())
		})
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	p := NewTimeParser()
	iv, err := p.Parse("tomorrow", base)
	require.NoError(t, err)
	y, m, d := iv.Start.Date()
	assert.Equal(t, 2030, y)
	assert.Equal(t, time.January, m)
	assert.Equal(t, 2, d)
}

func TestParseRejectsNonsense(t *testing.T) {
	p := NewTimeParser()
	_, err := p.Parse("абракадабра", base)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = p.Parse("07.01.2030 10:00 на 0 часов", base)
	assert.ErrorIs(t, err, model.ErrValidation)
}
