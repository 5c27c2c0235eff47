package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStatusTable(t *testing.T) {
	table := DefaultStatusTable()

	tests := []struct {
		external string
		want     BookingStatus
	}{
		{"requested", BookingStatusPending},
		{"Scheduled", BookingStatusConfirmed},
		{" started ", BookingStatusInProgress},
		{"done", BookingStatusCompleted},
		{"canceled", BookingStatusCancelled},
		{"declined", BookingStatusRejected},
	}
	for _, tt := range tests {
		got, err := table.Inbound(tt.external)
		require.NoError(t, err, tt.external)
		assert.Equal(t, tt.want, got, tt.external)
	}

	_, err := table.Inbound("on_hold")
	assert.True(t, errors.Is(err, ErrValidation))

	assert.Equal(t, "scheduled", table.Outbound(BookingStatusConfirmed))
	assert.Equal(t, "declined", table.Outbound(BookingStatusRejected))
}
