package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, BookingStatusChanged) error { return f.err }

func TestMultiPublishesToAll(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	boom := errors.New("boom")
	m := Multi{failing{boom}, NewLogPublisher(zap.New(core)), Nop{}}

	err := m.Publish(context.Background(), BookingStatusChanged{
		Type:      TypeBookingStatusChanged,
		BookingID: uuid.New(),
		ToStatus:  "confirmed",
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, logs.FilterMessage("Booking status changed").Len())
}
