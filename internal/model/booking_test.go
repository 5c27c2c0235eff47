package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []BookingStatus{
	BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
	BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected,
}

func TestTransitionEdges(t *testing.T) {
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusPending, BookingStatusConfirmed}:    true,
		{BookingStatusPending, BookingStatusCancelled}:    true,
		{BookingStatusPending, BookingStatusRejected}:     true,
		{BookingStatusConfirmed, BookingStatusInProgress}: true,
		{BookingStatusConfirmed, BookingStatusCancelled}:  true,
		{BookingStatusInProgress, BookingStatusCompleted}: true,
		{BookingStatusInProgress, BookingStatusCancelled}: true,
	}
	at := time.Date(2030, 1, 7, 12, 0, 0, 0, time.UTC)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			b := &BookingRequest{ID: uuid.New(), Status: from}
			event, err := b.Transition(to, "tester", "because", at)

			if allowed[[2]BookingStatus{from, to}] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, b.Status)
				assert.Equal(t, from, event.FromStatus)
				assert.Equal(t, to, event.ToStatus)
				assert.Equal(t, "tester", event.Actor)
				assert.Equal(t, at, b.UpdatedAt)
				continue
			}

			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
			assert.Equal(t, from, b.Status, "status must not change")
			assert.Nil(t, event)
			assert.True(t, b.UpdatedAt.IsZero())
		}
	}
}

func TestTransitionStampsAuditTime(t *testing.T) {
	at := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	b := &BookingRequest{ID: uuid.New(), Status: BookingStatusPending}

	_, err := b.Transition(BookingStatusConfirmed, "ops", "", at)
	require.NoError(t, err)
	_, err = b.Transition(BookingStatusInProgress, "ops", "", at.Add(time.Hour))
	require.NoError(t, err)
	_, err = b.Transition(BookingStatusCompleted, "ops", "", at.Add(2*time.Hour))
	require.NoError(t, err)

	require.NotNil(t, b.ConfirmedAt)
	require.NotNil(t, b.StartedAt)
	require.NotNil(t, b.CompletedAt)
	assert.Equal(t, at, *b.ConfirmedAt)
	assert.Equal(t, at.Add(time.Hour), *b.StartedAt)
	assert.Equal(t, at.Add(2*time.Hour), *b.CompletedAt)
	assert.Nil(t, b.CancelledAt)
	assert.True(t, b.Status.IsTerminal())
}

func TestStatusRankAndCapacity(t *testing.T) {
	assert.Less(t, BookingStatusPending.Rank(), BookingStatusConfirmed.Rank())
	assert.Less(t, BookingStatusConfirmed.Rank(), BookingStatusInProgress.Rank())
	assert.Less(t, BookingStatusInProgress.Rank(), BookingStatusCompleted.Rank())

	for _, s := range allStatuses {
		assert.Equal(t, !s.IsTerminal(), s.HoldsCapacity(), s)
	}
}

func TestPriorityRank(t *testing.T) {
	assert.True(t, PriorityUrgent.Rank() > PriorityHigh.Rank())
	assert.True(t, PriorityHigh.Rank() > PriorityNormal.Rank())
	assert.True(t, PriorityNormal.Rank() > PriorityLow.Rank())
	assert.False(t, Priority("whenever").IsValid())
}

func TestRejectionErrorMatchesReason(t *testing.T) {
	err := error(&RejectionError{Reason: ReasonCapacityExceeded})
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.False(t, errors.Is(err, ErrBlackout))
}
