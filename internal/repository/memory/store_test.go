package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
)

func newResource(t *testing.T, s *Store, name string) *model.Resource {
	t.Helper()
	res := &model.Resource{Name: name, Kind: model.ResourceKindRoom, Capacity: 1, IsActive: true}
	require.NoError(t, s.Repos().Resources.Create(context.Background(), res))
	return res
}

func TestResourceNamesAreUniqueAmongActive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	first := newResource(t, s, "Room A")

	err := s.Repos().Resources.Create(ctx, &model.Resource{Name: "room a", Kind: model.ResourceKindRoom, Capacity: 1, IsActive: true})
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))

	first.IsActive = false
	require.NoError(t, s.Repos().Resources.Update(ctx, first))
	newResource(t, s, "Room A")

	found, err := s.Repos().Resources.GetByName(ctx, "ROOM A")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NotEqual(t, first.ID, found.ID)
}

func TestFailedTransactionIsRolledBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	res := newResource(t, s, "Room A")

	var bookingID uuid.UUID
	boom := errors.New("boom")
	err := s.InResourceTx(ctx, res.ID, func(ctx context.Context, r repository.Repos, locked *model.Resource) error {
		b := &model.BookingRequest{
			ResourceID: locked.ID,
			Status:     model.BookingStatusPending,
			Interval:   model.Interval{Start: time.Now(), End: time.Now().Add(time.Hour)},
		}
		require.NoError(t, r.Bookings.Create(ctx, b))
		bookingID = b.ID
		require.NoError(t, r.Bookings.AppendEvent(ctx, &model.BookingEvent{BookingID: b.ID, ToStatus: b.Status}))
		require.NoError(t, r.Links.Create(ctx, &model.SyncLink{ExternalSystem: "wf", ExternalRef: "1", BookingID: b.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.Repos().Bookings.GetByID(ctx, bookingID)
	require.NoError(t, err)
	assert.Nil(t, b)
	history, err := s.Repos().Bookings.History(ctx, bookingID)
	require.NoError(t, err)
	assert.Empty(t, history)
	link, err := s.Repos().Links.Get(ctx, "wf", "1")
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestInResourceTxUnknownResource(t *testing.T) {
	s := NewStore()
	err := s.InResourceTx(context.Background(), uuid.New(), func(context.Context, repository.Repos, *model.Resource) error {
		t.Fatal("must not run")
		return nil
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDuplicateSyncLink(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	links := s.Repos().Links
	require.NoError(t, links.Create(ctx, &model.SyncLink{ExternalSystem: "wf", ExternalRef: "42", BookingID: uuid.New()}))
	err := links.Create(ctx, &model.SyncLink{ExternalSystem: "wf", ExternalRef: "42", BookingID: uuid.New()})
	assert.True(t, errors.Is(err, model.ErrAlreadyExists))
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	res := newResource(t, s, "Room A")

	got, err := s.Repos().Resources.GetByID(ctx, res.ID)
	require.NoError(t, err)
	got.Capacity = 99

	again, err := s.Repos().Resources.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Capacity)
}
