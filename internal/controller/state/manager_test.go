package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerDialog(t *testing.T) {
	sm := NewManager()

	assert.Equal(t, StateNone, sm.GetState(1))

	sm.SetState(1, StateSuggestTime)
	sm.SetData(1, KeyResourceID, "abc")
	assert.Equal(t, StateSuggestTime, sm.GetState(1))

	id, ok := sm.GetString(1, KeyResourceID)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = sm.GetString(2, KeyResourceID)
	assert.False(t, ok)

	sm.SetState(1, StateNone)
	_, ok = sm.GetData(1, KeyResourceID)
	assert.False(t, ok)
}

func TestManagerExpiresDialogs(t *testing.T) {
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	sm := NewManager()
	sm.now = func() time.Time { return now }

	sm.SetState(7, StateSuggestTime)
	now = now.Add(DialogTTL - time.Minute)
	assert.Equal(t, StateSuggestTime, sm.GetState(7))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, StateNone, sm.GetState(7))
	assert.Empty(t, sm.states)
}
