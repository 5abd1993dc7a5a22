package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfusion/storage"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.Equal(t, SessionUninitialized, s.Snapshot().State)

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Begin()
	s.Resolve(storage.User{ID: "a1", Role: storage.RoleAdmin}, "tok")

	first := <-updates
	assert.Equal(t, SessionLoading, first.State)
	second := <-updates
	require.Equal(t, SessionResolved, second.State)
	require.NotNil(t, second.User)
	assert.True(t, second.Admin())

	s.Clear()
	cleared := <-updates
	assert.Equal(t, SessionResolved, cleared.State)
	assert.Nil(t, cleared.User)
	assert.False(t, cleared.Admin())
}

func TestSessionUnsubscribeClosesChannel(t *testing.T) {
	s := NewSession()
	updates, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-updates
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	s.Begin()
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSession()
	s.Resolve(storage.User{ID: "u1", Role: storage.RoleUser}, "tok")

	snap := s.Snapshot()
	snap.User.Role = storage.RoleAdmin
	assert.False(t, s.Snapshot().Admin())
}
