package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateSetAndClear(t *testing.T) {
	state := NewSessionState(deniedGateway(t), zerolog.Nop())
	events := state.Subscribe()

	assert.Nil(t, state.Current())

	session := &Session{
		AccessToken: "token-abc",
		User:        User{ID: uuid.New(), Email: "maria@example.com"},
	}
	state.Set(context.Background(), session, EventSignedIn)

	require.NotNil(t, state.Current())
	assert.Equal(t, "token-abc", state.Current().AccessToken)

	ev := <-events
	assert.Equal(t, EventSignedIn, ev.Kind)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "maria@example.com", ev.Session.User.Email)

	state.Clear()
	assert.Nil(t, state.Current())

	ev = <-events
	assert.Equal(t, EventSignedOut, ev.Kind)
	assert.Nil(t, ev.Session)
}

func TestSessionStateSlowSubscriberDropsEvents(t *testing.T) {
	state := NewSessionState(deniedGateway(t), zerolog.Nop())
	_ = state.Subscribe() // never drained

	// Publishing must not block even when the subscriber buffer fills up.
	for i := 0; i < 20; i++ {
		state.Set(context.Background(), &Session{AccessToken: "t"}, EventSignedIn)
	}

	assert.NotNil(t, state.Current())
}
