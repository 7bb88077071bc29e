package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventKind mirrors the provider's auth state changes.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// Event is delivered to subscribers whenever the session changes.
type Event struct {
	Kind    EventKind
	Session *Session
}

// SessionState mirrors the provider's current session into memory so the
// rest of the app can observe the signed-in user without polling. It is the
// explicit replacement for ambient global auth state: construct one, inject
// it where needed.
type SessionState struct {
	gateway *Gateway
	log     zerolog.Logger

	mu          sync.RWMutex
	session     *Session
	subscribers []chan Event

	cancelRefresh context.CancelFunc
}

func NewSessionState(gateway *Gateway, log zerolog.Logger) *SessionState {
	return &SessionState{
		gateway: gateway,
		log:     log,
	}
}

// Current returns the active session, or nil when signed out.
func (s *SessionState) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe returns a channel receiving future auth events. Slow consumers
// drop events rather than blocking sign-in.
func (s *SessionState) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 8)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Set installs a session (after sign-in or refresh) and restarts the
// background refresh loop for it.
func (s *SessionState) Set(ctx context.Context, session *Session, kind EventKind) {
	s.mu.Lock()
	if s.cancelRefresh != nil {
		s.cancelRefresh()
		s.cancelRefresh = nil
	}
	s.session = session
	if session != nil && session.RefreshToken != "" && session.ExpiresIn > 0 {
		refreshCtx, cancel := context.WithCancel(ctx)
		s.cancelRefresh = cancel
		go s.refreshLoop(refreshCtx, session)
	}
	s.mu.Unlock()

	s.publish(Event{Kind: kind, Session: session})
}

// Clear drops the session (after sign-out).
func (s *SessionState) Clear() {
	s.mu.Lock()
	if s.cancelRefresh != nil {
		s.cancelRefresh()
		s.cancelRefresh = nil
	}
	s.session = nil
	s.mu.Unlock()

	s.publish(Event{Kind: EventSignedOut})
}

func (s *SessionState) publish(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// refreshLoop renews the token shortly before it expires, standing in for
// the provider-pushed TOKEN_REFRESHED events of the browser SDK.
func (s *SessionState) refreshLoop(ctx context.Context, session *Session) {
	for {
		wait := time.Duration(session.ExpiresIn) * time.Second * 3 / 4
		if wait < time.Minute {
			wait = time.Minute
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		refreshed, err := s.gateway.Refresh(ctx, session.RefreshToken)
		if err != nil {
			s.log.Warn().Err(err).Msg("token refresh failed, signing out")
			s.Clear()
			return
		}

		session = refreshed

		s.mu.Lock()
		s.session = refreshed
		s.mu.Unlock()
		s.publish(Event{Kind: EventTokenRefreshed, Session: refreshed})
	}
}
