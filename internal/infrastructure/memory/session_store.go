package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// SessionStore is the single-process fallback used when Redis is not configured.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	inflight map[string]string
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

// NewSessionStore keeps sessions for ttl after their last save. A zero ttl
// keeps them for the life of the process.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		inflight: make(map[string]string),
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (s *SessionStore) Load(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, application.ErrSessionNotFound
	}
	if s.expired(session, s.now()) {
		delete(s.sessions, id)
		return nil, application.ErrSessionNotFound
	}
	_, session.Loading = s.inflight[id]
	return &session, nil
}

// Save stores a copy of session and drops every other session that has
// outlived the ttl.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())

	stored := *session
	stored.Loading = false
	s.sessions[session.ID] = stored
	return nil
}

func (s *SessionStore) Acquire(_ context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[id]; busy {
		return "", false, nil
	}
	token := s.newToken()
	s.inflight[id] = token
	return token, true, nil
}

func (s *SessionStore) Release(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[id] == token {
		delete(s.inflight, id)
	}
	return nil
}

// size reports how many sessions are held, expired or not.
func (s *SessionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session domain.Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(session.UpdatedAt) > s.ttl
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
		}
	}
}
