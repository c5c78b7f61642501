package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

const defaultGuardTTL = 2 * time.Minute

// releaseGuard deletes the guard only while it still holds the caller's token.
var releaseGuard = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore keeps sessions as JSON values with a sliding TTL. The
// session guard is a separate SETNX key holding the owner's token, so a
// crashed request cannot hold a session for longer than guardTTL and a late
// Release cannot drop a guard taken after its own expired.
type SessionStore struct {
	client    goredis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	guardTTL  time.Duration
	newToken  func() string
}

func NewSessionStore(client goredis.UniversalClient, keyPrefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		guardTTL:  defaultGuardTTL,
		newToken:  uuid.NewString,
	}
}

func (s *SessionStore) sessionKey(id string) string {
	return s.keyPrefix + "session:" + id
}

func (s *SessionStore) guardKey(id string) string {
	return s.keyPrefix + "session:" + id + ":submitting"
}

func (s *SessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, application.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var doc sessionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	inflight, err := s.client.Exists(ctx, s.guardKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("check submission guard: %w", err)
	}

	session := doc.toDomain()
	session.Loading = inflight > 0
	return session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	payload, err := json.Marshal(newSessionDocument(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.sessionKey(session.ID), payload, s.ttl).Err()
}

func (s *SessionStore) Acquire(ctx context.Context, id string) (string, bool, error) {
	token := s.newToken()
	acquired, err := s.client.SetNX(ctx, s.guardKey(id), token, s.guardTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("set submission guard: %w", err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

func (s *SessionStore) Release(ctx context.Context, id, token string) error {
	if err := releaseGuard.Run(ctx, s.client, []string{s.guardKey(id)}, token).Err(); err != nil {
		return fmt.Errorf("release submission guard: %w", err)
	}
	return nil
}

type draftDocument struct {
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	Surname         string `json:"surname"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	PreviousProgram string `json:"previousProgram"`
	IntendedProgram string `json:"intendedProgram"`
	PaymentOption   string `json:"paymentOption"`
	Agreed          bool   `json:"agreed"`
}

type receiptDocument struct {
	ID           string        `json:"id"`
	Draft        draftDocument `json:"draft"`
	Fee          float64       `json:"fee"`
	IsDiscounted bool          `json:"isDiscounted"`
	DocumentURL  *string       `json:"documentUrl"`
	Timestamp    time.Time     `json:"timestamp"`
}

type sessionDocument struct {
	ID        string           `json:"id"`
	Draft     draftDocument    `json:"draft"`
	Receipt   *receiptDocument `json:"receipt,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func newDraftDocument(d domain.Draft) draftDocument {
	return draftDocument{
		FirstName:       d.FirstName,
		MiddleName:      d.MiddleName,
		Surname:         d.Surname,
		Phone:           d.Phone,
		Country:         d.Country,
		PreviousProgram: d.PreviousProgram,
		IntendedProgram: d.IntendedProgram,
		PaymentOption:   d.PaymentOption.String(),
		Agreed:          d.Agreed,
	}
}

func (d draftDocument) toDomain() domain.Draft {
	return domain.Draft{
		FirstName:       d.FirstName,
		MiddleName:      d.MiddleName,
		Surname:         d.Surname,
		Phone:           d.Phone,
		Country:         d.Country,
		PreviousProgram: d.PreviousProgram,
		IntendedProgram: d.IntendedProgram,
		PaymentOption:   domain.PaymentOption(d.PaymentOption),
		Agreed:          d.Agreed,
	}
}

func newSessionDocument(session *domain.Session) sessionDocument {
	doc := sessionDocument{
		ID:        session.ID,
		Draft:     newDraftDocument(session.Draft),
		UpdatedAt: session.UpdatedAt,
	}
	if r := session.Receipt; r != nil {
		doc.Receipt = &receiptDocument{
			ID:           r.ID,
			Draft:        newDraftDocument(r.Draft),
			Fee:          r.Fee,
			IsDiscounted: r.IsDiscounted,
			DocumentURL:  r.DocumentURL,
			Timestamp:    r.Timestamp,
		}
	}
	return doc
}

func (d sessionDocument) toDomain() *domain.Session {
	session := &domain.Session{
		ID:        d.ID,
		Draft:     d.Draft.toDomain(),
		UpdatedAt: d.UpdatedAt,
	}
	if r := d.Receipt; r != nil {
		session.Receipt = &domain.Record{
			ID:           r.ID,
			Draft:        r.Draft.toDomain(),
			Fee:          r.Fee,
			IsDiscounted: r.IsDiscounted,
			DocumentURL:  r.DocumentURL,
			Timestamp:    r.Timestamp,
		}
	}
	return session
}
