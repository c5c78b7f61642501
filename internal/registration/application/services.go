package application

import (
	"context"

	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// ApplicationRepository is the append-only persistence port for submitted
// applications. Insert may set record.ID.
type ApplicationRepository interface {
	Insert(ctx context.Context, record *domain.Record) error
}

// SessionStore keeps drafts between requests. Load reports the in-flight
// flag through Session.Loading. Acquire takes the per-session guard and
// returns a token identifying the holder; Release drops the guard only while
// that token still owns it.
type SessionStore interface {
	Load(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Acquire(ctx context.Context, id string) (token string, acquired bool, err error)
	Release(ctx context.Context, id, token string) error
}

// Submitter runs the submission workflow for a single draft.
type Submitter interface {
	Submit(ctx context.Context, draft domain.Draft, documentURL *string) (*domain.Record, error)
}

// Quoter prices an option/country pair.
type Quoter interface {
	Quote(option domain.PaymentOption, country string) domain.Quote
}

// Snapshot is what the form sees after every operation.
type Snapshot struct {
	SessionID string
	Draft     domain.Draft
	Quote     domain.Quote
	Loading   bool
	Receipt   *domain.Record
}
