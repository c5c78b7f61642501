package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// FormService owns per-session drafts: edits replace the draft wholesale and
// both edits and submits write under the session's guard.
type FormService struct {
	sessions  SessionStore
	submitter Submitter
	quoter    Quoter
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewFormService(sessions SessionStore, submitter Submitter, quoter Quoter, log *zap.Logger) *FormService {
	return &FormService{
		sessions:  sessions,
		submitter: submitter,
		quoter:    quoter,
		logger:    logger.OrNop(log).Named("form"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Start opens a session with an empty draft.
func (s *FormService) Start(ctx context.Context) (Snapshot, error) {
	session := &domain.Session{
		ID:        s.newID(),
		Draft:     domain.NewDraft(),
		UpdatedAt: s.now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Snapshot{}, fmt.Errorf("save session: %w", err)
	}
	return s.snapshot(session), nil
}

// Snapshot returns the current state of a session.
func (s *FormService) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(session), nil
}

// Edit applies field edits in name order and stores the resulting draft.
// Nothing is stored if any edit is rejected. The edit holds the session guard
// while it saves, so it cannot interleave with a submission.
func (s *FormService) Edit(ctx context.Context, id string, edits map[string]string) (Snapshot, error) {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if session.Loading {
		return s.snapshot(session), ErrSubmissionInProgress
	}

	session, release, err := s.guard(ctx, id)
	if err != nil {
		return s.busySnapshot(ctx, id, err)
	}
	defer release()

	fields := make([]string, 0, len(edits))
	for field := range edits {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	draft := session.Draft
	for _, field := range fields {
		next, err := draft.With(field, edits[field])
		if err != nil {
			return s.snapshot(session), fmt.Errorf("%w: %v", ErrInvalidEdit, err)
		}
		draft = next
	}

	updated := *session
	updated.Draft = draft
	updated.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, &updated); err != nil {
		return s.snapshot(session), fmt.Errorf("save session: %w", err)
	}
	return s.snapshot(&updated), nil
}

// Submit sends the session's draft through the workflow. The draft stays in
// the session whatever the outcome; a receipt is attached only on success.
func (s *FormService) Submit(ctx context.Context, id string, documentURL *string) (Snapshot, error) {
	if _, err := s.sessions.Load(ctx, id); err != nil {
		return Snapshot{}, err
	}

	session, release, err := s.guard(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()

	record, err := s.submitter.Submit(ctx, session.Draft, documentURL)
	if err != nil {
		if !errors.Is(err, ErrNotAgreed) && !errors.Is(err, ErrIncompleteDraft) {
			s.logger.Warn("session submission failed", zap.String("session", id), zap.Error(err))
		}
		return s.snapshot(session), err
	}

	updated := *session
	updated.Receipt = record
	updated.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, &updated); err != nil {
		// The application is stored; only the session copy of the receipt is lost.
		s.logger.Error("save receipt to session", zap.String("session", id), zap.String("application", record.ID), zap.Error(err))
	}
	return s.snapshot(&updated), nil
}

// guard takes the session's guard and reloads the session under it. The
// returned release must be called once the caller is done writing.
func (s *FormService) guard(ctx context.Context, id string) (*domain.Session, func(), error) {
	token, acquired, err := s.sessions.Acquire(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire session guard: %w", err)
	}
	if !acquired {
		return nil, nil, ErrSubmissionInProgress
	}
	release := func() {
		if err := s.sessions.Release(context.WithoutCancel(ctx), id, token); err != nil {
			s.logger.Warn("release session guard", zap.String("session", id), zap.Error(err))
		}
	}

	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		release()
		return nil, nil, err
	}
	session.Loading = false
	return session, release, nil
}

// busySnapshot reports a guard failure together with the session as it
// currently stands, when it can still be read.
func (s *FormService) busySnapshot(ctx context.Context, id string, cause error) (Snapshot, error) {
	if !errors.Is(cause, ErrSubmissionInProgress) {
		return Snapshot{}, cause
	}
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return Snapshot{}, cause
	}
	return s.snapshot(session), cause
}

func (s *FormService) snapshot(session *domain.Session) Snapshot {
	return Snapshot{
		SessionID: session.ID,
		Draft:     session.Draft,
		Quote:     s.quoter.Quote(session.Draft.PaymentOption, session.Draft.Country),
		Loading:   session.Loading,
		Receipt:   session.Receipt,
	}
}
