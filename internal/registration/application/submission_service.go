package application

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/metrics"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// requiredFields is the trimmed view of a draft that must be filled in.
type requiredFields struct {
	FirstName       string `json:"firstName" validate:"required"`
	Surname         string `json:"surname" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Country         string `json:"country" validate:"required"`
	PreviousProgram string `json:"previousProgram" validate:"required"`
	IntendedProgram string `json:"intendedProgram" validate:"required"`
}

// SubmissionService validates, prices and stores applications.
type SubmissionService struct {
	repo     ApplicationRepository
	schedule domain.FeeSchedule
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewSubmissionService(repo ApplicationRepository, schedule domain.FeeSchedule, log *zap.Logger) *SubmissionService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return &SubmissionService{
		repo:     repo,
		schedule: schedule,
		logger:   logger.OrNop(log).Named("submission"),
		validate: validate,
		now:      time.Now,
	}
}

// Quote prices a draft without side effects; the form calls it on every edit.
func (s *SubmissionService) Quote(option domain.PaymentOption, country string) domain.Quote {
	return s.schedule.Quote(option, country)
}

// Submit runs one attempt. The draft is passed by value and is never
// modified; on failure the caller still holds it for a retry.
func (s *SubmissionService) Submit(ctx context.Context, draft domain.Draft, documentURL *string) (*domain.Record, error) {
	if !draft.Agreed {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeNotAgreed).Inc()
		return nil, ErrNotAgreed
	}
	if err := s.checkRequired(draft); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeIncomplete).Inc()
		return nil, err
	}

	fee, discounted := s.schedule.ComputeFee(draft.PaymentOption, draft.Country)
	record := &domain.Record{
		Draft:        draft,
		Fee:          fee,
		IsDiscounted: discounted,
		DocumentURL:  copyString(documentURL),
		Timestamp:    s.now().UTC(),
	}

	started := time.Now()
	err := s.repo.Insert(ctx, record)
	metrics.InsertDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Error("application insert failed",
			zap.String("paymentOption", draft.PaymentOption.String()),
			zap.Error(err),
		)
		return nil, &PersistenceError{Err: err}
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSucceeded).Inc()
	metrics.ApplicationsCreated.WithLabelValues(draft.PaymentOption.String(), strconv.FormatBool(discounted)).Inc()
	s.logger.Info("application stored",
		zap.String("id", record.ID),
		zap.String("paymentOption", draft.PaymentOption.String()),
		zap.Float64("fee", fee),
		zap.Bool("isDiscounted", discounted),
	)
	return record, nil
}

func (s *SubmissionService) checkRequired(draft domain.Draft) error {
	view := requiredFields{
		FirstName:       strings.TrimSpace(draft.FirstName),
		Surname:         strings.TrimSpace(draft.Surname),
		Phone:           strings.TrimSpace(draft.Phone),
		Country:         strings.TrimSpace(draft.Country),
		PreviousProgram: strings.TrimSpace(draft.PreviousProgram),
		IntendedProgram: strings.TrimSpace(draft.IntendedProgram),
	}
	err := s.validate.Struct(view)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	missing := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		missing = append(missing, fieldErr.Field())
	}
	return &IncompleteDraftError{Fields: missing}
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
