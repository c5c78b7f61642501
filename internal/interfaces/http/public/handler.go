package public

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

// ApplicationService is the stateless submission workflow.
type ApplicationService interface {
	Submit(ctx context.Context, draft domain.Draft, documentURL *string) (*domain.Record, error)
	Quote(option domain.PaymentOption, country string) domain.Quote
}

// FormService drives server-side form sessions.
type FormService interface {
	Start(ctx context.Context) (application.Snapshot, error)
	Snapshot(ctx context.Context, id string) (application.Snapshot, error)
	Edit(ctx context.Context, id string, edits map[string]string) (application.Snapshot, error)
	Submit(ctx context.Context, id string, documentURL *string) (application.Snapshot, error)
}

// DocumentStore keeps uploaded supporting documents.
type DocumentStore interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// Mailer delivers the admissions email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// FailedNotificationRecorder parks notifications that no channel accepted.
type FailedNotificationRecorder interface {
	Record(ctx context.Context, body mongodoc.NotificationBody, cause error, attempts int) error
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger              *zap.Logger
	applications        ApplicationService
	forms               FormService
	documents           DocumentStore
	uploadMaxBytes      int64
	httpClient          *http.Client
	messengerEndpoint   string
	discordDestination  string
	slackDestination    string
	mailer              Mailer
	admissionsEmail     string
	failedNotifications FailedNotificationRecorder
	retryDelay          time.Duration
}

// Config defines dependencies required by Handler. Documents, Mailer and
// FailedNotifications are optional.
type Config struct {
	Logger              *zap.Logger
	Applications        ApplicationService
	Forms               FormService
	Documents           DocumentStore
	UploadMaxBytes      int64
	HTTPClient          *http.Client
	MessengerEndpoint   string
	DiscordDestination  string
	SlackDestination    string
	Mailer              Mailer
	AdmissionsEmail     string
	FailedNotifications FailedNotificationRecorder
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	maxBytes := cfg.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = common.DefaultMaxUploadBytes
	}
	return &Handler{
		logger:              logger.OrNop(cfg.Logger).Named("http"),
		applications:        cfg.Applications,
		forms:               cfg.Forms,
		documents:           cfg.Documents,
		uploadMaxBytes:      maxBytes,
		httpClient:          httpClient,
		messengerEndpoint:   cfg.MessengerEndpoint,
		discordDestination:  cfg.DiscordDestination,
		slackDestination:    cfg.SlackDestination,
		mailer:              cfg.Mailer,
		admissionsEmail:     cfg.AdmissionsEmail,
		failedNotifications: cfg.FailedNotifications,
		retryDelay:          200 * time.Millisecond,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/fees/quote", h.quoteHandler())
	r.Post("/applications", h.applicationCreateHandler())
	r.Post("/sessions", h.sessionStartHandler())
	r.Get("/sessions/{id}", h.sessionDetailHandler())
	r.Patch("/sessions/{id}/draft", h.sessionEditHandler())
	r.Post("/sessions/{id}/submit", h.sessionSubmitHandler())
	if h.documents != nil {
		r.Post("/uploads", h.uploadHandler())
	}
}
