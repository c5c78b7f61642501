package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/config"
	awsinfra "github.com/yesglobal/registration/api/internal/infrastructure/aws"
	"github.com/yesglobal/registration/api/internal/infrastructure/memory"
	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	redisinfra "github.com/yesglobal/registration/api/internal/infrastructure/redis"
	commonhttp "github.com/yesglobal/registration/api/internal/interfaces/http/common"
	publichttp "github.com/yesglobal/registration/api/internal/interfaces/http/public"
	"github.com/yesglobal/registration/api/internal/logger"
	"github.com/yesglobal/registration/api/internal/registration/application"
)

// Dependencies are the external clients the server is assembled from. Redis
// and AWS are optional.
type Dependencies struct {
	Mongo  *mongo.Client
	Redis  goredis.UniversalClient
	AWS    *aws.Config
	Logger *zap.Logger
}

// Server owns the HTTP lifecycle and is the composition root: it builds the
// repositories and services and hands them to the handlers.
type Server struct {
	logger         *zap.Logger
	client         *mongo.Client
	redis          goredis.UniversalClient
	router         chi.Router
	addr           string
	allowedOrigins []string
}

// New wires config and clients into a ready-to-run Server.
func New(cfg config.Config, deps Dependencies) *Server {
	log := logger.OrNop(deps.Logger)
	database := deps.Mongo.Database(cfg.MongoDatabase)

	applications := mongodoc.NewApplicationRepository(database, cfg.ApplicationCollection, cfg.WriteTimeout)
	submissions := application.NewSubmissionService(applications, cfg.FeeSchedule(), log)

	var sessions application.SessionStore
	if deps.Redis != nil {
		sessions = redisinfra.NewSessionStore(deps.Redis, cfg.RedisKeyPrefix, cfg.SessionTTL)
	} else {
		log.Info("REDIS_ADDR not set, keeping sessions in memory")
		sessions = memory.NewSessionStore(cfg.SessionTTL)
	}
	forms := application.NewFormService(sessions, submissions, submissions, log)

	handlerCfg := publichttp.Config{
		Logger:              log,
		Applications:        submissions,
		Forms:               forms,
		UploadMaxBytes:      cfg.UploadMaxBytes,
		HTTPClient:          &http.Client{Timeout: cfg.MessengerTimeout},
		MessengerEndpoint:   normaliseBaseURL(cfg.MessengerEndpoint),
		DiscordDestination:  cfg.DiscordDestination,
		SlackDestination:    cfg.SlackDestination,
		AdmissionsEmail:     cfg.AdmissionsEmail,
		FailedNotifications: mongodoc.NewFailedNotificationRepository(database, cfg.FailedNotificationCollection),
	}
	if deps.AWS != nil {
		if cfg.UploadBucket != "" {
			handlerCfg.Documents = awsinfra.NewDocumentStore(*deps.AWS, cfg.UploadBucket, cfg.MediaBaseURL)
		}
		if cfg.AdmissionsEmail != "" {
			handlerCfg.Mailer = awsinfra.NewMailer(*deps.AWS, cfg.SESSender)
		}
	}

	srv := &Server{
		logger:         log,
		client:         deps.Mongo,
		redis:          deps.Redis,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)
	cors := newCORSPolicy(srv.allowedOrigins)
	router.Use(cors.middleware)

	router.Get("/healthz", srv.healthHandler())
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	publichttp.NewHandler(handlerCfg).Register(router)
	if err := cors.bind(router); err != nil {
		log.Warn("collect routes for cors", zap.Error(err))
	}

	srv.router = router
	return srv
}

// Handler exposes the assembled router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until the listener fails or the process is signalled.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// normaliseBaseURL trims whitespace and any trailing slash.
func normaliseBaseURL(input string) string {
	trimmed := strings.TrimSpace(input)
	return strings.TrimRight(trimmed, "/")
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(started)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// healthHandler pings MongoDB (and Redis when configured). It reports
// infrastructure state only.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		if s.redis != nil {
			if err := s.redis.Ping(ctx).Err(); err != nil {
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  "redis: " + err.Error(),
				})
				return
			}
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// shutdown disconnects the backing clients with a timeout.
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Warn("mongodb disconnect", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close", zap.Error(err))
		}
	}
}

// waitForShutdown blocks until ListenAndServe returns or SIGINT/SIGTERM
// arrives, then drains the server.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Warn("http server shutdown", zap.Error(err))
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
