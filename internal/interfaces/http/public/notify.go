package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	mongodoc "github.com/yesglobal/registration/api/internal/infrastructure/mongo"
	"github.com/yesglobal/registration/api/internal/metrics"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

const (
	discordAttempts = 3
	admissionsTitle = "New application received:"
)

// notifyApplicationReceipt tells the admissions team about a stored
// application. It runs detached from the request; failures are logged and,
// when no channel accepted the message, parked in failed_notifications.
func (h *Handler) notifyApplicationReceipt(ctx context.Context, record domain.Record) {
	if ctx == nil {
		ctx = context.Background()
	}

	message := buildAdmissionsMessage(record)
	var (
		errs      []error
		attempts  int
		delivered bool
		tried     bool
	)

	if dest := strings.TrimSpace(h.discordDestination); dest != "" {
		tried = true
		attempts += discordAttempts
		if err := h.sendMessengerWithRetry(ctx, dest, record.ID, message, discordAttempts, h.retryDelay); err != nil {
			metrics.NotificationsFailed.WithLabelValues("discord").Inc()
			h.logger.Warn("discord notification failed", zap.String("application", record.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("discord: %w", err))
		} else {
			delivered = true
		}
	}

	if dest := strings.TrimSpace(h.slackDestination); dest != "" && !delivered {
		tried = true
		attempts++
		if err := h.sendMessengerWithRetry(ctx, dest, record.ID, buildSlackMessage(record), 1, 0); err != nil {
			metrics.NotificationsFailed.WithLabelValues("slack").Inc()
			h.logger.Warn("slack notification failed", zap.String("application", record.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("slack: %w", err))
		} else {
			delivered = true
		}
	}

	if h.mailer != nil && h.admissionsEmail != "" {
		tried = true
		attempts++
		subject := fmt.Sprintf("New application: %s (%s)", record.FullName(), record.Country)
		if err := h.mailer.Send(ctx, h.admissionsEmail, subject, message); err != nil {
			metrics.NotificationsFailed.WithLabelValues("email").Inc()
			h.logger.Warn("admissions email failed", zap.String("application", record.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			delivered = true
		}
	}

	if !tried || delivered {
		return
	}
	h.persistNotificationFailure(ctx, record, message, errors.Join(errs...), attempts)
}

func buildAdmissionsMessage(record domain.Record) string {
	return domain.Summary(record, admissionsTitle)
}

func buildSlackMessage(record domain.Record) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(":mortar_board: New application from %s\n", record.FullName()))
	builder.WriteString(fmt.Sprintf("Country: %s\n", record.Country))
	builder.WriteString(fmt.Sprintf("Payment: %s ($%s)\n", record.PaymentOption.Label(), domain.FormatFee(record.Fee)))
	if record.IsDiscounted {
		builder.WriteString("Regional discount applied\n")
	}
	if record.ID != "" {
		builder.WriteString(fmt.Sprintf("Reference: %s\n", record.ID))
	}
	return builder.String()
}

func (h *Handler) sendMessengerWithRetry(ctx context.Context, destination, userID, text string, attempts int, delay time.Duration) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return errors.New("destination is empty")
	}
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := h.sendMessengerMessage(ctx, destination, userID, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if delay > 0 && i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return lastErr
}

func (h *Handler) persistNotificationFailure(ctx context.Context, record domain.Record, message string, cause error, attempts int) {
	if h.failedNotifications == nil || cause == nil {
		return
	}
	body := mongodoc.NotificationBody{
		ApplicationID: record.ID,
		Name:          record.FullName(),
		Country:       record.Country,
		PaymentOption: record.PaymentOption.String(),
		Fee:           record.Fee,
		Message:       message,
	}
	if err := h.failedNotifications.Record(ctx, body, cause, attempts); err != nil {
		h.logger.Error("persist failed notification", zap.String("application", record.ID), zap.Error(err))
	}
}

func (h *Handler) sendMessengerMessage(ctx context.Context, destination, userID, bodyText string) error {
	trimmedUserID := strings.TrimSpace(userID)
	if trimmedUserID == "" {
		trimmedUserID = "admissions"
	}

	payload := map[string]any{
		"userId": trimmedUserID,
		"text":   bodyText,
	}
	if dest := strings.TrimSpace(destination); dest != "" {
		payload["destination"] = dest
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode messenger payload: %w", err)
	}

	timeout := h.httpClient.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimRight(h.messengerEndpoint, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build messenger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("messenger returned status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}

	return nil
}
