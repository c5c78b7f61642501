package public

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
	"github.com/yesglobal/registration/api/internal/registration/application"
)

// statusFor maps workflow and session errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrNotAgreed),
		errors.Is(err, application.ErrInvalidEdit):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrIncompleteDraft):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, application.ErrPersistenceFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the {"error": ...} payload. Persistence failures show the
// store's own message; incomplete drafts list the missing fields.
func errorBody(err error) map[string]any {
	body := map[string]any{"error": err.Error()}

	var persistence *application.PersistenceError
	var incomplete *application.IncompleteDraftError
	switch {
	case errors.As(err, &persistence):
		body["error"] = persistence.Message()
	case errors.As(err, &incomplete):
		body["error"] = application.ErrIncompleteDraft.Error()
		body["fields"] = incomplete.Fields
	case errors.Is(err, application.ErrNotAgreed):
		body["error"] = application.ErrNotAgreed.Error()
	}
	return body
}

func (h *Handler) writeError(w http.ResponseWriter, err error, extra map[string]any) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		common.WriteError(h.logger, w, status, "internal server error")
		return
	}
	body := errorBody(err)
	for k, v := range extra {
		body[k] = v
	}
	common.WriteJSON(h.logger, w, status, body)
}

// normaliseDocumentURL treats a blank URL as no document.
func normaliseDocumentURL(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// fieldEdits converts JSON edit values to the string form the draft accepts.
func fieldEdits(fields map[string]any) (map[string]string, error) {
	edits := make(map[string]string, len(fields))
	for name, raw := range fields {
		switch v := raw.(type) {
		case string:
			edits[name] = strings.TrimSpace(v)
		case bool:
			edits[name] = strconv.FormatBool(v)
		case nil:
			edits[name] = ""
		default:
			return nil, fmt.Errorf("%w: %s must be a string or boolean", application.ErrInvalidEdit, name)
		}
	}
	return edits, nil
}
