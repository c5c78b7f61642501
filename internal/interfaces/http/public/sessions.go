package public

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
	"github.com/yesglobal/registration/api/internal/registration/application"
)

func (h *Handler) sessionStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := h.forms.Start(r.Context())
		if err != nil {
			h.writeError(w, err, nil)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, newSessionResponse(snapshot))
	}
}

func (h *Handler) sessionDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := h.forms.Snapshot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, err, nil)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSessionResponse(snapshot))
	}
}

func (h *Handler) sessionEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editDraftRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		edits, err := fieldEdits(req.Fields)
		if err != nil {
			h.writeError(w, err, nil)
			return
		}

		snapshot, err := h.forms.Edit(r.Context(), chi.URLParam(r, "id"), edits)
		if err != nil {
			h.writeError(w, err, nil)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSessionResponse(snapshot))
	}
}

func (h *Handler) sessionSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitSessionRequest
		if err := common.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, common.ErrEmptyBody) {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot, err := h.forms.Submit(r.Context(), chi.URLParam(r, "id"), normaliseDocumentURL(req.DocumentURL))
		if err != nil {
			h.writeError(w, err, sessionExtra(snapshot))
			return
		}

		go h.notifyApplicationReceipt(context.Background(), *snapshot.Receipt)

		common.WriteJSON(h.logger, w, http.StatusCreated, newSessionResponse(snapshot))
	}
}

// sessionExtra attaches the unchanged draft to a failed submit so the form can
// re-render it.
func sessionExtra(snapshot application.Snapshot) map[string]any {
	if snapshot.SessionID == "" {
		return nil
	}
	return map[string]any{"session": newSessionResponse(snapshot)}
}
