package public

import (
	"context"
	"net/http"

	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
)

func (h *Handler) applicationCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createApplicationRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		draft, err := req.toDomain()
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		record, err := h.applications.Submit(r.Context(), draft, normaliseDocumentURL(req.DocumentURL))
		if err != nil {
			h.writeError(w, err, nil)
			return
		}

		go h.notifyApplicationReceipt(context.Background(), *record)

		common.WriteJSON(h.logger, w, http.StatusCreated, newReceiptResponse(record))
	}
}
