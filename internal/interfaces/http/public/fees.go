package public

import (
	"net/http"

	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

func (h *Handler) quoteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		option, err := domain.ParsePaymentOption(common.QueryValue(r, "paymentOption"))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		quote := h.applications.Quote(option, common.QueryValue(r, "country"))
		common.WriteJSON(h.logger, w, http.StatusOK, newQuoteResponse(quote))
	}
}
