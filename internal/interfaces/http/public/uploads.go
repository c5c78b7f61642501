package public

import (
	"errors"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yesglobal/registration/api/internal/interfaces/http/common"
	"github.com/yesglobal/registration/api/internal/metrics"
)

func (h *Handler) uploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes+(1<<20))
		if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, "file is too large")
				return
			}
			common.WriteError(h.logger, w, http.StatusBadRequest, "multipart form with a file field is required")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			common.WriteError(h.logger, w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		if header.Size > h.uploadMaxBytes {
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}

		url, err := h.documents.Put(r.Context(), filepath.Base(header.Filename), header.Header.Get("Content-Type"), file)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
			h.logger.Error("store uploaded document", zap.String("filename", header.Filename), zap.Error(err))
			common.WriteError(h.logger, w, http.StatusBadGateway, "could not store document")
			return
		}

		metrics.UploadsTotal.WithLabelValues("stored").Inc()
		common.WriteJSON(h.logger, w, http.StatusCreated, uploadResponse{URL: url})
	}
}
