package handler

import (
	"io"
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type MediaHandler struct {
	service  ports.MediaService
	maxBytes int64
	log      *logger.Logger
}

func NewMediaHandler(service ports.MediaService, maxBytes int64, log *logger.Logger) *MediaHandler {
	return &MediaHandler{service: service, maxBytes: maxBytes, log: log}
}

// Upload stores a file for a collection without creating an item.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isTooLarge(err) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		badRequest(w, "invalid multipart form")
		return
	}

	collection := r.FormValue("collection")
	if collection == "" {
		badRequest(w, "collection is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read file")
		return
	}

	asset, err := h.service.Upload(r.Context(), collection, ports.Upload{Filename: header.Filename, Data: data})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}
