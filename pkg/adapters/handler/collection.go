package handler

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type CollectionHandler struct {
	service  ports.CollectionService
	maxBytes int64
	log      *logger.Logger
}

func NewCollectionHandler(service ports.CollectionService, maxBytes int64, log *logger.Logger) *CollectionHandler {
	return &CollectionHandler{service: service, maxBytes: maxBytes, log: log}
}

type moveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type creditRequest struct {
	Value   *string `json:"value"`
	Visible *bool   `json:"visible"`
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListCollections(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCollection(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateItem accepts either a JSON payload or a multipart form with a
// "payload" JSON field and an optional "file".
func (h *CollectionHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))

	var (
		payload domain.Payload
		upload  *ports.Upload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			if isTooLarge(err) {
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			badRequest(w, "invalid multipart form")
			return
		}
		if raw := r.FormValue("payload"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				badRequest(w, "invalid payload")
				return
			}
		}
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				badRequest(w, "failed to read file")
				return
			}
			upload = &ports.Upload{Filename: header.Filename, Data: data}
		} else if err != http.ErrMissingFile {
			badRequest(w, "invalid file")
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if isTooLarge(err) {
				http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
				return
			}
			badRequest(w, "invalid request body")
			return
		}
	}

	item, err := h.service.CreateItem(r.Context(), name, payload, upload)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// PatchItem applies a JSON merge patch to an item's payload.
func (h *CollectionHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		badRequest(w, "invalid request body")
		return
	}
	item, err := h.service.PatchItem(r.Context(), r.PathValue("name"), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// SetCredit adds a credit or changes its value or visibility.
func (h *CollectionHandler) SetCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Value == nil && req.Visible == nil) {
		badRequest(w, "value or visible is required")
		return
	}
	item, err := h.service.SetCredit(r.Context(), r.PathValue("name"), r.PathValue("id"), r.PathValue("key"), req.Value, req.Visible)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CollectionHandler) DeleteCredit(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.DeleteCredit(r.Context(), r.PathValue("name"), r.PathValue("id"), r.PathValue("key"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CollectionHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), r.PathValue("name"), r.PathValue("id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move returns the optimistic order; persistence happens in the background.
func (h *CollectionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == nil || req.To == nil {
		badRequest(w, "from and to are required")
		return
	}
	view, err := h.service.Move(r.Context(), r.PathValue("name"), *req.From, *req.To)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CollectionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	view, err := h.service.Reorder(r.Context(), r.PathValue("name"), req.IDs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CollectionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Reload(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
