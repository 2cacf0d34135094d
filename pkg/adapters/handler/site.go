package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type SiteHandler struct {
	service ports.SiteService
	log     *logger.Logger
}

func NewSiteHandler(service ports.SiteService, log *logger.Logger) *SiteHandler {
	return &SiteHandler{service: service, log: log}
}

func (h *SiteHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.PublicCollection(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = w.Write(data)
}
