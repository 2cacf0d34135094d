package handler

import (
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type NotificationHandler struct {
	feed ports.NotificationFeed
}

func NewNotificationHandler(feed ports.NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// List returns notifications newer than the "since" id.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, "since must be a non-negative integer")
			return
		}
		since = v
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": h.feed.Since(since)})
}
