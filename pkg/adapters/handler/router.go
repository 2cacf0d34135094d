package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/config"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

// Services groups what the router dispatches to.
type Services struct {
	Collections   ports.CollectionService
	Media         ports.MediaService
	Site          ports.SiteService
	Notifications ports.NotificationFeed
	// MediaFiles serves stored objects under /media/. Optional.
	MediaFiles http.Handler
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, log *logger.Logger, svc Services) http.Handler {
	ch := NewCollectionHandler(svc.Collections, cfg.MaxUploadBytes, log)
	mh := NewMediaHandler(svc.Media, cfg.MaxUploadBytes, log)
	sh := NewSiteHandler(svc.Site, log)
	nh := NewNotificationHandler(svc.Notifications)

	mw := NewMiddleware(cfg, log)
	authHandler := NewAuthHandler(cfg, log)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /site/collections/{name}", sh.GetCollection)
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)
	if svc.MediaFiles != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", svc.MediaFiles))
	}

	// Protected Routes
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /api/v1/collections", ch.ListCollections)
	protectedMux.HandleFunc("GET /api/v1/collections/{name}", ch.GetCollection)
	protectedMux.HandleFunc("POST /api/v1/collections/{name}/items", ch.CreateItem)
	protectedMux.HandleFunc("PATCH /api/v1/collections/{name}/items/{id}", ch.PatchItem)
	protectedMux.HandleFunc("DELETE /api/v1/collections/{name}/items/{id}", ch.DeleteItem)
	protectedMux.HandleFunc("PUT /api/v1/collections/{name}/items/{id}/credits/{key}", ch.SetCredit)
	protectedMux.HandleFunc("DELETE /api/v1/collections/{name}/items/{id}/credits/{key}", ch.DeleteCredit)
	protectedMux.HandleFunc("POST /api/v1/collections/{name}/move", ch.Move)
	protectedMux.HandleFunc("PUT /api/v1/collections/{name}/order", ch.Reorder)
	protectedMux.HandleFunc("POST /api/v1/collections/{name}/reload", ch.Reload)
	protectedMux.HandleFunc("POST /api/v1/media", mh.Upload)
	protectedMux.HandleFunc("GET /api/v1/notifications", nh.List)

	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	return mw.RequestLogger(mux)
}
