package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/app"
	"github.com/wadjakorntonsri/studio-cms/pkg/config"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	// Vercel captures stdout, so always log JSON here
	log := logger.New(cfg.LogLevel, "json")

	// Note: On Vercel, db.sqlite and MEDIA_DIR are ephemeral unless DATABASE_URL points at Turso
	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	mux = application.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
