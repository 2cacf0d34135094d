// Package app wires configuration, storage and services into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/cache"
	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/handler"
	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/storage/local"
	"github.com/wadjakorntonsri/studio-cms/pkg/config"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/services"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

type App struct {
	Config      *config.Config
	Log         *logger.Logger
	Catalog     domain.Catalog
	Repo        *sqlite.SQLiteRepository
	Cache       ports.Cache
	Objects     *local.Store
	Feed        *services.NotificationFeed
	Collections *services.CollectionService
	Media       *services.MediaService
	Site        *services.SiteService
	Handler     http.Handler
}

// New builds the application. Collections are opened lazily unless Preload is called.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	catalog, err := config.LoadCatalog(cfg.CollectionsFile)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var c ports.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "studio:")
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c = rc
		log.Info("using redis cache")
	} else {
		c = cache.NewMemoryCache()
	}

	objects, err := local.NewStore(cfg.MediaDir, cfg.MediaBaseURL())
	if err != nil {
		_ = c.Close()
		_ = repo.Close()
		return nil, fmt.Errorf("open media store: %w", err)
	}

	feed := services.NewNotificationFeed(cfg.NotificationBuffer, log)
	site := services.NewSiteService(repo, c, catalog, cfg.CacheTTL, log)
	media := services.NewMediaService(objects, catalog, services.MediaServiceOptions{
		MaxBytes:        cfg.MaxUploadBytes,
		ThumbnailWidth:  cfg.ThumbnailWidth,
		ThumbnailHeight: cfg.ThumbnailHeight,
		Logger:          log,
	})
	collections := services.NewCollectionService(repo, catalog, services.CollectionServiceOptions{
		Media:          media,
		Site:           site,
		Notifier:       feed,
		Logger:         log,
		PersistTimeout: cfg.PersistTimeout,
	})

	router := handler.NewRouter(cfg, log, handler.Services{
		Collections:   collections,
		Media:         media,
		Site:          site,
		Notifications: feed,
		MediaFiles:    objects.Handler(),
	})

	return &App{
		Config:      cfg,
		Log:         log,
		Catalog:     catalog,
		Repo:        repo,
		Cache:       c,
		Objects:     objects,
		Feed:        feed,
		Collections: collections,
		Media:       media,
		Site:        site,
		Handler:     router,
	}, nil
}

// Close flushes pending order writes and releases every resource.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Collections.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush collections: %w", err))
	}
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if err := a.Repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
