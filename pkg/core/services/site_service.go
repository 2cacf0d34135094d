package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/ordering"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

const siteCacheKeyPrefix = "site:collection:"

// SiteService serves the read-only projection used by the public website.
// It reads the stored order, never the dashboard's optimistic one.
type SiteService struct {
	store   ports.DocumentStore
	cache   ports.Cache
	catalog domain.Catalog
	ttl     time.Duration
	log     *logger.Logger

	mu          sync.Mutex
	generations map[string]uint64 // bumped by Invalidate
}

type publicItem struct {
	ID           string             `json:"id"`
	Position     int                `json:"position"`
	Title        string             `json:"title,omitempty"`
	Subtitle     string             `json:"subtitle,omitempty"`
	ImageURL     string             `json:"image_url,omitempty"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	VideoURL     string             `json:"video_url,omitempty"`
	Link         string             `json:"link,omitempty"`
	Credits      domain.Annotations `json:"credits,omitempty"`
}

type publicCollection struct {
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Items []publicItem `json:"items"`
}

func NewSiteService(store ports.DocumentStore, cache ports.Cache, catalog domain.Catalog, ttl time.Duration, log *logger.Logger) *SiteService {
	if log == nil {
		log = logger.Discard()
	}
	return &SiteService{
		store:       store,
		cache:       cache,
		catalog:     catalog,
		ttl:         ttl,
		log:         log,
		generations: make(map[string]uint64),
	}
}

// PublicCollection returns the JSON document for a public collection.
func (s *SiteService) PublicCollection(ctx context.Context, name string) ([]byte, error) {
	def, ok := s.catalog.Lookup(name)
	if !ok || !def.Public {
		return nil, apperr.Newf(apperr.CodeUnknownCollection, "unknown collection %q", name)
	}

	key := siteCacheKeyPrefix + name
	if cached, hit, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("site cache read failed", "collection", name, "error", err)
	} else if hit {
		return cached, nil
	}

	gen := s.generation(name)
	items, err := s.store.FetchCollection(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodePersistence, "failed to load collection")
	}
	items = ordering.Normalize(items)

	doc := publicCollection{Name: def.Name, Label: def.Label, Items: make([]publicItem, 0, len(items))}
	for _, item := range items {
		p := item.Payload
		doc.Items = append(doc.Items, publicItem{
			ID:           item.ID,
			Position:     item.Sequence,
			Title:        p.Title,
			Subtitle:     p.Subtitle,
			ImageURL:     p.ImageURL,
			ThumbnailURL: p.ThumbnailURL,
			VideoURL:     p.VideoURL,
			Link:         p.Link,
			Credits:      p.Credits.Visible(),
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[name] != gen {
		// a write landed while we were reading; the rows may predate it
		s.log.Debug("skipping site cache write after invalidation", "collection", name)
		return data, nil
	}
	// held under mu so an Invalidate cannot slip between the check and the write
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn("site cache write failed", "collection", name, "error", err)
	}
	return data, nil
}

func (s *SiteService) generation(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[name]
}

func (s *SiteService) Invalidate(ctx context.Context, name string) {
	s.mu.Lock()
	s.generations[name]++
	s.mu.Unlock()
	if err := s.cache.Delete(ctx, siteCacheKeyPrefix+name); err != nil {
		s.log.Warn("site cache invalidation failed", "collection", name, "error", err)
	}
}

var _ ports.SiteService = (*SiteService)(nil)
