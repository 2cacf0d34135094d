package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/ordering"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

const openTimeout = 15 * time.Second

type CollectionServiceOptions struct {
	Media          ports.MediaService
	Site           ports.SiteService
	Notifier       ports.Notifier
	Logger         *logger.Logger
	PersistTimeout time.Duration
}

// CollectionService keeps one live ordering.Collection per catalogue entry.
type CollectionService struct {
	store   ports.DocumentStore
	catalog domain.Catalog
	opts    CollectionServiceOptions
	log     *logger.Logger

	mu    sync.Mutex
	open  map[string]*ordering.Collection
	group singleflight.Group
}

func NewCollectionService(store ports.DocumentStore, catalog domain.Catalog, opts CollectionServiceOptions) *CollectionService {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &CollectionService{
		store:   store,
		catalog: catalog,
		opts:    opts,
		log:     log,
		open:    make(map[string]*ordering.Collection),
	}
}

// Preload opens every catalogue collection concurrently.
func (s *CollectionService) Preload(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range s.catalog.Names() {
		g.Go(func() error {
			_, _, err := s.collection(gctx, name)
			return err
		})
	}
	return g.Wait()
}

func (s *CollectionService) ListCollections(ctx context.Context) ([]ports.CollectionView, error) {
	views := make([]ports.CollectionView, 0, len(s.catalog))
	for _, def := range s.catalog {
		c, _, err := s.collection(ctx, def.Name)
		if err != nil {
			return nil, err
		}
		views = append(views, *view(def, c))
	}
	return views, nil
}

func (s *CollectionService) GetCollection(ctx context.Context, name string) (*ports.CollectionView, error) {
	c, def, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	return view(def, c), nil
}

func (s *CollectionService) CreateItem(ctx context.Context, name string, payload domain.Payload, file *ports.Upload) (*domain.OrderedItem, error) {
	c, _, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := payload.Credits.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation, "invalid credits")
	}

	var asset *domain.Asset
	if file != nil {
		if s.opts.Media == nil {
			return nil, apperr.New(apperr.CodeUploadRejected, "uploads are not configured")
		}
		asset, err = s.opts.Media.Upload(ctx, name, *file)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(asset.ContentType, "video/") {
			payload.VideoURL = asset.URL
		} else {
			payload.ImageURL = asset.URL
		}
		if asset.ThumbnailURL != "" {
			payload.ThumbnailURL = asset.ThumbnailURL
		}
	}

	item, err := c.InsertAppend(ctx, payload)
	if err != nil {
		if asset != nil {
			// the item never existed, so its freshly written objects are orphans
			if derr := s.opts.Media.Discard(context.WithoutCancel(ctx), asset); derr != nil {
				s.log.Warn("failed to discard upload", "collection", name, "hash", asset.Hash, "error", derr)
			}
		}
		return nil, err
	}
	s.log.Info("item created", "collection", name, "id", item.ID, "sequence", item.Sequence)
	s.invalidate(name)
	return &item, nil
}

// PatchItem applies an RFC 7396 merge patch to the item's payload.
func (s *CollectionService) PatchItem(ctx context.Context, name, id string, patch []byte) (*domain.OrderedItem, error) {
	c, _, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	item, ok := c.Item(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "item %s not found in %s", id, name)
	}

	current, err := json.Marshal(item.Payload)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation, "invalid merge patch")
	}
	var next domain.Payload
	if err := json.Unmarshal(merged, &next); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation, "patched payload is invalid")
	}
	return s.savePayload(ctx, c, name, item, next)
}

// SetCredit adds or updates one credit on the item. A nil value keeps the
// current value and a nil visible keeps the current flag.
func (s *CollectionService) SetCredit(ctx context.Context, name, id, key string, value *string, visible *bool) (*domain.OrderedItem, error) {
	c, _, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	item, ok := c.Item(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "item %s not found in %s", id, name)
	}

	credits := item.Payload.Credits
	if _, exists := credits.Get(key); !exists && value == nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "credit %q not found", key)
	}
	if value != nil {
		credits = credits.Set(key, *value)
	}
	if visible != nil {
		credits = credits.SetVisible(key, *visible)
	}

	next := item.Payload
	next.Credits = credits
	return s.savePayload(ctx, c, name, item, next)
}

// DeleteCredit removes one credit from the item. Missing keys succeed.
func (s *CollectionService) DeleteCredit(ctx context.Context, name, id, key string) (*domain.OrderedItem, error) {
	c, _, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	item, ok := c.Item(id)
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "item %s not found in %s", id, name)
	}
	if _, exists := item.Payload.Credits.Get(key); !exists {
		return &item, nil
	}

	next := item.Payload
	next.Credits = item.Payload.Credits.Delete(key)
	return s.savePayload(ctx, c, name, item, next)
}

// savePayload writes next straight to the store, bypassing the ordering
// worker, then mirrors it into memory.
func (s *CollectionService) savePayload(ctx context.Context, c *ordering.Collection, name string, item domain.OrderedItem, next domain.Payload) (*domain.OrderedItem, error) {
	if err := next.Credits.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeValidation, "invalid credits")
	}

	if err := s.store.UpdatePayload(ctx, name, item.ID, next); err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.CodePersistence, "failed to update item")
	}
	c.ReplacePayload(item.ID, next)
	s.invalidate(name)

	item.Payload = next
	if updated, ok := c.Item(item.ID); ok {
		item = updated
	}
	return &item, nil
}

// DeleteItem removes the item; unknown ids succeed.
func (s *CollectionService) DeleteItem(ctx context.Context, name, id string) error {
	c, _, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	_, removed, err := c.Remove(id)
	if err != nil {
		return err
	}
	if removed {
		s.log.Info("item removed", "collection", name, "id", id)
	}
	return nil
}

func (s *CollectionService) Move(ctx context.Context, name string, from, to int) (*ports.CollectionView, error) {
	c, def, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := c.Move(from, to); err != nil {
		return nil, err
	}
	return view(def, c), nil
}

func (s *CollectionService) Reorder(ctx context.Context, name string, ids []string) (*ports.CollectionView, error) {
	c, def, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := c.Reorder(ids); err != nil {
		return nil, err
	}
	return view(def, c), nil
}

func (s *CollectionService) Reload(ctx context.Context, name string) (*ports.CollectionView, error) {
	c, def, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	// wait for in-flight writes so the reload cannot read an order older than memory
	if err := c.Flush(ctx); err != nil {
		return nil, err
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return view(def, c), nil
}

// Flush waits for every open collection's pending writes.
func (s *CollectionService) Flush(ctx context.Context) error {
	var errs []error
	for _, c := range s.snapshot() {
		if err := c.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and stops every open collection.
func (s *CollectionService) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	for _, c := range s.snapshot() {
		_ = c.Close()
	}
	s.mu.Lock()
	s.open = make(map[string]*ordering.Collection)
	s.mu.Unlock()
	return err
}

func (s *CollectionService) snapshot() []*ordering.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ordering.Collection, 0, len(s.open))
	for _, c := range s.open {
		out = append(out, c)
	}
	return out
}

func (s *CollectionService) collection(ctx context.Context, name string) (*ordering.Collection, domain.CollectionDefinition, error) {
	def, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, def, apperr.Newf(apperr.CodeUnknownCollection, "unknown collection %q", name)
	}

	s.mu.Lock()
	c := s.open[name]
	s.mu.Unlock()
	if c != nil {
		return c, def, nil
	}

	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		s.mu.Lock()
		existing := s.open[name]
		s.mu.Unlock()
		if existing != nil {
			return existing, nil
		}

		// shared by every waiter, so it must not die with the first caller's request
		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
		defer cancel()

		opened, err := ordering.Open(openCtx, name, s.store,
			ordering.WithLogger(s.log),
			ordering.WithNotifier(s.opts.Notifier),
			ordering.WithPersistTimeout(s.opts.PersistTimeout),
			ordering.WithOnPersisted(s.invalidate),
			ordering.WithObserver(func(from, to ordering.State) {
				s.log.Info("collection state changed", "collection", name, "from", from.String(), "to", to.String())
			}),
		)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.open[name] = opened
		s.mu.Unlock()
		s.log.Info("collection opened", "collection", name, "items", len(opened.Items()))
		return opened, nil
	})
	if err != nil {
		return nil, def, err
	}
	return v.(*ordering.Collection), def, nil
}

func (s *CollectionService) invalidate(name string) {
	if s.opts.Site != nil {
		s.opts.Site.Invalidate(context.Background(), name)
	}
}

func view(def domain.CollectionDefinition, c *ordering.Collection) *ports.CollectionView {
	snap := c.Snapshot()
	return &ports.CollectionView{
		CollectionDefinition: def,
		State:                snap.State.String(),
		Epoch:                snap.Epoch,
		Items:                snap.Items,
	}
}

var _ ports.CollectionService = (*CollectionService)(nil)
