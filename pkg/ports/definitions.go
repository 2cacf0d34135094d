package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

// DocumentStore defines storage operations for ordered collections
type DocumentStore interface {
	// FetchCollection returns every item of the collection. Callers normalize the order.
	FetchCollection(ctx context.Context, collection string) ([]domain.OrderedItem, error)
	// BatchUpdateSequences applies all updates atomically or none of them.
	BatchUpdateSequences(ctx context.Context, collection string, updates []domain.SequenceUpdate) error
	CreateItem(ctx context.Context, collection string, sequence int, payload domain.Payload) (string, error)
	DeleteItem(ctx context.Context, collection, id string) error // Missing ids are not an error
	UpdatePayload(ctx context.Context, collection, id string, payload domain.Payload) error

	// Migration
	Dump(ctx context.Context) ([]domain.Document, error)
	Restore(ctx context.Context, docs []domain.Document) (int, error)
}

// ObjectStore stores binary media and returns durable URLs
type ObjectStore interface {
	// Upload reports created=false when an object already existed at path.
	Upload(ctx context.Context, path string, data []byte) (url string, created bool, err error)
	Delete(ctx context.Context, path string) error
}

// Cache is a byte cache with expiry
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Notifier surfaces transient messages to the dashboard
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// CollectionView is the admin representation of a live collection
type CollectionView struct {
	domain.CollectionDefinition
	State string               `json:"state"`
	Epoch uint64               `json:"epoch"`
	Items []domain.OrderedItem `json:"items"`
}

// Upload is a file received from the dashboard
type Upload struct {
	Filename string
	Data     []byte
}

// CollectionService defines business logic for ordered collections
type CollectionService interface {
	ListCollections(ctx context.Context) ([]CollectionView, error)
	GetCollection(ctx context.Context, name string) (*CollectionView, error)
	CreateItem(ctx context.Context, name string, payload domain.Payload, file *Upload) (*domain.OrderedItem, error)
	PatchItem(ctx context.Context, name, id string, patch []byte) (*domain.OrderedItem, error)
	SetCredit(ctx context.Context, name, id, key string, value *string, visible *bool) (*domain.OrderedItem, error)
	DeleteCredit(ctx context.Context, name, id, key string) (*domain.OrderedItem, error)
	DeleteItem(ctx context.Context, name, id string) error
	Move(ctx context.Context, name string, from, to int) (*CollectionView, error)
	Reorder(ctx context.Context, name string, ids []string) (*CollectionView, error)
	Reload(ctx context.Context, name string) (*CollectionView, error)
}

// MediaService defines upload handling
type MediaService interface {
	Upload(ctx context.Context, collection string, file Upload) (*domain.Asset, error)
	// Discard removes the objects an upload created. Objects it reused are kept.
	Discard(ctx context.Context, asset *domain.Asset) error
}

// SiteService defines the public read projection
type SiteService interface {
	PublicCollection(ctx context.Context, name string) ([]byte, error)
	Invalidate(ctx context.Context, name string)
}

// NotificationFeed lets the dashboard poll notifications
type NotificationFeed interface {
	Notifier
	Since(id uint64) []domain.Notification
}
