package services

import (
	"context"
	"sync"
	"time"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/logger"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

// NotificationFeed keeps the most recent notifications for the dashboard to poll.
type NotificationFeed struct {
	mu       sync.Mutex
	items    []domain.Notification
	capacity int
	lastID   uint64
	log      *logger.Logger
}

func NewNotificationFeed(capacity int, log *logger.Logger) *NotificationFeed {
	if capacity <= 0 {
		capacity = 100
	}
	return &NotificationFeed{capacity: capacity, log: log}
}

func (f *NotificationFeed) Notify(_ context.Context, n domain.Notification) {
	f.mu.Lock()
	f.lastID++
	n.ID = f.lastID
	if n.At.IsZero() {
		n.At = time.Now()
	}
	f.items = append(f.items, n)
	if len(f.items) > f.capacity {
		f.items = append([]domain.Notification(nil), f.items[len(f.items)-f.capacity:]...)
	}
	f.mu.Unlock()

	f.log.Info("notification", "id", n.ID, "level", string(n.Level), "collection", n.Collection, "message", n.Message)
}

// Since returns notifications newer than id, oldest first.
func (f *NotificationFeed) Since(id uint64) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.Notification{}
	for _, n := range f.items {
		if n.ID > id {
			out = append(out, n)
		}
	}
	return out
}

var _ ports.NotificationFeed = (*NotificationFeed)(nil)
