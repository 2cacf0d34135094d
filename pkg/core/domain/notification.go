package domain

import "time"

type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is a transient message surfaced to the dashboard as a toast.
type Notification struct {
	ID         uint64            `json:"id"`
	Level      NotificationLevel `json:"level"`
	Collection string            `json:"collection,omitempty"`
	Message    string            `json:"message"`
	At         time.Time         `json:"at"`
}

// Asset is a stored media object.
type Asset struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Hash         string `json:"hash"`

	// Created lists the object paths this upload wrote, as opposed to reused.
	Created []string `json:"-"`
}
