package domain

// OrderedItem is a document in an ordered content collection (a hero banner,
// a still, a motion, ...). Sequence defines its display position.
type OrderedItem struct {
	ID       string  `json:"id"`
	Sequence int     `json:"sequence"`
	Payload  Payload `json:"payload"`
}

// Payload is the content attached to an item. The ordering layer never reads it.
type Payload struct {
	Title        string      `json:"title,omitempty"`
	Subtitle     string      `json:"subtitle,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	VideoURL     string      `json:"video_url,omitempty"`
	Link         string      `json:"link,omitempty"`
	Credits      Annotations `json:"credits,omitempty"`
}

// SequenceUpdate is one entry of a batch sequence write.
type SequenceUpdate struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
}

// Document is an item together with the collection it belongs to. Used for dumps.
type Document struct {
	Collection string `json:"collection"`
	OrderedItem
}
