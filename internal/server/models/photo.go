package models

import "time"

// Photo is a single uploaded image. The row is inserted bare first to get
// its ID; Filename and both URLs are filled in once the storage keys have
// been derived from that ID.
type Photo struct {
	ID           int64     `json:"id"`
	GalleryID    int64     `json:"gallery_id"`
	UserID       int64     `json:"user_id"`
	Filename     string    `json:"filename,omitempty"`
	FullSizeURL  string    `json:"full_size_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
