// Package models defines server-side data models persisted in the database.
package models

import "time"

// Gallery groups photos of a single owner. Deleting a gallery removes all of
// its photos together with their objects in the object store.
type Gallery struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
