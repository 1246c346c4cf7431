package model

import "time"

// Project is a single portfolio entry shown on the marketing site. Clients
// address projects by PublicID (a UUID); the numeric ID is internal to the
// store and never leaves the server.
type Project struct {
	ID          int64     `json:"-" db:"id"`
	PublicID    string    `json:"id" db:"public_id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	LiveURL     string    `json:"live_url" db:"live_url"`
	Featured    bool      `json:"featured" db:"featured"`
	Published   bool      `json:"published" db:"published"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
