package model

import "time"

// PageMeta holds the SEO metadata for one page of the marketing site, keyed
// by the page's path segment ("home", "portfolio", ...).
type PageMeta struct {
	Page        string    `json:"page" db:"page"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Keywords    string    `json:"keywords" db:"keywords"`
	OGImage     string    `json:"og_image" db:"og_image"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
