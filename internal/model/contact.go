package model

import "time"

// ContactMessage is a submission from the public contact form, held in the
// back-office inbox until an admin reads or deletes it.
type ContactMessage struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Company   string    `json:"company" db:"company"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
