package config

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAdminExists is returned when registration is attempted while an
	// admin account already exists. The admins table carries a singleton
	// constraint, so this holds even under concurrent registration.
	ErrAdminExists = errors.New("admin account already exists")

	// ErrSlugTaken is returned when a project insert collides with an
	// existing slug.
	ErrSlugTaken = errors.New("slug already in use")
)
