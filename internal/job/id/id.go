// Package id provides unique identifier generation for jobs.
package id

import "github.com/google/uuid"

// Generate creates a new opaque job ID.
// Job IDs are plain UUIDv4 strings; they carry no meaning beyond uniqueness.
func Generate() string {
	return uuid.NewString()
}
