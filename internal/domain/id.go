package domain

import "github.com/google/uuid"

// NewRunID generates a UUIDv7 string for workflow runs.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
