package utils

import "github.com/google/uuid"

// NewObjectID returns a random v4 uuid used to keep storage keys unique.
func NewObjectID() string {
	return uuid.NewString()
}
