package util

import "github.com/google/uuid"

// GenerateUUID returns a random v4 id for new entities: orders,
// deliveries, stock movements and outbox rows.
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateCorrelationID returns the id that pairs an async stock check
// request with its reply. Kept separate from entity ids so the call sites
// state which kind they mint.
func GenerateCorrelationID() string {
	return uuid.NewString()
}
