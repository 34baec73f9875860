package app

import "github.com/google/uuid"

// generateID produces a random identifier for new records.
// Isolated here so the ID strategy can evolve independently.
func generateID() string {
	return uuid.NewString()
}
