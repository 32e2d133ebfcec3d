// Package knowledge holds the engine's domain knowledge: curated beauty
// and hair-care facts with their alias table, per-shop free-text
// documents, and the lexical retrieval that grounds completion calls.
package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a curated knowledge entry.
type Category string

// Entry categories.
const (
	CategoryIngredient Category = "ingredient"
	CategoryProblem    Category = "problem"
	CategoryHairType   Category = "hairType"
)

// Entry is a curated domain fact, immutable after process start.
// Aliases drive matching: any alias found in the shopper's message pulls
// the whole entry into the retrieval context.
type Entry struct {
	Key               string
	Aliases           []string
	Category          Category
	Properties        []string
	Contraindications []string
	RecommendedFor    []string
}

// Document is a per-shop free-text knowledge document (FAQ, delivery
// policy, ingested site page). Owned by the data store; read-only here.
type Document struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	Title     string
	Content   string
	SourceURL string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
