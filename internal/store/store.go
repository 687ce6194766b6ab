// Package store persists grocery lists, platform selections, and scraped
// product records. All operations are scoped by owner; rows belonging to
// different owners never interact.
package store

import (
	"context"

	"github.com/basketwise/compare-cli/internal/model"
)

// Store defines the persistence contract for the comparison pipeline.
type Store interface {
	// Grocery list
	AddItem(ctx context.Context, owner, name string) (*model.GroceryItem, error)
	ListItems(ctx context.Context, owner string) ([]model.GroceryItem, error)
	DeleteItem(ctx context.Context, owner, itemID string) error

	// Selections (write-once per run)
	InsertSelection(ctx context.Context, sel *model.SelectionRequest) error

	// Scraped results. DeleteResults is the reset point of a run; it must
	// complete before any InsertResults for the same owner. ListResults
	// returns rows price-ascending with insert order breaking ties.
	DeleteResults(ctx context.Context, owner string) error
	InsertResults(ctx context.Context, owner string, records []model.ProductRecord) error
	ListResults(ctx context.Context, owner string) ([]model.ProductRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
