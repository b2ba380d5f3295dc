// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/prismcms/internal/model"
)

// ContentRepository is the sole authority over content items.
// Absent items are reported as a nil result, never as an error.
type ContentRepository interface {
	// List returns a snapshot of every item in insertion order.
	List(ctx context.Context) ([]model.ContentItem, error)
	// Get returns the item with the exact id, or nil.
	Get(ctx context.Context, id string) (*model.ContentItem, error)
	// Create assigns id and timestamps and stores a new item.
	Create(ctx context.Context, d model.ContentDraft) (model.ContentItem, error)
	// Update merges the present patch fields into an item and refreshes UpdatedAt.
	Update(ctx context.Context, id string, p model.ContentPatch) (*model.ContentItem, error)
	// Delete removes an item permanently and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// Publish moves an item to published and stamps PublishedAt.
	Publish(ctx context.Context, id string) (*model.ContentItem, error)
	// Archive moves an item to archived.
	Archive(ctx context.Context, id string) (*model.ContentItem, error)
	// Query filters and sorts a snapshot without touching stored state.
	Query(ctx context.Context, f model.Filter, s model.Sort) ([]model.ContentItem, error)
}
