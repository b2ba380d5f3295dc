package repository

import (
	"context"

	"github.com/and161185/prismcms/internal/model"
)

// UserDirectory provides CRUD access to console accounts.
type UserDirectory interface {
	// List returns every account in insertion order.
	List(ctx context.Context) ([]model.DirectoryUser, error)
	// Get loads an account by ID, or nil.
	Get(ctx context.Context, id string) (*model.DirectoryUser, error)
	// GetByEmail loads an account by email (case-insensitive), or nil.
	GetByEmail(ctx context.Context, email string) (*model.DirectoryUser, error)
	// Create inserts a new account; a taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.DirectoryUser) error
	// Update replaces a stored account, returning false if it does not exist.
	Update(ctx context.Context, u *model.DirectoryUser) (bool, error)
	// Delete removes an account and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// MediaLibrary stores uploaded asset metadata.
type MediaLibrary interface {
	List(ctx context.Context) ([]model.MediaItem, error)
	Add(ctx context.Context, m *model.MediaItem) error
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteMany removes every listed id and returns how many were removed.
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// SessionSlot keeps the signed-in session across restarts.
type SessionSlot interface {
	// Load returns the stored session, or nil when the slot is empty.
	Load(ctx context.Context) (*model.StoredSession, error)
	// Save overwrites the slot.
	Save(ctx context.Context, s model.StoredSession) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}
