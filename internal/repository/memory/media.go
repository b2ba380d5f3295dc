package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

var _ repository.MediaLibrary = (*MediaLibrary)(nil)

// MediaLibrary implements repository.MediaLibrary over a slice.
type MediaLibrary struct {
	mu    sync.Mutex
	items []model.MediaItem
}

// NewMediaLibrary creates a library holding a copy of initial.
func NewMediaLibrary(initial []model.MediaItem) *MediaLibrary {
	return &MediaLibrary{items: slices.Clone(initial)}
}

// List returns a copy of all assets.
func (l *MediaLibrary) List(ctx context.Context) ([]model.MediaItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items), nil
}

// Add appends an asset; IDs must be unique.
func (l *MediaLibrary) Add(ctx context.Context, m *model.MediaItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if slices.ContainsFunc(l.items, func(x model.MediaItem) bool { return x.ID == m.ID }) {
		return errs.ErrAlreadyExists
	}
	l.items = append(l.items, *m)
	return nil
}

// Delete removes one asset.
func (l *MediaLibrary) Delete(ctx context.Context, id string) (bool, error) {
	n, err := l.DeleteMany(ctx, []string{id})
	return n == 1, err
}

// DeleteMany removes every asset whose ID is listed.
func (l *MediaLibrary) DeleteMany(ctx context.Context, ids []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.items)
	l.items = slices.DeleteFunc(l.items, func(m model.MediaItem) bool { return slices.Contains(ids, m.ID) })
	return before - len(l.items), nil
}
