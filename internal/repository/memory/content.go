// Package memory implements the in-memory repositories backing the console.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/prismcms/internal/clock"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/query"
	"github.com/and161185/prismcms/internal/repository"
	"github.com/and161185/prismcms/internal/slug"
	"github.com/and161185/prismcms/internal/validate"
)

// Ensure interfaces are met.
var _ repository.ContentRepository = (*ContentRepo)(nil)

// ContentRepo keeps content items in a slice guarded by a single mutex.
// Every call runs to completion before the next one starts.
type ContentRepo struct {
	mu    sync.Mutex
	items []model.ContentItem
	clock clock.Clock
	newID func() (string, error)
}

// NewContentRepo builds a repository holding a copy of initial.
// Seed items without an ID get one assigned.
func NewContentRepo(clk clock.Clock, initial []model.ContentItem) (*ContentRepo, error) {
	if clk == nil {
		clk = clock.Real{}
	}
	r := &ContentRepo{clock: clk, newID: uuidV4}
	seen := make(map[string]struct{}, len(initial))
	for _, it := range initial {
		it = it.Clone()
		if it.ID == "" {
			id, err := r.uniqueID(seen)
			if err != nil {
				return nil, err
			}
			it.ID = id
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("seed: duplicate content id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
		r.items = append(r.items, it)
	}
	return r, nil
}

func uuidV4() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// uniqueID draws ids until one is free. seen may be nil to check r.items.
func (r *ContentRepo) uniqueID(seen map[string]struct{}) (string, error) {
	for {
		id, err := r.newID()
		if err != nil {
			return "", err
		}
		if seen != nil {
			if _, taken := seen[id]; !taken {
				return id, nil
			}
			continue
		}
		if r.indexOf(id) < 0 {
			return id, nil
		}
	}
}

func (r *ContentRepo) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(it model.ContentItem) bool { return it.ID == id })
}

// List returns a snapshot of all items.
func (r *ContentRepo) List(ctx context.Context) ([]model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

func (r *ContentRepo) snapshot() []model.ContentItem {
	out := make([]model.ContentItem, len(r.items))
	for i := range r.items {
		out[i] = r.items[i].Clone()
	}
	return out
}

// Get returns a copy of the item with the given id, or nil.
func (r *ContentRepo) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	it := r.items[i].Clone()
	return &it, nil
}

// Create validates d, assigns server fields and appends the item.
func (r *ContentRepo) Create(ctx context.Context, d model.ContentDraft) (model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return model.ContentItem{}, err
	}
	if d.Status == "" {
		d.Status = model.StatusDraft
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueID(nil)
	if err != nil {
		return model.ContentItem{}, err
	}
	if d.Slug == "" {
		d.Slug = slug.Make(d.Title)
		// titles without latin letters or digits
		if d.Slug == "" && strings.TrimSpace(d.Title) != "" {
			d.Slug = slug.FromID(id)
		}
	}
	if err := validate.Draft(&d); err != nil {
		return model.ContentItem{}, err
	}
	now := r.clock.Now().UTC()
	it := model.ContentItem{
		ID:          id,
		Title:       d.Title,
		Slug:        d.Slug,
		Content:     d.Content,
		Excerpt:     d.Excerpt,
		CoverImage:  d.CoverImage,
		Status:      d.Status,
		Author:      d.Author,
		Category:    d.Category,
		Tags:        NormalizeTags(d.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: clonePtr(d.PublishedAt),
	}
	if it.Status == model.StatusPublished && it.PublishedAt == nil {
		it.PublishedAt = &now
	}
	r.items = append(r.items, it)
	return it.Clone(), nil
}

// Update merges p into the stored item. A nil result means no such id.
func (r *ContentRepo) Update(ctx context.Context, id string, p model.ContentPatch) (*model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Patch(&p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(id, p), nil
}

// apply mutates the item in place. The caller holds r.mu.
func (r *ContentRepo) apply(id string, p model.ContentPatch) *model.ContentItem {
	i := r.indexOf(id)
	if i < 0 {
		return nil
	}
	it := r.items[i].Clone()
	now := r.clock.Now().UTC()

	setIf(&it.Title, p.Title)
	setIf(&it.Slug, p.Slug)
	setIf(&it.Content, p.Content)
	setIf(&it.Excerpt, p.Excerpt)
	setIf(&it.CoverImage, p.CoverImage)
	setIf(&it.Status, p.Status)
	setIf(&it.Category, p.Category)
	if p.Tags != nil {
		it.Tags = NormalizeTags(p.Tags)
	}
	switch {
	case p.PublishedAt != nil:
		it.PublishedAt = laterOf(it.PublishedAt, p.PublishedAt.UTC())
	case p.Status != nil && *p.Status == model.StatusPublished && it.PublishedAt == nil:
		it.PublishedAt = &now
	}

	// UpdatedAt never moves backwards, even if the clock does.
	if now.After(it.UpdatedAt) {
		it.UpdatedAt = now
	}
	r.items[i] = it
	out := it.Clone()
	return &out
}

// Delete removes the item if present.
func (r *ContentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.items = slices.Delete(r.items, i, i+1)
	return true, nil
}

// Publish is Update with status published and PublishedAt now.
// Concurrent publish and archive on one id resolve last-write-wins.
func (r *ContentRepo) Publish(ctx context.Context, id string) (*model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	st := model.StatusPublished
	now := r.clock.Now()
	return r.apply(id, model.ContentPatch{Status: &st, PublishedAt: &now}), nil
}

// Archive is Update with status archived. PublishedAt is kept.
func (r *ContentRepo) Archive(ctx context.Context, id string) (*model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	st := model.StatusArchived
	return r.apply(id, model.ContentPatch{Status: &st}), nil
}

// Query filters and sorts a snapshot.
func (r *ContentRepo) Query(ctx context.Context, f model.Filter, s model.Sort) ([]model.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return query.Apply(r.items, f, s), nil
}

// NormalizeTags trims tags, drops blanks and duplicates, and keeps first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func laterOf(cur *time.Time, next time.Time) *time.Time {
	if cur != nil && cur.After(next) {
		v := *cur
		return &v
	}
	return &next
}
