// Package query implements the filter and sort rules shared by the console list screens.
package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/and161185/prismcms/internal/model"
)

// Fold normalizes s for case-insensitive comparison.
func Fold(s string) string { return cases.Fold().String(s) }

// ContainsFold reports whether substr occurs in any of fields, ignoring case.
// An empty substr matches everything.
func ContainsFold(substr string, fields ...string) bool {
	if substr == "" {
		return true
	}
	needle := Fold(substr)
	for _, f := range fields {
		if strings.Contains(Fold(f), needle) {
			return true
		}
	}
	return false
}

// Any reports whether a filter value imposes no constraint.
func Any(v string) bool { return v == "" || v == model.FilterAll }

// Match applies the content filter: search on title or content, then exact status and category.
func Match(it *model.ContentItem, f model.Filter) bool {
	if !ContainsFold(f.Search, it.Title, it.Content) {
		return false
	}
	if !Any(f.Status) && string(it.Status) != f.Status {
		return false
	}
	if !Any(f.Category) && it.Category != f.Category {
		return false
	}
	return true
}

// Normalize fills the defaults of s (updatedAt, desc).
func Normalize(s model.Sort) model.Sort {
	if s.By == "" {
		s.By = model.SortByUpdatedAt
	}
	if s.Order == "" {
		s.Order = model.Desc
	}
	return s
}

// Compare orders a before b by key in ascending direction.
func Compare(a, b *model.ContentItem, key model.SortKey) int {
	switch key {
	case model.SortByTitle:
		if c := strings.Compare(Fold(a.Title), Fold(b.Title)); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	case model.SortByViews:
		return cmp.Compare(a.Views, b.Views)
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

// Apply filters items and returns a newly allocated, stably sorted slice.
// The input slice is left untouched.
func Apply(items []model.ContentItem, f model.Filter, s model.Sort) []model.ContentItem {
	s = Normalize(s)
	out := make([]model.ContentItem, 0, len(items))
	for i := range items {
		if Match(&items[i], f) {
			out = append(out, items[i].Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.ContentItem) int {
		c := Compare(&a, &b, s.By)
		if s.Order == model.Desc {
			return -c
		}
		return c
	})
	return out
}

// MatchUser applies the users screen filter: search on name or email, then role and status.
func MatchUser(u *model.DirectoryUser, f model.UserFilter) bool {
	if !ContainsFold(f.Search, u.Name, u.Email) {
		return false
	}
	if !Any(f.Role) && string(u.Role) != f.Role {
		return false
	}
	return Any(f.Status) || string(u.Status) == f.Status
}

// MatchMedia applies the media screen filter: search on name, then type.
func MatchMedia(m *model.MediaItem, f model.MediaFilter) bool {
	if !ContainsFold(f.Search, m.Name) {
		return false
	}
	return Any(f.Type) || string(m.Type) == f.Type
}
