// Package convert maps domain values to and from google.protobuf.Struct payloads.
package convert

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
)

// bad wraps a malformed payload as a validation failure.
func bad(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errs.ErrValidation, err)
}

// --- content ---

// ContentItemMap renders an item with the console's JSON field names.
func ContentItemMap(it model.ContentItem) map[string]any {
	return map[string]any{
		"id":          it.ID,
		"title":       it.Title,
		"slug":        it.Slug,
		"content":     it.Content,
		"excerpt":     it.Excerpt,
		"coverImage":  it.CoverImage,
		"status":      string(it.Status),
		"author":      map[string]any{"id": it.Author.ID, "name": it.Author.Name},
		"category":    it.Category,
		"tags":        strList(it.Tags),
		"createdAt":   ts(it.CreatedAt),
		"updatedAt":   ts(it.UpdatedAt),
		"publishedAt": tsPtr(it.PublishedAt),
		"views":       float64(it.Views),
	}
}

// ToStructItem wraps one item; a nil item becomes {"item": null}.
func ToStructItem(it *model.ContentItem) (*structpb.Struct, error) {
	var v any
	if it != nil {
		v = ContentItemMap(*it)
	}
	return structpb.NewStruct(map[string]any{"item": v})
}

// ToStructItems wraps a list as {"items": [...]}.
func ToStructItems(items []model.ContentItem) (*structpb.Struct, error) {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = ContentItemMap(it)
	}
	return structpb.NewStruct(map[string]any{"items": list})
}

// FromStructDraft reads a create request. The author is supplied by the caller.
func FromStructDraft(s *structpb.Struct, author model.Author) (model.ContentDraft, error) {
	f := fieldsOf(s)
	d := model.ContentDraft{Author: author}
	var err error
	for _, p := range []struct {
		key string
		dst *string
	}{
		{"title", &d.Title}, {"slug", &d.Slug}, {"content", &d.Content},
		{"excerpt", &d.Excerpt}, {"coverImage", &d.CoverImage}, {"category", &d.Category},
	} {
		if *p.dst, err = f.strOr(p.key); err != nil {
			return model.ContentDraft{}, bad(err)
		}
	}
	st, err := f.strOr("status")
	if err != nil {
		return model.ContentDraft{}, bad(err)
	}
	d.Status = model.Status(st)
	if d.Tags, err = f.strings("tags"); err != nil {
		return model.ContentDraft{}, bad(err)
	}
	if d.PublishedAt, err = f.time("publishedAt"); err != nil {
		return model.ContentDraft{}, bad(err)
	}
	return d, nil
}

// FromStructPatch reads an update request. Keys that are absent or null stay unset.
func FromStructPatch(s *structpb.Struct) (model.ContentPatch, error) {
	f := fieldsOf(s)
	var p model.ContentPatch
	var err error
	for _, e := range []struct {
		key string
		dst **string
	}{
		{"title", &p.Title}, {"slug", &p.Slug}, {"content", &p.Content},
		{"excerpt", &p.Excerpt}, {"coverImage", &p.CoverImage}, {"category", &p.Category},
	} {
		if *e.dst, err = f.strPtr(e.key); err != nil {
			return model.ContentPatch{}, bad(err)
		}
	}
	st, err := f.strPtr("status")
	if err != nil {
		return model.ContentPatch{}, bad(err)
	}
	if st != nil {
		v := model.Status(*st)
		p.Status = &v
	}
	if p.Tags, err = f.strings("tags"); err != nil {
		return model.ContentPatch{}, bad(err)
	}
	if p.PublishedAt, err = f.time("publishedAt"); err != nil {
		return model.ContentPatch{}, bad(err)
	}
	return p, nil
}

// FromStructQuery reads {"search","status","category","sortBy","sortOrder"}.
func FromStructQuery(s *structpb.Struct) (model.Filter, model.Sort, error) {
	f := fieldsOf(s)
	var (
		flt     model.Filter
		by, ord string
		err     error
	)
	for _, e := range []struct {
		key string
		dst *string
	}{
		{"search", &flt.Search}, {"status", &flt.Status}, {"category", &flt.Category},
		{"sortBy", &by}, {"sortOrder", &ord},
	} {
		if *e.dst, err = f.strOr(e.key); err != nil {
			return model.Filter{}, model.Sort{}, bad(err)
		}
	}
	srt := model.Sort{By: model.SortKey(by), Order: model.SortOrder(ord)}
	switch srt.By {
	case "", model.SortByTitle, model.SortByUpdatedAt, model.SortByViews:
	default:
		return model.Filter{}, model.Sort{}, bad(fmt.Errorf("sortBy: unknown key %q", by))
	}
	switch srt.Order {
	case "", model.Asc, model.Desc:
	default:
		return model.Filter{}, model.Sort{}, bad(fmt.Errorf("sortOrder: unknown order %q", ord))
	}
	return flt, srt, nil
}

// ID reads the mandatory "id" field.
func ID(s *structpb.Struct) (string, error) {
	id, err := fieldsOf(s).strOr("id")
	if err != nil {
		return "", bad(err)
	}
	if id == "" {
		return "", bad(fmt.Errorf("id: required"))
	}
	return id, nil
}

// String reads an optional string field.
func String(s *structpb.Struct, key string) (string, error) {
	v, err := fieldsOf(s).strOr(key)
	return v, bad(err)
}

// ToStructStats renders the dashboard aggregates.
func ToStructStats(st model.Stats) (*structpb.Struct, error) {
	top := make([]any, len(st.Top))
	for i, it := range st.Top {
		top[i] = map[string]any{"id": it.ID, "title": it.Title, "views": float64(it.Views)}
	}
	return structpb.NewStruct(map[string]any{
		"total":      float64(st.Total),
		"published":  float64(st.Published),
		"drafts":     float64(st.Drafts),
		"archived":   float64(st.Archived),
		"totalViews": float64(st.TotalViews),
		"top":        top,
	})
}
