package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/slug"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)
	require.Len(t, d.Content, 5)
	require.Len(t, d.Users, 5)
	require.Len(t, d.Media, 7)

	first := d.Content[0]
	require.Equal(t, "1", first.ID)
	require.Equal(t, model.StatusPublished, first.Status)
	require.Equal(t, []string{"beginner", "cms", "tutorial"}, first.Tags)
	require.EqualValues(t, 1254, first.Views)
	require.NotNil(t, first.PublishedAt)
	require.True(t, first.PublishedAt.Equal(time.Date(2025, 1, 18, 15, 0, 0, 0, time.UTC)))

	require.Nil(t, d.Content[2].PublishedAt, "draft sample has no publish time")
	require.NotNil(t, d.Content[3].PublishedAt, "archived sample keeps its publish time")

	for _, c := range d.Content {
		require.True(t, slug.Valid(c.Slug), c.Slug)
		require.False(t, c.UpdatedAt.Before(c.CreatedAt), c.ID)
	}

	require.Equal(t, model.UserInactive, d.Users[3].Status)
	require.NotNil(t, d.Users[0].LastLogin)
	require.Equal(t, model.MediaVideo, d.Media[4].Type)
	require.Equal(t, "1920 x 1080", d.Media[0].Dimensions)
}

func TestLoad_FreshSlices(t *testing.T) {
	a, err := Load()
	require.NoError(t, err)
	a.Content[0].Title = "changed"

	b, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Getting Started with Content Management", b.Content[0].Title)
}
