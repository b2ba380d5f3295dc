package service

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/clock"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/query"
	"github.com/and161185/prismcms/internal/repository"
	"github.com/and161185/prismcms/internal/validate"
)

// SettingsSource provides the current site settings.
type SettingsSource interface {
	Get() model.Settings
}

// MediaService defines the media library operations.
type MediaService interface {
	List(ctx context.Context, f model.MediaFilter) ([]model.MediaItem, error)
	Upload(ctx context.Context, name string, typ model.MediaType, url string, size int64, dimensions, uploadedBy string) (model.MediaItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

var _ MediaService = (*MediaServiceImpl)(nil)

type MediaServiceImpl struct {
	lib      repository.MediaLibrary
	settings SettingsSource
	clock    clock.Clock
	log      *zap.Logger
}

// NewMediaService constructs MediaService. Without settings no upload limits apply.
func NewMediaService(lib repository.MediaLibrary, settings SettingsSource, clk clock.Clock, log *zap.Logger) *MediaServiceImpl {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MediaServiceImpl{lib: lib, settings: settings, clock: clk, log: log}
}

func (s *MediaServiceImpl) List(ctx context.Context, f model.MediaFilter) ([]model.MediaItem, error) {
	all, err := s.lib.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.MediaItem, 0, len(all))
	for i := range all {
		if query.MatchMedia(&all[i], f) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Upload records an asset after checking it against the system settings.
func (s *MediaServiceImpl) Upload(ctx context.Context, name string, typ model.MediaType, url string, size int64, dimensions, uploadedBy string) (model.MediaItem, error) {
	uid, err := uuid.NewV4()
	if err != nil {
		return model.MediaItem{}, err
	}
	m := model.MediaItem{
		ID:         uid.String(),
		Name:       name,
		Type:       typ,
		URL:        url,
		Size:       size,
		Dimensions: dimensions,
		UploadedAt: s.clock.Now(),
		UploadedBy: uploadedBy,
	}
	if err := validate.Media(&m); err != nil {
		return model.MediaItem{}, err
	}
	if s.settings != nil {
		if err := checkUpload(s.settings.Get().System, name, size); err != nil {
			return model.MediaItem{}, err
		}
	}
	if err := s.lib.Add(ctx, &m); err != nil {
		return model.MediaItem{}, err
	}
	s.log.Info("media uploaded", zap.String("id", m.ID), zap.String("name", name), zap.Int64("size", size))
	return m, nil
}

// checkUpload enforces AllowedFileTypes and MaxUploadSizeMB.
func checkUpload(sys model.SystemSettings, name string, size int64) error {
	if sys.MaxUploadSizeMB > 0 && size > int64(sys.MaxUploadSizeMB)<<20 {
		return fmt.Errorf("%w: file exceeds %d MB", errs.ErrValidation, sys.MaxUploadSizeMB)
	}
	if strings.TrimSpace(sys.AllowedFileTypes) == "" {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if !slices.Contains(AllowedTypes(sys.AllowedFileTypes), ext) {
		return fmt.Errorf("%w: file type %q not allowed", errs.ErrValidation, ext)
	}
	return nil
}

// AllowedTypes splits a comma separated extension list into lowercase entries.
func AllowedTypes(list string) []string {
	var out []string
	for _, t := range strings.Split(list, ",") {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *MediaServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	return s.lib.Delete(ctx, id)
}

func (s *MediaServiceImpl) DeleteMany(ctx context.Context, ids []string) (int, error) {
	n, err := s.lib.DeleteMany(ctx, ids)
	if err == nil && n > 0 {
		s.log.Info("media deleted", zap.Int("count", n))
	}
	return n, err
}
