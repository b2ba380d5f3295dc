package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/async"
	"github.com/and161185/prismcms/internal/clock"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/metrics"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

// TopViewed is how many published items the dashboard ranks.
const TopViewed = 5

// ContentService defines the content operations of the console.
type ContentService interface {
	List(ctx context.Context) ([]model.ContentItem, error)
	Get(ctx context.Context, id string) (*model.ContentItem, error)
	Create(ctx context.Context, d model.ContentDraft) (model.ContentItem, error)
	Update(ctx context.Context, id string, p model.ContentPatch) (*model.ContentItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	Publish(ctx context.Context, id string) (*model.ContentItem, error)
	Archive(ctx context.Context, id string) (*model.ContentItem, error)
	Query(ctx context.Context, f model.Filter, s model.Sort) ([]model.ContentItem, error)
	// Stats aggregates the collection for the dashboard.
	Stats(ctx context.Context) (model.Stats, error)
	// Categories lists distinct categories in first-seen order.
	Categories(ctx context.Context) ([]string, error)
}

var _ ContentService = (*ContentServiceImpl)(nil)

// ContentServiceImpl delays results by a configurable latency and records mutations.
type ContentServiceImpl struct {
	repo    repository.ContentRepository
	clock   clock.Clock
	latency time.Duration
	log     *zap.Logger
}

// NewContentService constructs ContentService. A zero latency returns results immediately.
func NewContentService(repo repository.ContentRepository, clk clock.Clock, latency time.Duration, log *zap.Logger) *ContentServiceImpl {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentServiceImpl{repo: repo, clock: clk, latency: latency, log: log}
}

// delayed runs fn now and hands its result back once the latency has passed.
func delayed[T any](ctx context.Context, s *ContentServiceImpl, fn func() (T, error)) (T, error) {
	return async.Run(s.clock, s.latency, fn).Await(ctx)
}

func (s *ContentServiceImpl) List(ctx context.Context) ([]model.ContentItem, error) {
	return delayed(ctx, s, func() ([]model.ContentItem, error) { return s.repo.List(ctx) })
}

func (s *ContentServiceImpl) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	return delayed(ctx, s, func() (*model.ContentItem, error) { return s.repo.Get(ctx, id) })
}

func (s *ContentServiceImpl) Query(ctx context.Context, f model.Filter, srt model.Sort) ([]model.ContentItem, error) {
	return delayed(ctx, s, func() ([]model.ContentItem, error) { return s.repo.Query(ctx, f, srt) })
}

// Create assigns the id before the latency elapses.
func (s *ContentServiceImpl) Create(ctx context.Context, d model.ContentDraft) (model.ContentItem, error) {
	return delayed(ctx, s, func() (model.ContentItem, error) {
		it, err := s.repo.Create(ctx, d)
		s.record("create", it.ID, true, err)
		return it, err
	})
}

func (s *ContentServiceImpl) Update(ctx context.Context, id string, p model.ContentPatch) (*model.ContentItem, error) {
	return s.mutate(ctx, "update", id, func() (*model.ContentItem, error) { return s.repo.Update(ctx, id, p) })
}

func (s *ContentServiceImpl) Publish(ctx context.Context, id string) (*model.ContentItem, error) {
	return s.mutate(ctx, "publish", id, func() (*model.ContentItem, error) { return s.repo.Publish(ctx, id) })
}

func (s *ContentServiceImpl) Archive(ctx context.Context, id string) (*model.ContentItem, error) {
	return s.mutate(ctx, "archive", id, func() (*model.ContentItem, error) { return s.repo.Archive(ctx, id) })
}

func (s *ContentServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	return delayed(ctx, s, func() (bool, error) {
		ok, err := s.repo.Delete(ctx, id)
		s.record("delete", id, ok, err)
		return ok, err
	})
}

func (s *ContentServiceImpl) mutate(ctx context.Context, op, id string, fn func() (*model.ContentItem, error)) (*model.ContentItem, error) {
	return delayed(ctx, s, func() (*model.ContentItem, error) {
		it, err := fn()
		s.record(op, id, it != nil, err)
		return it, err
	})
}

// record logs and counts a committed (or rejected) mutation.
func (s *ContentServiceImpl) record(op, id string, found bool, err error) {
	res := metrics.ResultOK
	switch {
	case errors.Is(err, errs.ErrValidation):
		res = metrics.ResultInvalid
	case err != nil:
		res = metrics.ResultError
	case !found:
		res = metrics.ResultMissing
	}
	metrics.ObserveMutation(op, res)

	if err != nil {
		s.log.Info("content mutation rejected", zap.String("op", op), zap.String("id", id), zap.Error(err))
		return
	}
	s.log.Debug("content mutation", zap.String("op", op), zap.String("id", id), zap.String("result", res))
}

// Stats counts items per status, sums views and ranks published items by views.
// Ties keep collection order.
func (s *ContentServiceImpl) Stats(ctx context.Context) (model.Stats, error) {
	items, err := s.List(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	var st model.Stats
	var pub []model.ContentItem
	for _, it := range items {
		st.Total++
		st.TotalViews += it.Views
		switch it.Status {
		case model.StatusPublished:
			st.Published++
			pub = append(pub, it)
		case model.StatusDraft:
			st.Drafts++
		case model.StatusArchived:
			st.Archived++
		}
	}
	slices.SortStableFunc(pub, func(a, b model.ContentItem) int {
		switch {
		case a.Views > b.Views:
			return -1
		case a.Views < b.Views:
			return 1
		}
		return 0
	})
	if len(pub) > TopViewed {
		pub = pub[:TopViewed]
	}
	st.Top = pub

	metrics.ContentItems.WithLabelValues(string(model.StatusPublished)).Set(float64(st.Published))
	metrics.ContentItems.WithLabelValues(string(model.StatusDraft)).Set(float64(st.Drafts))
	metrics.ContentItems.WithLabelValues(string(model.StatusArchived)).Set(float64(st.Archived))
	return st, nil
}

func (s *ContentServiceImpl) Categories(ctx context.Context) ([]string, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, it := range items {
		if !slices.Contains(out, it.Category) {
			out = append(out, it.Category)
		}
	}
	return out, nil
}
