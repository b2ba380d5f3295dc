package service

import (
	"context"
	"sync"

	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

type fakeSlot struct {
	mu      sync.Mutex
	stored  *model.StoredSession
	saves   int
	clears  int
	saveErr error
	loadErr error
}

var _ repository.SessionSlot = (*fakeSlot)(nil)

func (f *fakeSlot) Load(context.Context) (*model.StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.stored == nil {
		return nil, nil
	}
	c := *f.stored
	return &c, nil
}

func (f *fakeSlot) Save(_ context.Context, s model.StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = &s
	return nil
}

func (f *fakeSlot) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.stored = nil
	return nil
}

type fakeSettings struct{ s model.Settings }

func (f fakeSettings) Get() model.Settings { return f.s }
