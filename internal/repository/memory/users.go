package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

var _ repository.UserDirectory = (*UserDirectory)(nil)

// UserDirectory implements repository.UserDirectory over a slice.
type UserDirectory struct {
	mu    sync.Mutex
	users []model.DirectoryUser
}

// NewUserDirectory creates a directory holding a copy of initial.
func NewUserDirectory(initial []model.DirectoryUser) *UserDirectory {
	d := &UserDirectory{}
	for _, u := range initial {
		d.users = append(d.users, cloneUser(u))
	}
	return d
}

func cloneUser(u model.DirectoryUser) model.DirectoryUser {
	u.PasswordHash = slices.Clone(u.PasswordHash)
	u.Salt = slices.Clone(u.Salt)
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

func (d *UserDirectory) find(match func(*model.DirectoryUser) bool) int {
	for i := range d.users {
		if match(&d.users[i]) {
			return i
		}
	}
	return -1
}

// List returns copies of all accounts.
func (d *UserDirectory) List(ctx context.Context) ([]model.DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.DirectoryUser, len(d.users))
	for i, u := range d.users {
		out[i] = cloneUser(u)
	}
	return out, nil
}

// Get retrieves an account by ID.
func (d *UserDirectory) Get(ctx context.Context, id string) (*model.DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.find(func(u *model.DirectoryUser) bool { return u.ID == id })
	if i < 0 {
		return nil, nil
	}
	u := cloneUser(d.users[i])
	return &u, nil
}

// GetByEmail retrieves an account by email, ignoring case.
func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (*model.DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.find(func(u *model.DirectoryUser) bool { return strings.EqualFold(u.Email, email) })
	if i < 0 {
		return nil, nil
	}
	u := cloneUser(d.users[i])
	return &u, nil
}

// Create appends a new account.
func (d *UserDirectory) Create(ctx context.Context, u *model.DirectoryUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.find(func(x *model.DirectoryUser) bool { return strings.EqualFold(x.Email, u.Email) || x.ID == u.ID }) >= 0 {
		return errs.ErrAlreadyExists
	}
	d.users = append(d.users, cloneUser(*u))
	return nil
}

// Update replaces the stored account with the same ID.
func (d *UserDirectory) Update(ctx context.Context, u *model.DirectoryUser) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.find(func(x *model.DirectoryUser) bool { return x.ID == u.ID })
	if i < 0 {
		return false, nil
	}
	if j := d.find(func(x *model.DirectoryUser) bool { return x.ID != u.ID && strings.EqualFold(x.Email, u.Email) }); j >= 0 {
		return false, errs.ErrAlreadyExists
	}
	d.users[i] = cloneUser(*u)
	return true, nil
}

// Delete removes an account.
func (d *UserDirectory) Delete(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.find(func(u *model.DirectoryUser) bool { return u.ID == id })
	if i < 0 {
		return false, nil
	}
	d.users = slices.Delete(d.users, i, i+1)
	return true, nil
}
