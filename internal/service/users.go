package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/clock"
	pkgcrypto "github.com/and161185/prismcms/internal/crypto"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/query"
	"github.com/and161185/prismcms/internal/repository"
	"github.com/and161185/prismcms/internal/validate"
)

// UserService defines the users screen and profile operations.
type UserService interface {
	List(ctx context.Context, f model.UserFilter) ([]model.DirectoryUser, error)
	Add(ctx context.Context, name, email string, role model.Role, password string) (model.DirectoryUser, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ToggleStatus flips active/inactive and returns the updated account, or nil.
	ToggleStatus(ctx context.Context, id string) (*model.DirectoryUser, error)
	SetRole(ctx context.Context, id string, role model.Role) (*model.DirectoryUser, error)
	UpdateProfile(ctx context.Context, id, name, email, avatar string) (*model.DirectoryUser, error)
	// ChangePassword verifies current, if the account has a password, before storing next.
	ChangePassword(ctx context.Context, id, current, next string) error
}

var _ UserService = (*UserServiceImpl)(nil)

type UserServiceImpl struct {
	users repository.UserDirectory
	clock clock.Clock
	log   *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserDirectory, clk clock.Clock, log *zap.Logger) *UserServiceImpl {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UserServiceImpl{users: users, clock: clk, log: log}
}

// List applies the search, role and status filters.
func (s *UserServiceImpl) List(ctx context.Context, f model.UserFilter) ([]model.DirectoryUser, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DirectoryUser, 0, len(all))
	for i := range all {
		if query.MatchUser(&all[i], f) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Add creates an active account. An empty password leaves the account without credentials.
func (s *UserServiceImpl) Add(ctx context.Context, name, email string, role model.Role, password string) (model.DirectoryUser, error) {
	uid, err := uuid.NewV4()
	if err != nil {
		return model.DirectoryUser{}, err
	}
	u := model.DirectoryUser{
		ID:        uid.String(),
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    model.UserActive,
		Avatar:    DefaultAvatar,
		CreatedAt: s.clock.Now(),
	}
	if err := validate.DirectoryUser(&u); err != nil {
		return model.DirectoryUser{}, err
	}
	if password != "" {
		if err := validate.Password(password); err != nil {
			return model.DirectoryUser{}, err
		}
		if u.PasswordHash, u.Salt, err = pkgcrypto.NewPasswordHash(password); err != nil {
			return model.DirectoryUser{}, err
		}
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.DirectoryUser{}, err
	}
	s.log.Info("user added", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, id string) (bool, error) {
	return s.users.Delete(ctx, id)
}

func (s *UserServiceImpl) ToggleStatus(ctx context.Context, id string) (*model.DirectoryUser, error) {
	return s.modify(ctx, id, func(u *model.DirectoryUser) error {
		if u.Status == model.UserActive {
			u.Status = model.UserInactive
		} else {
			u.Status = model.UserActive
		}
		return nil
	})
}

func (s *UserServiceImpl) SetRole(ctx context.Context, id string, role model.Role) (*model.DirectoryUser, error) {
	if err := validate.Role(role); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, func(u *model.DirectoryUser) error {
		u.Role = role
		return nil
	})
}

// UpdateProfile replaces name, email and avatar; an empty avatar keeps the current one.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id, name, email, avatar string) (*model.DirectoryUser, error) {
	return s.modify(ctx, id, func(u *model.DirectoryUser) error {
		u.Name, u.Email = name, email
		if avatar != "" {
			u.Avatar = avatar
		}
		return validate.DirectoryUser(u)
	})
}

// ChangePassword replaces the password after verifying current. Accounts that
// have none yet (seeded or added without one) take next as their first password.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, id, current, next string) error {
	if err := validate.Password(next); err != nil {
		return err
	}
	u, err := s.modify(ctx, id, func(u *model.DirectoryUser) error {
		// an account without a password sets its first one without a current password
		if len(u.PasswordHash) > 0 && !pkgcrypto.VerifyPassword([]byte(current), u.Salt, u.PasswordHash) {
			return errs.ErrAuth
		}
		var err error
		u.PasswordHash, u.Salt, err = pkgcrypto.NewPasswordHash(next)
		return err
	})
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: unknown user", errs.ErrAuth)
	}
	s.log.Info("password changed", zap.String("user_id", id))
	return nil
}

// modify loads id, applies fn and stores the result. A missing account yields nil, nil.
func (s *UserServiceImpl) modify(ctx context.Context, id string, fn func(*model.DirectoryUser) error) (*model.DirectoryUser, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	ok, err := s.users.Update(ctx, u)
	if err != nil || !ok {
		return nil, err
	}
	return u, nil
}
