// Package service contains the console application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/prismcms/internal/clock"
	pkgcrypto "github.com/and161185/prismcms/internal/crypto"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/metrics"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
	"github.com/and161185/prismcms/internal/validate"
)

// DefaultSessionTTL is the lifetime of a session token.
const DefaultSessionTTL = 24 * time.Hour

// DefaultAvatar is shown for accounts without a picture.
const DefaultAvatar = "https://images.pexels.com/photos/6039245/pexels-photo-6039245.jpeg?auto=compress&cs=tinysrgb&w=256"

// defaultAdmin is the profile used when the email is not in the directory.
var defaultAdmin = model.SessionUser{ID: "1", Name: "Admin User", Role: model.RoleAdmin, Avatar: DefaultAvatar}

// IdentityService defines the session operations of the console.
type IdentityService interface {
	// Login signs in with any non-empty credential pair.
	Login(ctx context.Context, email, password string) (model.SessionUser, error)
	// Register adds a directory account and signs it in.
	Register(ctx context.Context, name, email, password string) (model.SessionUser, error)
	// Logout ends the session and clears the persistence slot.
	Logout(ctx context.Context) error
	// RequestPasswordReset issues a reset token for email.
	RequestPasswordReset(ctx context.Context, email string) error
	// Current returns the signed-in user, if any.
	Current() (model.SessionUser, bool)
	// Token returns the bearer token of the session, or "".
	Token() string
	// Verify checks a bearer token against the current session and returns its subject.
	Verify(token string) (string, error)
}

var _ IdentityService = (*IdentityStore)(nil)

// IdentityStore holds the zero-or-one session of the process.
type IdentityStore struct {
	mu      sync.Mutex
	users   repository.UserDirectory
	slot    repository.SessionSlot
	clock   clock.Clock
	signKey []byte
	ttl     time.Duration
	log     *zap.Logger

	current *model.StoredSession
}

// NewIdentityStore constructs the store. users and slot may be nil.
func NewIdentityStore(users repository.UserDirectory, slot repository.SessionSlot, clk clock.Clock, signKey []byte, ttl time.Duration, log *zap.Logger) *IdentityStore {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityStore{users: users, slot: slot, clock: clk, signKey: signKey, ttl: ttl, log: log}
}

// Login never checks the password. A directory account with this email lends its profile.
func (s *IdentityStore) Login(ctx context.Context, email, password string) (model.SessionUser, error) {
	u, err := s.login(ctx, email, password)
	metrics.ObserveIdentity("login", err)
	return u, err
}

func (s *IdentityStore) login(ctx context.Context, email, password string) (model.SessionUser, error) {
	if email == "" || password == "" {
		return model.SessionUser{}, errs.ErrAuth
	}
	user := defaultAdmin
	user.Email = email

	if s.users != nil {
		du, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return model.SessionUser{}, err
		}
		if du != nil {
			now := s.clock.Now()
			du.LastLogin = &now
			if _, err := s.users.Update(ctx, du); err != nil {
				return model.SessionUser{}, err
			}
			user = du.Session()
		}
	}
	return s.establish(ctx, user)
}

// Register requires every field and rejects an email already in the directory.
func (s *IdentityStore) Register(ctx context.Context, name, email, password string) (model.SessionUser, error) {
	u, err := s.register(ctx, name, email, password)
	metrics.ObserveIdentity("register", err)
	return u, err
}

func (s *IdentityStore) register(ctx context.Context, name, email, password string) (model.SessionUser, error) {
	if err := validate.Required("name", name, "email", email, "password", password); err != nil {
		return model.SessionUser{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.SessionUser{}, err
	}
	du := &model.DirectoryUser{
		ID:        uid.String(),
		Name:      name,
		Email:     email,
		Role:      model.RoleAdmin,
		Status:    model.UserActive,
		Avatar:    DefaultAvatar,
		CreatedAt: s.clock.Now(),
	}
	if s.users != nil {
		du.PasswordHash, du.Salt, err = pkgcrypto.NewPasswordHash(password)
		if err != nil {
			return model.SessionUser{}, err
		}
		if err := s.users.Create(ctx, du); err != nil {
			return model.SessionUser{}, err
		}
	}
	return s.establish(ctx, du.Session())
}

// establish signs a token for user, stores the session and writes the slot.
// A failing slot write is logged; the in-process session stands.
func (s *IdentityStore) establish(ctx context.Context, user model.SessionUser) (model.SessionUser, error) {
	tok, exp, err := s.issueToken(user.ID)
	if err != nil {
		return model.SessionUser{}, err
	}
	ss := model.StoredSession{User: user, Token: tok, ExpiresAt: exp}

	s.mu.Lock()
	s.current = &ss
	s.mu.Unlock()

	if s.slot != nil {
		if err := s.slot.Save(ctx, ss); err != nil {
			s.log.Warn("session slot save failed", zap.Error(err))
		}
	}
	s.log.Info("signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// issueToken creates a signed HS256 JWT for the given subject.
func (s *IdentityStore) issueToken(subject string) (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return signed, exp, err
}

// Logout clears the session even when the slot cannot be cleared.
func (s *IdentityStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	var err error
	if s.slot != nil {
		err = s.slot.Clear(ctx)
	}
	metrics.ObserveIdentity("logout", err)
	return err
}

// RequestPasswordReset issues a one-off token. Delivery is not wired, so the token is dropped.
func (s *IdentityStore) RequestPasswordReset(ctx context.Context, email string) error {
	err := s.requestReset(email)
	metrics.ObserveIdentity("reset", err)
	return err
}

func (s *IdentityStore) requestReset(email string) error {
	if err := validate.Required("email", email); err != nil {
		return err
	}
	if _, err := pkgcrypto.Token(24); err != nil {
		return err
	}
	s.log.Info("password reset issued", zap.String("email", email))
	return nil
}

// Current returns the signed-in user.
func (s *IdentityStore) Current() (model.SessionUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.SessionUser{}, false
	}
	return s.current.User, true
}

// Token returns the bearer token of the session, or "".
func (s *IdentityStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Restore loads the slot at startup. A stored session that is expired or
// not signed by this key is cleared.
func (s *IdentityStore) Restore(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	ss, err := s.slot.Load(ctx)
	if err != nil {
		return err
	}
	if ss == nil {
		return nil
	}
	sub, err := s.parse(ss.Token)
	if err != nil || sub != ss.User.ID || !s.clock.Now().Before(ss.ExpiresAt) {
		s.log.Info("stored session discarded", zap.String("user_id", ss.User.ID))
		return s.slot.Clear(ctx)
	}

	s.mu.Lock()
	s.current = ss
	s.mu.Unlock()
	s.log.Info("session restored", zap.String("user_id", ss.User.ID))
	return nil
}

// Verify accepts only the token of the live session.
func (s *IdentityStore) Verify(token string) (string, error) {
	sub, err := s.parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrAuth, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Token != token {
		return "", fmt.Errorf("%w: session ended", errs.ErrAuth)
	}
	return sub, nil
}

func (s *IdentityStore) parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("empty subject")
	}
	return claims.Subject, nil
}
