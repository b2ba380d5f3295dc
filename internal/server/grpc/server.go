// Package grpcserver exposes the PrismCMS console over gRPC.
package grpcserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/prismcms/internal/convert"
	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/service"
	"github.com/and161185/prismcms/internal/settings"
)

// Notifier is the part of the notification bus used for user feedback.
type Notifier interface {
	Publish(typ model.NotificationType, message string) string
	Dismiss(id string)
	List() []model.Notification
}

// SettingsEditor reads and replaces the settings tabs.
type SettingsEditor interface {
	Get() model.Settings
	UpdateGeneral(model.GeneralSettings) error
	UpdateSystem(model.SystemSettings) error
	UpdateEmail(model.EmailSettings) error
}

// Server wires services into gRPC handlers.
type Server struct {
	identity service.IdentityService
	content  service.ContentService
	users    service.UserService
	media    service.MediaService
	settings SettingsEditor
	notes    Notifier
	log      *zap.Logger
}

var _ ConsoleServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(identity service.IdentityService, content service.ContentService, users service.UserService,
	media service.MediaService, prefs SettingsEditor, notes Notifier, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		identity: identity,
		content:  content,
		users:    users,
		media:    media,
		settings: prefs,
		notes:    notes,
		log:      log,
	}
}

func (s *Server) ok(msg string) {
	s.notes.Publish(model.NotifySuccess, msg)
}

// fail publishes msg as an error toast and returns err as a status.
func (s *Server) fail(err error, msg string) error {
	if msg != "" {
		s.notes.Publish(model.NotifyError, msg)
	}
	return toStatus(err)
}

// --- Identity ---

// Login signs in and returns {"user", "token"}.
func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	_, email, password, err := convert.Credentials(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if email == "" || password == "" {
		return nil, s.fail(errs.ErrAuth, "Please enter both email and password")
	}
	u, err := s.identity.Login(ctx, email, password)
	if err != nil {
		return nil, s.fail(err, "Invalid email or password")
	}
	s.ok("Login successful")
	return convert.ToStructSession(u, s.identity.Token())
}

// Register creates an account, signs it in and returns {"user", "token"}.
func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, email, password, err := convert.Credentials(in)
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := s.identity.Register(ctx, name, email, password)
	switch {
	case errors.Is(err, errs.ErrValidation):
		return nil, s.fail(err, "Please fill in all fields")
	case errors.Is(err, errs.ErrAlreadyExists):
		return nil, s.fail(err, "Email already registered")
	case err != nil:
		return nil, s.fail(err, "Registration failed")
	}
	s.ok("Registration successful")
	return convert.ToStructSession(u, s.identity.Token())
}

// Logout ends the session.
func (s *Server) Logout(ctx context.Context, _ *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.identity.Logout(ctx); err != nil {
		// the session is gone from memory even when the slot could not be cleared
		s.log.Warn("logout: clear slot", zap.Error(err))
	}
	s.notes.Publish(model.NotifyInfo, "Logged out")
	return &emptypb.Empty{}, nil
}

// RequestPasswordReset accepts {"email"}.
func (s *Server) RequestPasswordReset(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	email, err := convert.String(in, "email")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.identity.RequestPasswordReset(ctx, email); err != nil {
		return nil, s.fail(err, "Please enter a valid email address")
	}
	s.ok("Password reset instructions sent to your email")
	return &emptypb.Empty{}, nil
}

// --- Content ---

// ListContent returns {"items": [...]}.
func (s *Server) ListContent(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.content.List(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to load content")
	}
	return convert.ToStructItems(items)
}

// GetContent returns {"item": {...}} or NotFound.
func (s *Server) GetContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	it, err := s.content.Get(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to load content")
	}
	if it == nil {
		return nil, s.fail(errs.ErrNotFound, "Content not found")
	}
	return convert.ToStructItem(it)
}

// CreateContent stores a new item authored by the caller.
func (s *Server) CreateContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, ok := UserFromCtx(ctx)
	if !ok {
		return nil, toStatus(errs.ErrAuth)
	}
	d, err := convert.FromStructDraft(in, model.Author{ID: u.ID, Name: u.Name})
	if err != nil {
		return nil, s.fail(err, "Please fill in all required fields")
	}
	it, err := s.content.Create(ctx, d)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return nil, s.fail(err, "Please fill in all required fields")
		}
		return nil, s.fail(err, "Failed to save content")
	}
	if it.IsPublished() {
		s.ok("Content published successfully")
	} else {
		s.ok("Content created successfully")
	}
	return convert.ToStructItem(&it)
}

// UpdateContent applies {"id", ...fields} to an existing item.
func (s *Server) UpdateContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := convert.FromStructPatch(in)
	if err != nil {
		return nil, s.fail(err, "Please fill in all required fields")
	}
	it, err := s.content.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return nil, s.fail(err, "Please fill in all required fields")
		}
		return nil, s.fail(err, "Failed to save content")
	}
	if it == nil {
		return nil, s.fail(errs.ErrNotFound, "Content not found")
	}
	if p.Status != nil && *p.Status == model.StatusPublished {
		s.ok("Content published successfully")
	} else {
		s.ok("Content updated successfully")
	}
	return convert.ToStructItem(it)
}

// DeleteContent removes an item and returns {"deleted": true}.
func (s *Server) DeleteContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	deleted, err := s.content.Delete(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to delete content")
	}
	if !deleted {
		return nil, s.fail(errs.ErrNotFound, "Failed to delete content")
	}
	s.ok("Content deleted successfully")
	return structpb.NewStruct(map[string]any{"deleted": true})
}

// PublishContent moves an item to published.
func (s *Server) PublishContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.transition(ctx, in, s.content.Publish, "Content published successfully", "Failed to publish content")
}

// ArchiveContent moves an item to archived.
func (s *Server) ArchiveContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.transition(ctx, in, s.content.Archive, "Content archived successfully", "Failed to archive content")
}

func (s *Server) transition(ctx context.Context, in *structpb.Struct,
	fn func(context.Context, string) (*model.ContentItem, error), okMsg, failMsg string) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	it, err := fn(ctx, id)
	if err != nil {
		return nil, s.fail(err, failMsg)
	}
	if it == nil {
		return nil, s.fail(errs.ErrNotFound, failMsg)
	}
	s.ok(okMsg)
	return convert.ToStructItem(it)
}

// QueryContent filters and sorts with {"search","status","category","sortBy","sortOrder"}.
func (s *Server) QueryContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f, srt, err := convert.FromStructQuery(in)
	if err != nil {
		return nil, toStatus(err)
	}
	items, err := s.content.Query(ctx, f, srt)
	if err != nil {
		return nil, s.fail(err, "Failed to load content")
	}
	return convert.ToStructItems(items)
}

// Stats returns the dashboard aggregates.
func (s *Server) Stats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.content.Stats(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to load dashboard")
	}
	return convert.ToStructStats(st)
}

// --- Console screens ---

func (s *Server) ListUsers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f, err := convert.FromStructUserFilter(in)
	if err != nil {
		return nil, toStatus(err)
	}
	us, err := s.users.List(ctx, f)
	if err != nil {
		return nil, s.fail(err, "Failed to load users")
	}
	return convert.ToStructUsers(us)
}

// AddUser creates an account from {"name","email","role","password"} and returns {"user"}.
func (s *Server) AddUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	nu, err := convert.FromStructNewUser(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if nu.Name == "" || nu.Email == "" {
		return nil, s.fail(errs.ErrValidation, "Please fill all required fields")
	}
	u, err := s.users.Add(ctx, nu.Name, nu.Email, nu.Role, nu.Password)
	switch {
	case errors.Is(err, errs.ErrValidation):
		return nil, s.fail(err, "Please fill all required fields")
	case errors.Is(err, errs.ErrAlreadyExists):
		return nil, s.fail(err, "Email already registered")
	case err != nil:
		return nil, s.fail(err, "Failed to add user")
	}
	s.ok("User added successfully")
	return convert.ToStructUser(&u)
}

// DeleteUser removes {"id"} and returns {"deleted": true}.
func (s *Server) DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to delete user")
	}
	if !deleted {
		return nil, s.fail(errs.ErrNotFound, "Failed to delete user")
	}
	s.ok("User deleted successfully")
	return structpb.NewStruct(map[string]any{"deleted": true})
}

// ToggleUserStatus flips {"id"} between active and inactive.
func (s *Server) ToggleUserStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := s.users.ToggleStatus(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to update user")
	}
	if u == nil {
		return nil, s.fail(errs.ErrNotFound, "User not found")
	}
	if u.Status == model.UserActive {
		s.ok("User activated successfully")
	} else {
		s.ok("User deactivated successfully")
	}
	return convert.ToStructUser(u)
}

// SetUserRole applies {"id","role"}.
func (s *Server) SetUserRole(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	role, err := convert.String(in, "role")
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := s.users.SetRole(ctx, id, model.Role(role))
	if err != nil {
		return nil, s.fail(err, "Failed to update user")
	}
	if u == nil {
		return nil, s.fail(errs.ErrNotFound, "User not found")
	}
	s.ok("User updated successfully")
	return convert.ToStructUser(u)
}

// sessionID returns {"id"} when given, else the signed-in user's id.
func sessionID(ctx context.Context, in *structpb.Struct) (string, error) {
	if _, ok := in.GetFields()["id"]; ok {
		return convert.ID(in)
	}
	u, ok := UserFromCtx(ctx)
	if !ok {
		return "", errs.ErrAuth
	}
	return u.ID, nil
}

// UpdateProfile replaces {"name","email","avatar"} of the caller, or of {"id"}.
func (s *Server) UpdateProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	name, email, _, err := convert.Credentials(in)
	if err != nil {
		return nil, toStatus(err)
	}
	avatar, err := convert.String(in, "avatar")
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := s.users.UpdateProfile(ctx, id, name, email, avatar)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return nil, s.fail(err, "Please fill all required fields")
		}
		return nil, s.fail(err, "Failed to update profile")
	}
	if u == nil {
		return nil, s.fail(errs.ErrNotFound, "User not found")
	}
	s.ok("Profile updated successfully")
	return convert.ToStructUser(u)
}

// ChangePassword applies {"currentPassword","newPassword","confirmPassword"} to the caller, or to {"id"}.
func (s *Server) ChangePassword(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	id, err := sessionID(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	pc, err := convert.FromStructPasswordChange(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if pc.Confirm != nil && *pc.Confirm != pc.Next {
		return nil, s.fail(errs.ErrValidation, "Passwords do not match")
	}
	if err := s.users.ChangePassword(ctx, id, pc.Current, pc.Next); err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			return nil, s.fail(err, "Password must be at least 6 characters")
		case errors.Is(err, errs.ErrAuth):
			return nil, s.fail(err, "Current password is incorrect")
		}
		return nil, s.fail(err, "Failed to change password")
	}
	s.ok("Password changed successfully")
	return &emptypb.Empty{}, nil
}

func (s *Server) ListMedia(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f, err := convert.FromStructMediaFilter(in)
	if err != nil {
		return nil, toStatus(err)
	}
	ms, err := s.media.List(ctx, f)
	if err != nil {
		return nil, s.fail(err, "Failed to load media")
	}
	return convert.ToStructMedia(ms)
}

// UploadMedia records {"name","type","url","size","dimensions"} uploaded by the caller.
func (s *Server) UploadMedia(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, ok := UserFromCtx(ctx)
	if !ok {
		return nil, toStatus(errs.ErrAuth)
	}
	up, err := convert.FromStructUpload(in)
	if err != nil {
		return nil, toStatus(err)
	}
	m, err := s.media.Upload(ctx, up.Name, up.Type, up.URL, up.Size, up.Dimensions, u.Name)
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return nil, s.fail(err, "File type or size not allowed")
		}
		return nil, s.fail(err, "Failed to upload files")
	}
	s.ok("Files uploaded successfully")
	return convert.ToStructMediaItem(m)
}

// DeleteMedia removes {"id"} or every entry of {"ids"} and returns {"deleted": n}.
func (s *Server) DeleteMedia(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := in.GetFields()["id"]; ok {
		id, err := convert.ID(in)
		if err != nil {
			return nil, toStatus(err)
		}
		deleted, err := s.media.Delete(ctx, id)
		if err != nil {
			return nil, s.fail(err, "Failed to delete media")
		}
		if !deleted {
			return nil, s.fail(errs.ErrNotFound, "Failed to delete media")
		}
		s.ok("Item deleted successfully")
		return structpb.NewStruct(map[string]any{"deleted": 1})
	}
	ids, err := convert.IDs(in)
	if err != nil {
		return nil, toStatus(err)
	}
	n, err := s.media.DeleteMany(ctx, ids)
	if err != nil {
		return nil, s.fail(err, "Failed to delete media")
	}
	s.ok(fmt.Sprintf("%d item(s) deleted successfully", n))
	return structpb.NewStruct(map[string]any{"deleted": n})
}

func (s *Server) GetSettings(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return convert.ToStructSettings(s.settings.Get())
}

// UpdateSettings merges the tabs present in the request over the current values.
// The merged value is checked as a whole before any tab is replaced.
func (s *Server) UpdateSettings(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	cur := s.settings.Get()
	up, err := convert.FromStructSettings(in, cur)
	if err != nil {
		return nil, toStatus(err)
	}
	next := up.Apply(cur)
	if err := settings.Validate(&next); err != nil {
		return nil, s.fail(err, "Please check the settings values")
	}
	if up.General != nil {
		if err := s.settings.UpdateGeneral(next.General); err != nil {
			return nil, s.fail(err, "Failed to save settings")
		}
	}
	if up.System != nil {
		if err := s.settings.UpdateSystem(next.System); err != nil {
			return nil, s.fail(err, "Failed to save settings")
		}
	}
	if up.Email != nil {
		if err := s.settings.UpdateEmail(next.Email); err != nil {
			return nil, s.fail(err, "Failed to save settings")
		}
	}
	s.ok("Settings saved successfully")
	return convert.ToStructSettings(s.settings.Get())
}

func (s *Server) ListNotifications(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return convert.ToStructNotifications(s.notes.List())
}

// DismissNotification removes {"id"}; unknown ids are ignored.
func (s *Server) DismissNotification(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	id, err := convert.ID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	s.notes.Dismiss(id)
	return &emptypb.Empty{}, nil
}
