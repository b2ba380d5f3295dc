package convert

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/and161185/prismcms/internal/model"
)

// Credentials reads {"name","email","password"}; missing keys are empty.
func Credentials(s *structpb.Struct) (name, email, password string, err error) {
	f := fieldsOf(s)
	if name, err = f.strOr("name"); err != nil {
		return "", "", "", bad(err)
	}
	if email, err = f.strOr("email"); err != nil {
		return "", "", "", bad(err)
	}
	if password, err = f.strOr("password"); err != nil {
		return "", "", "", bad(err)
	}
	return name, email, password, nil
}

// ToStructSession renders the signed-in user and its bearer token.
func ToStructSession(u model.SessionUser, token string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"user": map[string]any{
			"id": u.ID, "name": u.Name, "email": u.Email, "role": string(u.Role), "avatar": u.Avatar,
		},
		"token": token,
	})
}

// FromStructUserFilter reads {"search","role","status"}.
func FromStructUserFilter(s *structpb.Struct) (model.UserFilter, error) {
	f := fieldsOf(s)
	var uf model.UserFilter
	var err error
	if uf.Search, err = f.strOr("search"); err != nil {
		return uf, bad(err)
	}
	if uf.Role, err = f.strOr("role"); err != nil {
		return uf, bad(err)
	}
	if uf.Status, err = f.strOr("status"); err != nil {
		return uf, bad(err)
	}
	return uf, nil
}

// userMap renders a directory account. Password material never leaves the server.
func userMap(u model.DirectoryUser) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      string(u.Role),
		"status":    string(u.Status),
		"avatar":    u.Avatar,
		"lastLogin": tsPtr(u.LastLogin),
	}
}

// ToStructUsers renders directory accounts as {"users": [...]}.
func ToStructUsers(us []model.DirectoryUser) (*structpb.Struct, error) {
	list := make([]any, len(us))
	for i, u := range us {
		list[i] = userMap(u)
	}
	return structpb.NewStruct(map[string]any{"users": list})
}

// ToStructUser wraps one account; nil becomes {"user": null}.
func ToStructUser(u *model.DirectoryUser) (*structpb.Struct, error) {
	var v any
	if u != nil {
		v = userMap(*u)
	}
	return structpb.NewStruct(map[string]any{"user": v})
}

// NewUser is an add-user request.
type NewUser struct {
	Name     string
	Email    string
	Role     model.Role
	Password string
}

// FromStructNewUser reads {"name","email","role","password"}. The role defaults to viewer.
func FromStructNewUser(s *structpb.Struct) (NewUser, error) {
	name, email, password, err := Credentials(s)
	if err != nil {
		return NewUser{}, err
	}
	role, err := fieldsOf(s).strOr("role")
	if err != nil {
		return NewUser{}, bad(err)
	}
	if role == "" {
		role = string(model.RoleViewer)
	}
	return NewUser{Name: name, Email: email, Role: model.Role(role), Password: password}, nil
}

// PasswordChange is a change-password request.
type PasswordChange struct {
	Current string
	Next    string
	Confirm *string // optional, must equal Next when given
}

// FromStructPasswordChange reads {"currentPassword","newPassword","confirmPassword"}.
func FromStructPasswordChange(s *structpb.Struct) (PasswordChange, error) {
	f := fieldsOf(s)
	var pc PasswordChange
	var err error
	if pc.Current, err = f.strOr("currentPassword"); err != nil {
		return pc, bad(err)
	}
	if pc.Next, err = f.strOr("newPassword"); err != nil {
		return pc, bad(err)
	}
	if pc.Confirm, err = f.strPtr("confirmPassword"); err != nil {
		return pc, bad(err)
	}
	return pc, nil
}

// Upload is a media upload request. UploadedBy is set by the caller.
type Upload struct {
	Name       string
	Type       model.MediaType
	URL        string
	Size       int64
	Dimensions string
}

// FromStructUpload reads {"name","type","url","size","dimensions"}; size is in bytes.
func FromStructUpload(s *structpb.Struct) (Upload, error) {
	f := fieldsOf(s)
	var up Upload
	var err error
	if up.Name, err = f.strOr("name"); err != nil {
		return up, bad(err)
	}
	typ, err := f.strOr("type")
	if err != nil {
		return up, bad(err)
	}
	up.Type = model.MediaType(typ)
	if up.URL, err = f.strOr("url"); err != nil {
		return up, bad(err)
	}
	if up.Dimensions, err = f.strOr("dimensions"); err != nil {
		return up, bad(err)
	}
	if up.Size, _, err = f.int("size"); err != nil {
		return up, bad(err)
	}
	if up.Size < 0 {
		return up, bad(fmt.Errorf("size: negative"))
	}
	return up, nil
}

// ToStructMediaItem wraps one asset as {"media": {...}}.
func ToStructMediaItem(m model.MediaItem) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"media": mediaMap(m)})
}

// IDs reads the mandatory non-empty "ids" list.
func IDs(s *structpb.Struct) ([]string, error) {
	ids, err := fieldsOf(s).strings("ids")
	if err != nil {
		return nil, bad(err)
	}
	if len(ids) == 0 {
		return nil, bad(fmt.Errorf("ids: required"))
	}
	return ids, nil
}

// FromStructMediaFilter reads {"search","type"}.
func FromStructMediaFilter(s *structpb.Struct) (model.MediaFilter, error) {
	f := fieldsOf(s)
	var mf model.MediaFilter
	var err error
	if mf.Search, err = f.strOr("search"); err != nil {
		return mf, bad(err)
	}
	if mf.Type, err = f.strOr("type"); err != nil {
		return mf, bad(err)
	}
	return mf, nil
}

func mediaMap(m model.MediaItem) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"name":       m.Name,
		"type":       string(m.Type),
		"url":        m.URL,
		"size":       float64(m.Size),
		"dimensions": m.Dimensions,
		"uploadedAt": ts(m.UploadedAt),
		"uploadedBy": m.UploadedBy,
	}
}

func ToStructMedia(ms []model.MediaItem) (*structpb.Struct, error) {
	list := make([]any, len(ms))
	for i, m := range ms {
		list[i] = mediaMap(m)
	}
	return structpb.NewStruct(map[string]any{"media": list})
}

// MaskedSecret replaces the SMTP password in responses. Sending it back keeps the stored value.
const MaskedSecret = "********"

// SettingsUpdate holds the tabs present in an update request, each merged over
// the current values. Absent tabs are nil.
type SettingsUpdate struct {
	General *model.GeneralSettings
	System  *model.SystemSettings
	Email   *model.EmailSettings
}

// Apply returns cur with the present tabs replaced.
func (u SettingsUpdate) Apply(cur model.Settings) model.Settings {
	if u.General != nil {
		cur.General = *u.General
	}
	if u.System != nil {
		cur.System = *u.System
	}
	if u.Email != nil {
		cur.Email = *u.Email
	}
	return cur
}

// FromStructSettings reads {"general":{...},"system":{...},"email":{...}} using the
// keys of ToStructSettings. Keys missing from a tab keep their current value.
func FromStructSettings(s *structpb.Struct, cur model.Settings) (SettingsUpdate, error) {
	f := fieldsOf(s)
	var up SettingsUpdate
	if f.present("general") {
		g := cur.General
		if err := overlay(f, "general", &g); err != nil {
			return SettingsUpdate{}, bad(err)
		}
		up.General = &g
	}
	if f.present("system") {
		sys := cur.System
		if err := overlay(f, "system", &sys); err != nil {
			return SettingsUpdate{}, bad(err)
		}
		up.System = &sys
	}
	if f.present("email") {
		e := cur.Email
		if err := overlay(f, "email", &e); err != nil {
			return SettingsUpdate{}, bad(err)
		}
		if e.SMTPPassword == MaskedSecret {
			e.SMTPPassword = cur.Email.SMTPPassword
		}
		up.Email = &e
	}
	if up.General == nil && up.System == nil && up.Email == nil {
		return SettingsUpdate{}, bad(fmt.Errorf("settings: no tab given"))
	}
	return up, nil
}

// overlay decodes the object at key onto dst through the settings' YAML field names.
func overlay(f fields, key string, dst any) error {
	sv, ok := f[key].GetKind().(*structpb.Value_StructValue)
	if !ok {
		return fmt.Errorf("%s: want object", key)
	}
	b, err := yaml.Marshal(sv.StructValue.AsMap())
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// ToStructSettings renders every settings tab. The SMTP password is masked.
func ToStructSettings(st model.Settings) (*structpb.Struct, error) {
	g, sys, e := st.General, st.System, st.Email
	pw := ""
	if e.SMTPPassword != "" {
		pw = MaskedSecret
	}
	return structpb.NewStruct(map[string]any{
		"general": map[string]any{
			"siteName":        g.SiteName,
			"siteDescription": g.SiteDescription,
			"siteUrl":         g.SiteURL,
			"logoUrl":         g.LogoURL,
			"faviconUrl":      g.FaviconURL,
			"defaultLanguage": g.DefaultLanguage,
			"timezone":        g.Timezone,
			"dateFormat":      g.DateFormat,
			"timeFormat":      g.TimeFormat,
		},
		"system": map[string]any{
			"cacheEnabled":     sys.CacheEnabled,
			"cacheDuration":    float64(sys.CacheDuration),
			"debug":            sys.Debug,
			"maintenanceMode":  sys.MaintenanceMode,
			"apiEnabled":       sys.APIEnabled,
			"maxUploadSize":    float64(sys.MaxUploadSizeMB),
			"allowedFileTypes": sys.AllowedFileTypes,
			"backupFrequency":  sys.BackupFrequency,
		},
		"email": map[string]any{
			"emailProvider":  e.Provider,
			"smtpHost":       e.SMTPHost,
			"smtpPort":       float64(e.SMTPPort),
			"smtpUsername":   e.SMTPUsername,
			"smtpPassword":   pw,
			"smtpEncryption": e.SMTPEncryption,
			"fromEmail":      e.FromEmail,
			"fromName":       e.FromName,
		},
	})
}

func ToStructNotifications(ns []model.Notification) (*structpb.Struct, error) {
	list := make([]any, len(ns))
	for i, n := range ns {
		list[i] = map[string]any{
			"id":        n.ID,
			"type":      string(n.Type),
			"message":   n.Message,
			"createdAt": ts(n.CreatedAt),
		}
	}
	return structpb.NewStruct(map[string]any{"notifications": list})
}
