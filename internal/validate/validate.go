// Package validate holds the field rules for console entities.
package validate

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/slug"
)

var (
	validStatus     = []interface{}{model.StatusDraft, model.StatusPublished, model.StatusArchived}
	validRoles      = []interface{}{model.RoleAdmin, model.RoleEditor, model.RoleViewer}
	validUserStatus = []interface{}{model.UserActive, model.UserInactive}
	validMedia      = []interface{}{model.MediaImage, model.MediaVideo, model.MediaDocument}
)

// MinPasswordLen is the shortest password accepted on a password change.
const MinPasswordLen = 8

// wrap turns an ozzo error into an errs.ErrValidation chain.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errs.ErrValidation, err)
}

// Required fails with errs.ErrValidation when any named value is blank.
func Required(fields ...string) error {
	if len(fields)%2 != 0 {
		panic("validate.Required: want name/value pairs")
	}
	ve := validation.Errors{}
	for i := 0; i < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			ve[fields[i]] = validation.NewError("required", "cannot be blank")
		}
	}
	if len(ve) == 0 {
		return nil
	}
	return wrap(ve)
}

// Draft validates a content draft after defaults have been applied.
func Draft(d *model.ContentDraft) error {
	return wrap(validation.ValidateStruct(d,
		validation.Field(&d.Title, validation.Required.Error("title_required"), notBlank),
		validation.Field(&d.Content, validation.Required.Error("content_required"), notBlank),
		validation.Field(&d.Category, validation.Required.Error("category_required"), notBlank),
		validation.Field(&d.Slug, validation.Required.Error("slug_required"), validation.Match(slug.Pattern()).Error("invalid_slug_format")),
		validation.Field(&d.Status, validation.In(validStatus...).Error("invalid_status")),
		validation.Field(&d.CoverImage, is.URL.Error("invalid_cover_image")),
	))
}

// Patch validates the fields present in p.
func Patch(p *model.ContentPatch) error {
	ve := validation.Errors{}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		ve["title"] = validation.NewError("title_required", "cannot be blank")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		ve["content"] = validation.NewError("content_required", "cannot be blank")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		ve["category"] = validation.NewError("category_required", "cannot be blank")
	}
	if p.Slug != nil && !slug.Valid(*p.Slug) {
		ve["slug"] = validation.NewError("invalid_slug_format", "must be a lowercase hyphenated slug")
	}
	if p.Status != nil {
		if err := validation.Validate(*p.Status, validation.Required, validation.In(validStatus...)); err != nil {
			ve["status"] = validation.NewError("invalid_status", err.Error())
		}
	}
	if p.CoverImage != nil {
		if err := validation.Validate(*p.CoverImage, is.URL); err != nil {
			ve["coverImage"] = validation.NewError("invalid_cover_image", err.Error())
		}
	}
	if len(ve) == 0 {
		return nil
	}
	return wrap(ve)
}

// DirectoryUser validates an account of the users screen.
func DirectoryUser(u *model.DirectoryUser) error {
	return wrap(validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required.Error("name_required"), notBlank),
		validation.Field(&u.Email, validation.Required.Error("email_required"), is.EmailFormat.Error("invalid_email_format")),
		validation.Field(&u.Role, validation.Required.Error("role_required"), validation.In(validRoles...).Error("invalid_role")),
		validation.Field(&u.Status, validation.Required.Error("status_required"), validation.In(validUserStatus...).Error("invalid_status")),
	))
}

// Role validates a role value.
func Role(r model.Role) error {
	return wrap(validation.Validate(r, validation.Required, validation.In(validRoles...)))
}

// Password validates a new password.
func Password(p string) error {
	return wrap(validation.Validate(p, validation.Required, validation.RuneLength(MinPasswordLen, 0)))
}

// Media validates an uploaded asset.
func Media(m *model.MediaItem) error {
	return wrap(validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required.Error("name_required"), notBlank),
		validation.Field(&m.Type, validation.Required.Error("type_required"), validation.In(validMedia...).Error("invalid_type")),
		validation.Field(&m.URL, validation.Required.Error("url_required"), is.URL.Error("invalid_url")),
		validation.Field(&m.Size, validation.Min(int64(0)).Error("negative_size")),
	))
}

// General validates the general settings tab.
func General(g *model.GeneralSettings) error {
	return wrap(validation.ValidateStruct(g,
		validation.Field(&g.SiteName, validation.Required.Error("site_name_required")),
		validation.Field(&g.SiteURL, validation.Required.Error("site_url_required"), is.URL.Error("invalid_site_url")),
		validation.Field(&g.LogoURL, is.URL.Error("invalid_logo_url")),
		validation.Field(&g.FaviconURL, is.URL.Error("invalid_favicon_url")),
		validation.Field(&g.DefaultLanguage, validation.Required, validation.Length(2, 5)),
		validation.Field(&g.Timezone, validation.Required),
		validation.Field(&g.TimeFormat, validation.In("12", "24").Error("invalid_time_format")),
	))
}

// System validates the system settings tab.
func System(s *model.SystemSettings) error {
	return wrap(validation.ValidateStruct(s,
		validation.Field(&s.CacheDuration, validation.Min(0)),
		validation.Field(&s.MaxUploadSizeMB, validation.Required, validation.Min(1)),
		validation.Field(&s.AllowedFileTypes, validation.Required),
		validation.Field(&s.BackupFrequency, validation.In("hourly", "daily", "weekly", "monthly").Error("invalid_backup_frequency")),
	))
}

// Email validates the email settings tab.
func Email(e *model.EmailSettings) error {
	return wrap(validation.ValidateStruct(e,
		validation.Field(&e.Provider, validation.Required, validation.In("smtp", "sendgrid", "mailgun", "ses").Error("invalid_provider")),
		validation.Field(&e.SMTPHost, validation.When(e.Provider == "smtp", validation.Required, is.Host)),
		validation.Field(&e.SMTPPort, validation.When(e.Provider == "smtp", validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&e.SMTPEncryption, validation.In("none", "ssl", "tls").Error("invalid_encryption")),
		validation.Field(&e.FromEmail, validation.Required, is.EmailFormat),
	))
}

var notBlank = validation.By(func(v interface{}) error {
	s, _ := v.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("blank", "cannot be blank")
	}
	return nil
})
