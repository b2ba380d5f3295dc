// Package model defines domain entities used by services and repositories.
package model

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a content item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Author is captured when an item is created and never changes afterwards.
type Author struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ContentItem is a single publishable article.
type ContentItem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Slug        string     `json:"slug" yaml:"slug"`
	Content     string     `json:"content" yaml:"content"`
	Excerpt     string     `json:"excerpt,omitempty" yaml:"excerpt"`
	CoverImage  string     `json:"coverImage,omitempty" yaml:"coverImage"`
	Status      Status     `json:"status" yaml:"status"`
	Author      Author     `json:"author" yaml:"author"`
	Category    string     `json:"category" yaml:"category"`
	Tags        []string   `json:"tags" yaml:"tags"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt"`
	Views       int64      `json:"views" yaml:"views"`
}

// IsPublished reports whether the item is currently published.
func (c *ContentItem) IsPublished() bool { return c.Status == StatusPublished }

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (c ContentItem) Clone() ContentItem {
	c.Tags = slices.Clone(c.Tags)
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		c.PublishedAt = &t
	}
	return c
}

// ContentDraft is the caller-supplied part of a new item.
// ID, CreatedAt, UpdatedAt and Views are assigned by the repository.
type ContentDraft struct {
	Title       string
	Slug        string // derived from Title when empty
	Content     string
	Excerpt     string
	CoverImage  string
	Status      Status // defaults to draft
	Author      Author
	Category    string
	Tags        []string
	PublishedAt *time.Time
}

// ContentPatch lists optional field overrides. Nil fields keep the stored value.
type ContentPatch struct {
	Title       *string
	Slug        *string
	Content     *string
	Excerpt     *string
	CoverImage  *string
	Status      *Status
	Category    *string
	Tags        []string // nil keeps, empty non-nil clears
	PublishedAt *time.Time
}

// IsEmpty reports whether the patch carries no field.
func (p ContentPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Content == nil && p.Excerpt == nil &&
		p.CoverImage == nil && p.Status == nil && p.Category == nil && p.Tags == nil &&
		p.PublishedAt == nil
}

// FilterAll disables a status or category constraint.
const FilterAll = "all"

// Filter narrows a content query. Empty or "all" values impose no constraint.
type Filter struct {
	Search   string
	Status   string
	Category string
}

// SortKey selects the ordering field of a query.
type SortKey string

const (
	SortByTitle     SortKey = "title"
	SortByUpdatedAt SortKey = "updatedAt"
	SortByViews     SortKey = "views"
)

// SortOrder is the direction of a query ordering.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort is the ordering of a content query. The zero value means updatedAt desc.
type Sort struct {
	By    SortKey
	Order SortOrder
}

// Stats aggregates the collection for the dashboard.
type Stats struct {
	Total      int
	Published  int
	Drafts     int
	Archived   int
	TotalViews int64
	Top        []ContentItem // most viewed published items, at most five
}

// Role of a console user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// SessionUser is the identity of the signed-in console user.
type SessionUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar"`
}

// StoredSession is what the persistence slot keeps between restarts.
type StoredSession struct {
	User      SessionUser `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// UserStatus marks whether a directory account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// DirectoryUser is an account listed in the users screen.
// Password material is never stored in plaintext.
type DirectoryUser struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Email        string     `yaml:"email"`
	Role         Role       `yaml:"role"`
	Status       UserStatus `yaml:"status"`
	Avatar       string     `yaml:"avatar"`
	LastLogin    *time.Time `yaml:"lastLogin"`
	PasswordHash []byte     `yaml:"-"` // Argon2id(password, Salt)
	Salt         []byte     `yaml:"-"`
	CreatedAt    time.Time  `yaml:"createdAt"`
}

// Session projects a directory account onto a session identity.
func (u DirectoryUser) Session() SessionUser {
	return SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

// UserFilter narrows the users screen.
type UserFilter struct {
	Search string
	Role   string
	Status string
}

// MediaType classifies uploaded assets.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// MediaItem is a single asset of the media library.
type MediaItem struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Type       MediaType `yaml:"type"`
	URL        string    `yaml:"url"`
	Size       int64     `yaml:"size"` // bytes
	Dimensions string    `yaml:"dimensions"`
	UploadedAt time.Time `yaml:"uploadedAt"`
	UploadedBy string    `yaml:"uploadedBy"`
}

// MediaFilter narrows the media screen.
type MediaFilter struct {
	Search string
	Type   string
}

// NotificationType is the severity of a toast message.
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyWarning NotificationType = "warning"
	NotifyInfo    NotificationType = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
}

// GeneralSettings is the "general" tab of the settings panel.
type GeneralSettings struct {
	SiteName        string `yaml:"siteName"`
	SiteDescription string `yaml:"siteDescription"`
	SiteURL         string `yaml:"siteUrl"`
	LogoURL         string `yaml:"logoUrl"`
	FaviconURL      string `yaml:"faviconUrl"`
	DefaultLanguage string `yaml:"defaultLanguage"`
	Timezone        string `yaml:"timezone"`
	DateFormat      string `yaml:"dateFormat"`
	TimeFormat      string `yaml:"timeFormat"`
}

// SystemSettings is the "system" tab of the settings panel.
type SystemSettings struct {
	CacheEnabled     bool   `yaml:"cacheEnabled"`
	CacheDuration    int    `yaml:"cacheDuration"` // seconds
	Debug            bool   `yaml:"debug"`
	MaintenanceMode  bool   `yaml:"maintenanceMode"`
	APIEnabled       bool   `yaml:"apiEnabled"`
	MaxUploadSizeMB  int    `yaml:"maxUploadSize"`
	AllowedFileTypes string `yaml:"allowedFileTypes"` // comma separated extensions
	BackupFrequency  string `yaml:"backupFrequency"`
}

// EmailSettings is the "email" tab of the settings panel.
type EmailSettings struct {
	Provider       string `yaml:"emailProvider"`
	SMTPHost       string `yaml:"smtpHost"`
	SMTPPort       int    `yaml:"smtpPort"`
	SMTPUsername   string `yaml:"smtpUsername"`
	SMTPPassword   string `yaml:"smtpPassword"`
	SMTPEncryption string `yaml:"smtpEncryption"`
	FromEmail      string `yaml:"fromEmail"`
	FromName       string `yaml:"fromName"`
}

// Settings groups every tab of the settings panel.
type Settings struct {
	General GeneralSettings `yaml:"general"`
	System  SystemSettings  `yaml:"system"`
	Email   EmailSettings   `yaml:"email"`
}
