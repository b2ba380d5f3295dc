package validate

import (
	"errors"
	"testing"

	"github.com/and161185/prismcms/internal/errs"
	"github.com/and161185/prismcms/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestDraft(t *testing.T) {
	t.Parallel()

	ok := model.ContentDraft{Title: "T", Slug: "t", Content: "c", Category: "Guides", Status: model.StatusDraft}
	if err := Draft(&ok); err != nil {
		t.Fatalf("valid draft: %v", err)
	}

	for name, mut := range map[string]func(d *model.ContentDraft){
		"empty title":    func(d *model.ContentDraft) { d.Title = "" },
		"blank content":  func(d *model.ContentDraft) { d.Content = "   " },
		"empty category": func(d *model.ContentDraft) { d.Category = "" },
		"bad slug":       func(d *model.ContentDraft) { d.Slug = "Bad Slug" },
		"bad status":     func(d *model.ContentDraft) { d.Status = "deleted" },
		"bad cover":      func(d *model.ContentDraft) { d.CoverImage = "not a url" },
	} {
		d := ok
		mut(&d)
		err := Draft(&d)
		if !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want ErrValidation, got %v", name, err)
		}
	}
}

func TestPatch(t *testing.T) {
	t.Parallel()

	if err := Patch(&model.ContentPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if err := Patch(&model.ContentPatch{Title: ptr("New"), Status: ptr(model.StatusArchived), CoverImage: ptr("")}); err != nil {
		t.Fatalf("valid patch: %v", err)
	}
	bad := []model.ContentPatch{
		{Title: ptr("")},
		{Content: ptr(" ")},
		{Category: ptr("")},
		{Slug: ptr("no spaces allowed")},
		{Status: ptr(model.Status(""))},
		{Status: ptr(model.Status("gone"))},
	}
	for i := range bad {
		if err := Patch(&bad[i]); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("patch %d: want ErrValidation, got %v", i, err)
		}
	}
}

func TestRequired(t *testing.T) {
	t.Parallel()

	if err := Required("email", "a@b.c", "password", "x"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := Required("email", "", "password", "x"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestDirectoryUserAndPassword(t *testing.T) {
	t.Parallel()

	u := model.DirectoryUser{Name: "Jo", Email: "jo@example.com", Role: model.RoleViewer, Status: model.UserActive}
	if err := DirectoryUser(&u); err != nil {
		t.Fatalf("valid user: %v", err)
	}
	u.Email = "nope"
	if err := DirectoryUser(&u); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on bad email, got %v", err)
	}
	if err := Role("owner"); err == nil {
		t.Fatalf("want error on unknown role")
	}
	if err := Password("short"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on short password, got %v", err)
	}
	if err := Password("long-enough"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestSettingsTabs(t *testing.T) {
	t.Parallel()

	g := model.GeneralSettings{SiteName: "PrismCMS", SiteURL: "https://prismcms.com", DefaultLanguage: "en", Timezone: "UTC", TimeFormat: "24"}
	if err := General(&g); err != nil {
		t.Fatalf("general: %v", err)
	}
	g.TimeFormat = "36"
	if err := General(&g); err == nil {
		t.Fatalf("want error on bad time format")
	}

	s := model.SystemSettings{MaxUploadSizeMB: 10, AllowedFileTypes: "jpg,png", BackupFrequency: "daily"}
	if err := System(&s); err != nil {
		t.Fatalf("system: %v", err)
	}
	s.MaxUploadSizeMB = 0
	if err := System(&s); err == nil {
		t.Fatalf("want error on zero upload size")
	}

	e := model.EmailSettings{Provider: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPEncryption: "tls", FromEmail: "no-reply@prismcms.com"}
	if err := Email(&e); err != nil {
		t.Fatalf("email: %v", err)
	}
	e.SMTPPort = 0
	if err := Email(&e); err == nil {
		t.Fatalf("want error on missing smtp port")
	}
}
