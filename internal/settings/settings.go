// Package settings keeps the site settings of the console and their YAML file.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/validate"
)

// Defaults returns the settings a fresh install starts with.
func Defaults() model.Settings {
	return model.Settings{
		General: model.GeneralSettings{
			SiteName:        "PrismCMS",
			SiteDescription: "A professional content management system",
			SiteURL:         "https://prismcms.com",
			DefaultLanguage: "en",
			Timezone:        "UTC",
			DateFormat:      "YYYY-MM-DD",
			TimeFormat:      "24",
		},
		System: model.SystemSettings{
			CacheEnabled:     true,
			CacheDuration:    3600,
			APIEnabled:       true,
			MaxUploadSizeMB:  10,
			AllowedFileTypes: "jpg,jpeg,png,gif,pdf,doc,docx,xls,xlsx,zip",
			BackupFrequency:  "daily",
		},
		Email: model.EmailSettings{
			Provider:       "smtp",
			SMTPHost:       "smtp.example.com",
			SMTPPort:       587,
			SMTPUsername:   "user@example.com",
			SMTPEncryption: "tls",
			FromEmail:      "no-reply@prismcms.com",
			FromName:       "PrismCMS",
		},
	}
}

// Validate checks every section.
func Validate(s *model.Settings) error {
	if err := validate.General(&s.General); err != nil {
		return fmt.Errorf("general: %w", err)
	}
	if err := validate.System(&s.System); err != nil {
		return fmt.Errorf("system: %w", err)
	}
	if err := validate.Email(&s.Email); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}

// Store holds the current settings. Each update replaces one section atomically.
type Store struct {
	mu   sync.RWMutex
	cur  model.Settings
	path string // written after each update when set
	log  *zap.Logger
}

// NewStore constructs a store holding initial.
func NewStore(initial model.Settings, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{cur: initial, log: log}
}

// Get returns a copy of the current settings.
func (s *Store) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Store) UpdateGeneral(g model.GeneralSettings) error {
	if err := validate.General(&g); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur.General = g
	s.mu.Unlock()
	s.log.Info("settings updated", zap.String("section", "general"))
	return s.flush()
}

func (s *Store) UpdateSystem(sys model.SystemSettings) error {
	if err := validate.System(&sys); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur.System = sys
	s.mu.Unlock()
	s.log.Info("settings updated", zap.String("section", "system"))
	return s.flush()
}

func (s *Store) UpdateEmail(e model.EmailSettings) error {
	if err := validate.Email(&e); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur.Email = e
	s.mu.Unlock()
	s.log.Info("settings updated", zap.String("section", "email"))
	return s.flush()
}

// Persist makes every later section update write the settings to path.
func (s *Store) Persist(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// flush writes the settings to the persist path, if any.
func (s *Store) flush() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := s.Save(path); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// replace swaps in a fully validated value.
func (s *Store) replace(v model.Settings) {
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

// Load reads path over Defaults and validates the result.
// Keys missing from the file keep their default.
func Load(path string) (model.Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Settings{}, err
	}
	v := Defaults()
	if err := yaml.Unmarshal(b, &v); err != nil {
		return model.Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Validate(&v); err != nil {
		return model.Settings{}, err
	}
	return v, nil
}

// LoadFile replaces the store contents with the file at path.
func (s *Store) LoadFile(path string) error {
	v, err := Load(path)
	if err != nil {
		return err
	}
	s.replace(v)
	return nil
}

// Save writes the current settings to path. The file may hold the SMTP
// password, so it is created 0600.
func (s *Store) Save(path string) error {
	b, err := yaml.Marshal(s.Get())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
