// Package seed provides the sample data a fresh console starts with.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/and161185/prismcms/internal/model"
)

//go:embed data.yaml
var raw []byte

// Data is the initial state of the in-memory stores.
type Data struct {
	Content []model.ContentItem   `yaml:"content"`
	Users   []model.DirectoryUser `yaml:"users"`
	Media   []model.MediaItem     `yaml:"media"`
}

// Load parses the embedded document. Each call returns fresh slices.
func Load() (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("seed: %w", err)
	}
	return d, nil
}
