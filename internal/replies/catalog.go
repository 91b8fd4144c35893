// Package replies is the canned-reply catalog. Texts live in YAML so copy
// changes don't need a rebuild: embedded defaults ship with the binary and
// files in an optional override directory replace individual keys.
package replies

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type catalogFile struct {
	Replies     map[string]string   `yaml:"replies"`
	Suggestions map[string][]string `yaml:"suggestions"`
}

// Catalog resolves reply keys to text and quick-reply sets.
type Catalog struct {
	replies     map[string]string
	suggestions map[string][]string
}

// Load builds the catalog from the embedded defaults, then overlays any
// .yaml/.yml files found in dir (empty dir skips the overlay).
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	var base catalogFile
	if err := yaml.Unmarshal(defaultsYAML, &base); err != nil {
		return nil, fmt.Errorf("parse embedded replies: %w", err)
	}

	c := &Catalog{replies: base.Replies, suggestions: base.Suggestions}
	if c.replies == nil {
		c.replies = make(map[string]string)
	}
	if c.suggestions == nil {
		c.suggestions = make(map[string][]string)
	}

	if dir == "" {
		return c, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("replies directory does not exist, using defaults", "dir", dir)
		return c, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read replies dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read replies file", "path", path, "err", err)
			continue
		}
		var overlay catalogFile
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			logger.Warn("cannot parse replies file", "path", path, "err", err)
			continue
		}
		for k, v := range overlay.Replies {
			c.replies[k] = v
		}
		for k, v := range overlay.Suggestions {
			c.suggestions[k] = v
		}
		logger.Info("loaded reply overrides", "path", path)
	}

	return c, nil
}

// Text returns the reply for key, formatted with args when given. Unknown
// keys return the key itself so a missing entry is visible, not silent.
func (c *Catalog) Text(key string, args ...any) string {
	text, ok := c.replies[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// Suggestions returns the named quick-reply set, falling back to "default".
func (c *Catalog) Suggestions(key string) []string {
	if s, ok := c.suggestions[key]; ok {
		return s
	}
	return c.suggestions["default"]
}
