// Package prefs stores client-local preferences: the colour theme and an API
// credential. They live in a TOML file under the user config directory, are
// never read by the sync client and never leave the machine.
package prefs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Theme is the terminal colour scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggled returns the other theme
func (t Theme) Toggled() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// Preferences holds the persisted settings
type Preferences struct {
	Theme  Theme  `toml:"theme"`
	APIKey string `toml:"api_key"`
}

// Default returns the preferences used before anything is saved
func Default() *Preferences {
	return &Preferences{Theme: ThemeDark}
}

// MaskedAPIKey shows only the last four characters of the key
func (p *Preferences) MaskedAPIKey() string {
	if p.APIKey == "" {
		return ""
	}
	if len(p.APIKey) <= 4 {
		return strings.Repeat("*", len(p.APIKey))
	}
	return strings.Repeat("*", len(p.APIKey)-4) + p.APIKey[len(p.APIKey)-4:]
}

// Dir returns the notegraph config directory
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "notegraph")
}

// Store reads and writes the preferences file
type Store struct {
	path string
}

// NewStore creates a store for path, or for prefs.toml in Dir() when empty
func NewStore(path string) *Store {
	if path == "" {
		path = filepath.Join(Dir(), "prefs.toml")
	}
	return &Store{path: path}
}

// Path returns the preferences file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the preferences. A missing file yields the defaults; an unknown
// theme falls back to the default theme.
func (s *Store) Load() (*Preferences, error) {
	p := Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	if _, err := toml.Decode(string(data), p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if !p.Theme.Valid() {
		p.Theme = Default().Theme
	}
	return p, nil
}

// Save writes the preferences, readable by the owner only
func (s *Store) Save(p *Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return err
	}

	// Replace the file atomically
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// ToggleTheme flips and saves the theme, returning the new one
func (s *Store) ToggleTheme() (Theme, error) {
	p, err := s.Load()
	if err != nil {
		return "", err
	}
	p.Theme = p.Theme.Toggled()
	if err := s.Save(p); err != nil {
		return "", err
	}
	return p.Theme, nil
}

// SetAPIKey saves the credential; an empty key clears it
func (s *Store) SetAPIKey(key string) error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	p.APIKey = strings.TrimSpace(key)
	return s.Save(p)
}
