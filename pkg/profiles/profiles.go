package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/brokennews-extractor/internal/extractor"
)

// Package profiles contains site profiles (YAML/JSON) describing the markup
// conventions the extractor relies on.

// DefaultID names the built-in brokennews profile.
const DefaultID = "brokennews"

// Profile describes where news blocks live in the markup of one site.
type Profile struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	BaseOrigin       string   `json:"base_origin" yaml:"base_origin"`
	ItemSelector     string   `json:"item_selector" yaml:"item_selector"`
	FallbackSelector string   `json:"fallback_selector" yaml:"fallback_selector"`
	BodyClass        string   `json:"body_class" yaml:"body_class"`
	TitleSelectors   []string `json:"title_selectors" yaml:"title_selectors"`
	DateSelector     string   `json:"date_selector" yaml:"date_selector"`
}

// Builtin returns the profile for the brokennews markup.
func Builtin() Profile {
	r := extractor.DefaultRules()
	return Profile{
		ID:               DefaultID,
		Name:             "Broken News",
		BaseOrigin:       r.BaseOrigin,
		ItemSelector:     r.ItemSelector,
		FallbackSelector: r.FallbackSelector,
		BodyClass:        r.BodyClass,
		TitleSelectors:   r.TitleSelectors,
		DateSelector:     r.DateSelector,
	}
}

// Rules converts the profile into extractor rules.
func (p Profile) Rules() extractor.Rules {
	return extractor.Rules{
		BaseOrigin:       p.BaseOrigin,
		ItemSelector:     p.ItemSelector,
		FallbackSelector: p.FallbackSelector,
		BodyClass:        p.BodyClass,
		TitleSelectors:   append([]string(nil), p.TitleSelectors...),
		DateSelector:     p.DateSelector,
	}
}

type fileRegistry struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Registry holds the loaded profiles keyed by id.
type Registry struct {
	mu       sync.RWMutex
	profiles []Profile
	idx      map[string]Profile
}

// NewRegistry builds a registry from already validated profiles.
func NewRegistry(profiles ...Profile) *Registry {
	reg := &Registry{idx: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		p = sanitizeProfile(p)
		if _, exists := reg.idx[p.ID]; exists {
			continue
		}
		reg.profiles = append(reg.profiles, p)
		reg.idx[p.ID] = p
	}
	return reg
}

// DefaultRegistry contains only the built-in profile.
func DefaultRegistry() *Registry {
	return NewRegistry(Builtin())
}

// LoadRegistry loads profiles from file. An empty path yields the default registry.
// The built-in profile stays available unless the file redefines its id.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRegistry(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	seen := make(map[string]struct{}, len(fileReg.Profiles))
	list := make([]Profile, 0, len(fileReg.Profiles)+1)
	for i := range fileReg.Profiles {
		p := sanitizeProfile(fileReg.Profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, exists := seen[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		list = append(list, p)
	}
	if _, exists := seen[DefaultID]; !exists {
		list = append(list, Builtin())
	}

	return NewRegistry(list...), nil
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (fileRegistry, error) {
	var reg fileRegistry
	if err := fn(data, &reg); err != nil {
		return fileRegistry{}, fmt.Errorf("decode %s profiles: %w", name, err)
	}
	return reg, nil
}

func sanitizeProfile(p Profile) Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.BaseOrigin = strings.TrimRight(strings.TrimSpace(p.BaseOrigin), "/")
	p.ItemSelector = strings.TrimSpace(p.ItemSelector)
	p.FallbackSelector = strings.TrimSpace(p.FallbackSelector)
	p.BodyClass = strings.TrimSpace(p.BodyClass)
	p.DateSelector = strings.TrimSpace(p.DateSelector)

	titles := make([]string, 0, len(p.TitleSelectors))
	for _, s := range p.TitleSelectors {
		if s = strings.TrimSpace(s); s != "" {
			titles = append(titles, s)
		}
	}
	p.TitleSelectors = titles

	return p
}

func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.BaseOrigin == "" {
		return fmt.Errorf("base_origin is required for profile %q", p.ID)
	}
	if !strings.HasPrefix(p.BaseOrigin, "http://") && !strings.HasPrefix(p.BaseOrigin, "https://") {
		return fmt.Errorf("base_origin must be an absolute http(s) origin for profile %q", p.ID)
	}
	if p.ItemSelector == "" {
		return fmt.Errorf("item_selector is required for profile %q", p.ID)
	}
	if p.BodyClass == "" {
		return fmt.Errorf("body_class is required for profile %q", p.ID)
	}
	return nil
}

// ByID returns the profile for id, if loaded.
func (r *Registry) ByID(id string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.idx[id]
	return p, ok
}

// All returns a copy of the loaded profiles.
func (r *Registry) All() []Profile {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}
