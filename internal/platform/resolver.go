// Package platform maps canonical platform names to provider-specific codes.
//
// The table ships embedded and can be extended by a user YAML file with the
// same shape. A Resolver is immutable once built, so identical inputs always
// resolve to identical codes.
package platform

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var defaultsFS embed.FS

// Code is a provider-specific platform identifier. The zero value is the
// provider's "any/unknown" platform; providers decide how that goes on the wire.
type Code struct {
	Value string
	Known bool
}

// Unknown returns the any/unknown platform code.
func Unknown() Code {
	return Code{}
}

// Known wraps a concrete provider code.
func Known(value string) Code {
	return Code{Value: value, Known: true}
}

func (c Code) String() string {
	if !c.Known {
		return "unknown"
	}
	return c.Value
}

// Entry is one row of the platform table.
type Entry struct {
	Name    string            `yaml:"name"`
	AliasOf string            `yaml:"alias_of,omitempty"`
	Dirs    []string          `yaml:"dirs,omitempty"`
	Codes   map[string]string `yaml:"codes,omitempty"`
}

// Table is the YAML document shape.
type Table struct {
	Platforms []Entry `yaml:"platforms"`
}

// Resolver answers platform lookups.
type Resolver struct {
	entries map[string]Entry // keyed by lower-cased name
	names   []string
	dirs    map[string]string // normalized dir alias -> canonical name
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default returns the resolver built from the embedded table.
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		table, err := loadEmbedded()
		if err != nil {
			panic(fmt.Sprintf("embedded platform table: %v", err))
		}
		r, err := NewResolver(table.Platforms)
		if err != nil {
			panic(fmt.Sprintf("embedded platform table: %v", err))
		}
		defaultResolver = r
	})
	return defaultResolver
}

// Load builds a resolver from the embedded table merged with the optional
// user file at overridePath. User rows replace embedded rows of the same name.
func Load(overridePath string) (*Resolver, error) {
	table, err := loadEmbedded()
	if err != nil {
		return nil, err
	}
	if overridePath != "" {
		data, err := os.ReadFile(overridePath) //nolint:gosec // user supplied path
		if err != nil {
			return nil, fmt.Errorf("read platform overrides: %w", err)
		}
		var user Table
		if err := yaml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("parse platform overrides: %w", err)
		}
		table = merge(table, user)
	}
	return NewResolver(table.Platforms)
}

func loadEmbedded() (Table, error) {
	var table Table
	data, err := defaultsFS.ReadFile("platforms.yaml")
	if err != nil {
		return table, err
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return table, err
	}
	return table, nil
}

// merge overlays source rows on dest (source takes precedence).
func merge(dest, source Table) Table {
	index := make(map[string]int, len(dest.Platforms))
	for i, e := range dest.Platforms {
		index[strings.ToLower(e.Name)] = i
	}
	for _, e := range source.Platforms {
		if i, ok := index[strings.ToLower(e.Name)]; ok {
			dest.Platforms[i] = e
			continue
		}
		index[strings.ToLower(e.Name)] = len(dest.Platforms)
		dest.Platforms = append(dest.Platforms, e)
	}
	return dest
}

// NewResolver validates entries and flattens alias rows onto their parents.
func NewResolver(entries []Entry) (*Resolver, error) {
	raw := make(map[string]Entry, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("platform entry without name")
		}
		key := strings.ToLower(name)
		if _, dup := raw[key]; dup {
			return nil, fmt.Errorf("duplicate platform %q", name)
		}
		e.Name = name
		raw[key] = e
	}

	r := &Resolver{
		entries: make(map[string]Entry, len(raw)),
		dirs:    make(map[string]string),
	}
	for key, e := range raw {
		codes, err := resolveCodes(raw, e, 0)
		if err != nil {
			return nil, err
		}
		flat := Entry{Name: e.Name, AliasOf: e.AliasOf, Dirs: e.Dirs, Codes: codes}
		r.entries[key] = flat
		r.names = append(r.names, e.Name)
		for _, d := range e.Dirs {
			r.dirs[normalizeDir(d)] = e.Name
		}
	}
	sort.Strings(r.names)
	return r, nil
}

const maxAliasDepth = 8

func resolveCodes(raw map[string]Entry, e Entry, depth int) (map[string]string, error) {
	codes := make(map[string]string)
	if e.AliasOf != "" {
		if depth >= maxAliasDepth {
			return nil, fmt.Errorf("platform %q: alias chain too deep", e.Name)
		}
		parent, ok := raw[strings.ToLower(e.AliasOf)]
		if !ok {
			return nil, fmt.Errorf("platform %q: alias of unknown platform %q", e.Name, e.AliasOf)
		}
		inherited, err := resolveCodes(raw, parent, depth+1)
		if err != nil {
			return nil, err
		}
		for k, v := range inherited {
			codes[k] = v
		}
	}
	for provider, v := range e.Codes {
		codes[strings.ToLower(provider)] = strings.TrimSpace(v)
	}
	return codes, nil
}

// Resolve returns the code for canonicalPlatform on provider. Unknown
// platforms and unmapped providers yield Unknown().
func (r *Resolver) Resolve(canonicalPlatform, provider string) Code {
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(canonicalPlatform))]
	if !ok {
		return Unknown()
	}
	v, ok := e.Codes[strings.ToLower(provider)]
	if !ok || v == "" {
		return Unknown()
	}
	return Known(v)
}

// Canonical returns the parent name for alias rows, or the row's own name.
func (r *Resolver) Canonical(platform string) (string, bool) {
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return "", false
	}
	for depth := 0; e.AliasOf != "" && depth < maxAliasDepth; depth++ {
		parent, ok := r.entries[strings.ToLower(e.AliasOf)]
		if !ok {
			break
		}
		e = parent
	}
	return e.Name, true
}

// Lookup returns the canonical spelling of platform as stored in the table.
func (r *Resolver) Lookup(platform string) (string, bool) {
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(platform))]
	return e.Name, ok
}

// Names lists all platform names, aliases included, sorted.
func (r *Resolver) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Codes returns the flattened provider codes of a platform.
func (r *Resolver) Codes(platform string) map[string]string {
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(platform))]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(e.Codes))
	for k, v := range e.Codes {
		out[k] = v
	}
	return out
}
