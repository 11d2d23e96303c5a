// Package config loads the optional project manifest that supplies
// defaults for the rolltide commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rolltide/internal/emit"
	"github.com/roach88/rolltide/internal/ir"
)

// Manifest file names, in lookup order within one directory.
const (
	YAMLName = "rolltide.yaml"
	YMLName  = "rolltide.yml"
	TOMLName = "rolltide.toml"
)

var manifestNames = []string{YAMLName, YMLName, TOMLName}

// Manifest holds project defaults. Zero values mean "not set"; command
// flags override any value set here.
type Manifest struct {
	// Path is the manifest file; Root is its directory. Relative paths in
	// the manifest are resolved against Root when loading.
	Path string `yaml:"-" toml:"-"`
	Root string `yaml:"-" toml:"-"`

	LibDirs         []string `yaml:"lib_dirs" toml:"lib_dirs"`
	Target          string   `yaml:"target" toml:"target"`
	OutDir          string   `yaml:"outdir" toml:"outdir"`
	IRFormat        string   `yaml:"ir_format" toml:"ir_format"`
	Ledger          string   `yaml:"ledger" toml:"ledger"`
	MaxIncludeDepth int      `yaml:"max_include_depth" toml:"max_include_depth"`
}

// Find walks up from startDir looking for a manifest file.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range manifestNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest manifest above startDir. ok is false
// when there is none.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load reads a manifest, choosing the decoder by file extension. Unknown
// keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", abs, err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(abs, &m)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", abs, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%s: unsupported manifest format (want .yaml, .yml or .toml)", abs)
	}

	m.Path = abs
	m.Root = filepath.Dir(abs)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	m.resolvePaths()
	return &m, nil
}

// Validate checks the values a manifest may set.
func (m *Manifest) Validate() error {
	if m.Target != "" {
		if _, err := emit.ParseTarget(m.Target); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	switch m.IRFormat {
	case "", ir.FormatJSON, ir.FormatMsgpack:
	default:
		return fmt.Errorf("ir_format: must be %q or %q, got %q", ir.FormatJSON, ir.FormatMsgpack, m.IRFormat)
	}
	if m.MaxIncludeDepth < 0 {
		return fmt.Errorf("max_include_depth: must not be negative, got %d", m.MaxIncludeDepth)
	}
	for i, dir := range m.LibDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("lib_dirs[%d]: must not be empty", i)
		}
	}
	return nil
}

func (m *Manifest) resolvePaths() {
	for i, dir := range m.LibDirs {
		m.LibDirs[i] = m.resolve(dir)
	}
	if m.OutDir != "" {
		m.OutDir = m.resolve(m.OutDir)
	}
	if m.Ledger != "" {
		m.Ledger = m.resolve(m.Ledger)
	}
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
