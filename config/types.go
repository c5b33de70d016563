package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultRootManifest is the root descriptor file name inside the workspace directory
	DefaultRootManifest = "root.repos"

	// DefaultVersion is the configuration version assumed when none is set
	DefaultVersion = "1.0"
)

var (
	// DefaultApps are the applications a workspace carries when none are configured
	DefaultApps = []string{"robot", "server"}

	// DefaultAssets are the asset categories a workspace carries when none are configured
	DefaultAssets = []string{"labs", "manipulators"}
)

// Config represents the ras.yml configuration
type Config struct {
	Version      string   `yaml:"version,omitempty" toml:"version,omitempty" jsonschema:"description=Configuration version (e.g. 1.0)"`
	Workspace    string   `yaml:"workspace,omitempty" toml:"workspace,omitempty" jsonschema:"description=Directory holding the root descriptor; relative to the config file (default: the config file's directory)"`
	RootManifest string   `yaml:"root_manifest,omitempty" toml:"root_manifest,omitempty" jsonschema:"description=Root descriptor file name inside the workspace (default: root.repos)"`
	Apps         []string `yaml:"apps,omitempty" toml:"apps,omitempty" jsonschema:"description=Applications with a repository map under apps/ (default: robot and server)"`
	Assets       []string `yaml:"assets,omitempty" toml:"assets,omitempty" jsonschema:"description=Asset categories with a repository map under assets/ (default: labs and manipulators)"`
	URLMode      string   `yaml:"url_mode,omitempty" toml:"url_mode,omitempty" jsonschema:"enum=ssh,enum=https,description=Remote scheme used when the root repository does not decide it"`
	Parallelism  int      `yaml:"parallelism,omitempty" toml:"parallelism,omitempty" jsonschema:"minimum=0,description=Maximum concurrent git operations per fan-out (default: number of CPUs)"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`

	path string
}

// Path returns the file the configuration was loaded from, empty for
// configuration built from bytes.
func (c *Config) Path() string {
	return c.path
}

// WorkspaceDir returns the absolute directory holding the root descriptor
func (c *Config) WorkspaceDir() (string, error) {
	base := ""
	if c.path != "" {
		base = filepath.Dir(c.path)
	}

	dir := c.Workspace
	switch {
	case dir == "":
		dir = base
	case !filepath.IsAbs(dir):
		dir = filepath.Join(base, dir)
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// RootManifestPath returns the absolute location of the root descriptor
func (c *Config) RootManifestPath() (string, error) {
	dir, err := c.WorkspaceDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.RootManifest), nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.RootManifest == "" {
		c.RootManifest = DefaultRootManifest
	}
	// An explicit empty list disables apps or assets
	if c.Apps == nil {
		c.Apps = append([]string(nil), DefaultApps...)
	}
	if c.Assets == nil {
		c.Assets = append([]string(nil), DefaultAssets...)
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded ras.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves the target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension '%s': %w", key, err)
	}

	return nil
}
