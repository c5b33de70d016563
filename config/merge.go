package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/ras/errors"
)

// overrideNames are local, usually untracked, files merged over the main configuration
var overrideNames = []string{
	"ras.override.yml",
	"ras.override.yaml",
	".ras.override.yml",
	".ras.override.yaml",
}

// LoadWithOverrides loads baseFile and merges every override file found next to it
func LoadWithOverrides(baseFile string) (*Config, error) {
	config, err := Load(baseFile)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(baseFile)
	for _, name := range overrideNames {
		overrideFile := filepath.Join(dir, name)
		if _, err := os.Stat(overrideFile); err != nil {
			continue
		}

		data, err := os.ReadFile(overrideFile)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read override").
				WithDetail("path", overrideFile)
		}

		var override Config
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &override); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse override").
				WithDetail("path", overrideFile)
		}

		config = mergeConfigs(config, &override)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.Workspace != "" {
		result.Workspace = override.Workspace
	}
	if override.RootManifest != "" {
		result.RootManifest = override.RootManifest
	}
	if override.Apps != nil {
		result.Apps = override.Apps
	}
	if override.Assets != nil {
		result.Assets = override.Assets
	}
	if override.URLMode != "" {
		result.URLMode = override.URLMode
	}
	if override.Parallelism != 0 {
		result.Parallelism = override.Parallelism
	}

	// Extensions merge key by key
	if len(override.Extensions) > 0 {
		result.Extensions = make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			result.Extensions[k] = v
		}
		for k, v := range override.Extensions {
			result.Extensions[k] = v
		}
	}

	return &result
}
