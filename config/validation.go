package config

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/ras/command"
	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/pkg/remote"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RootManifest != "" && (!filepath.IsLocal(c.RootManifest) || filepath.Base(c.RootManifest) != c.RootManifest) {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("root_manifest must be a file name inside the workspace: %s", c.RootManifest)).
			WithDetail("root_manifest", c.RootManifest)
	}

	if err := validateNames("apps", c.Apps); err != nil {
		return err
	}
	if err := validateNames("assets", c.Assets); err != nil {
		return err
	}

	if c.URLMode != "" {
		if _, err := remote.ParseScheme(c.URLMode); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid url_mode").
				WithDetail("url_mode", c.URLMode)
		}
	}

	if c.Parallelism < 0 {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("parallelism cannot be negative: %d", c.Parallelism))
	}

	return nil
}

// validateNames checks app and asset names, which become directory and file names
func validateNames(field string, names []string) error {
	builder := command.NewSafeBuilder()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := builder.Validate("repoLabel", name); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, fmt.Sprintf("invalid %s entry '%s'", field, name)).
				WithDetail(field, name)
		}
		if seen[name] {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("duplicate %s entry '%s'", field, name)).
				WithDetail(field, name)
		}
		seen[name] = true
	}
	return nil
}
