package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/util/pathutil"
)

// EnvWorkspace points the config search at the workspace directory
const EnvWorkspace = "RAS_DOCKER_PATH"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory
var configNames = []string{
	"ras.yml",
	"ras.yaml",
	".ras.yml",
	".ras.yaml",
	"ras.toml",
}

// Load reads and parses a configuration file. Files ending in .toml are
// parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = LoadFromTOMLBytes(data)
	} else {
		cfg, err = LoadFromBytes(data)
	}
	if err != nil {
		if rasErr, ok := errors.As(err); ok {
			return nil, rasErr.WithDetail("path", path)
		}
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to resolve config path")
	}
	cfg.path = abs
	return cfg, nil
}

// LoadDefault finds and loads the configuration starting at $RAS_DOCKER_PATH,
// or the current directory when it is unset.
func LoadDefault() (*Config, error) {
	return LoadFromWithLogger(StartDir(), logrus.New())
}

// StartDir returns the directory the configuration search begins in
func StartDir() string {
	if dir := os.Getenv(EnvWorkspace); dir != "" {
		if expanded, err := pathutil.Expand(dir); err == nil {
			return expanded
		}
		return dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// LoadFrom loads configuration starting the search at startDir
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads the nearest configuration file at or above
// startDir and merges a ras.override.yml next to it, if present.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", path).Debug("Loading configuration")
	return LoadWithOverrides(path)
}

// LoadFromBytes parses YAML configuration
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var doc interface{}
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	// Validate against schema
	if doc != nil {
		validator, err := NewSchemaValidator()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
		}
		if err := validator.Validate(doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
		}
	}

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromTOMLBytes parses TOML configuration. The document is converted to
// YAML so both formats share expansion, validation and extension handling.
func LoadFromTOMLBytes(data []byte) (*Config, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	converted, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to convert TOML configuration")
	}
	return LoadFromBytes(converted)
}

// FindConfigFile searches startDir and its parents for a configuration file
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to resolve search directory")
	}

	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
