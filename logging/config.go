package logging

// Config is the "logging" section of ras.yml
type Config struct {
	// Level is the minimum level written: debug, info, warn or error.
	// RAS_LOG_LEVEL overrides it.
	Level string `yaml:"level"`

	// ReportCaller adds file, line and function to each entry.
	// RAS_LOG_CALLER=true enables it too.
	ReportCaller bool `yaml:"report_caller"`

	File   FileSinkConfig `yaml:"file"`
	Format FormatConfig   `yaml:"format"`
}

// FileSinkConfig configures an additional log file
type FileSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Format is "text" (default) or "json"
	Format string `yaml:"format,omitempty"`
}

// FormatConfig controls how entries are rendered on stderr
type FormatConfig struct {
	// Preset is "default", "simple" or "json"
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// Stderr is "auto" (default), "always" or "never". In auto mode
	// entries go to stderr unless a file sink is enabled and stderr is
	// an interactive terminal below debug level.
	Stderr string `yaml:"stderr"`
}
