package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ras/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`version: "1.0"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultRootManifest, cfg.RootManifest)
	assert.Equal(t, []string{"robot", "server"}, cfg.Apps)
	assert.Equal(t, []string{"labs", "manipulators"}, cfg.Assets)
	assert.Empty(t, cfg.URLMode)
	assert.Zero(t, cfg.Parallelism)
}

func TestLoadFromBytes_EmptyListsStayEmpty(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("apps: [robot]\nassets: []\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"robot"}, cfg.Apps)
	assert.Empty(t, cfg.Assets)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("RAS_TEST_MODE", "ssh")

	cfg, err := LoadFromBytes([]byte("url_mode: ${RAS_TEST_MODE}\nparallelism: ${RAS_TEST_UNSET:-3}\n"))
	require.NoError(t, err)

	assert.Equal(t, "ssh", cfg.URLMode)
	assert.Equal(t, 3, cfg.Parallelism)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{"unknown url mode", "url_mode: ftp", errors.ErrCodeConfigInvalid},
		{"negative parallelism", "parallelism: -1", errors.ErrCodeConfigInvalid},
		{"apps not a list", "apps: robot", errors.ErrCodeConfigInvalid},
		{"bad app name", "apps: [Robot]", errors.ErrCodeConfigValidation},
		{"duplicate asset", "assets: [labs, labs]", errors.ErrCodeConfigValidation},
		{"root manifest outside workspace", "root_manifest: ../root.repos", errors.ErrCodeConfigValidation},
		{"malformed yaml", "apps: [robot", errors.ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestExtensions(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
logging:
  level: debug
  report_caller: true
monitoring:
  interval: 30
`))
	require.NoError(t, err)

	type loggingExt struct {
		Level        string `yaml:"level"`
		ReportCaller bool   `yaml:"report_caller"`
	}
	var logCfg loggingExt
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)

	type monitoringExt struct {
		Interval int `yaml:"interval"`
	}
	var mon monitoringExt
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &mon))
	assert.Equal(t, 30, mon.Interval)

	// Missing extensions leave the target untouched
	var missing monitoringExt
	require.NoError(t, cfg.UnmarshalExtension("absent", &missing))
	assert.Zero(t, missing.Interval)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ras.toml")
	writeFile(t, path, `
apps = ["robot"]
url_mode = "ssh"
parallelism = 2

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"robot"}, cfg.Apps)
	assert.Equal(t, "ssh", cfg.URLMode)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, path, cfg.Path())

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "warn", logCfg.Level)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ras.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ras.yml"), "version: \"1.0\"\n")
	nested := filepath.Join(root, "apps", "robot")
	require.NoError(t, os.MkdirAll(nested, 0755))

	path, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ras.yml"), path)

	_, err = FindConfigFile(t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadFrom_EnvStartDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ras.yml"), "apps: [server]\n")
	t.Setenv(EnvWorkspace, root)

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, []string{"server"}, cfg.Apps)

	dir, err := cfg.WorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, root, dir)

	manifest, err := cfg.RootManifestPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "root.repos"), manifest)
}

func TestStartDir_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvWorkspace, "~/ras_docker")

	assert.Equal(t, filepath.Join(home, "ras_docker"), StartDir())
}

func TestWorkspaceDir_Relative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ras.yml"), "workspace: ws\n")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	dir, err := cfg.WorkspaceDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ws"), dir)
}

func TestLoadWithOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ras.yml"), "apps: [robot, server]\nlogging:\n  level: info\n")
	writeFile(t, filepath.Join(root, "ras.override.yml"), "url_mode: ssh\nparallelism: 8\nlogging:\n  level: debug\n")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"robot", "server"}, cfg.Apps)
	assert.Equal(t, "ssh", cfg.URLMode)
	assert.Equal(t, 8, cfg.Parallelism)

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
}

func TestLoadWithOverrides_InvalidOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ras.yml"), "version: \"1.0\"\n")
	writeFile(t, filepath.Join(root, "ras.override.yml"), "url_mode: ftp\n")

	_, err := LoadFrom(root)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"root_manifest"`)
	assert.Contains(t, string(data), `"url_mode"`)
	assert.NotContains(t, string(data), `"Extensions"`)
}
