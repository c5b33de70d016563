package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Repo is one repository of a test manifest
type Repo struct {
	Path    string
	URL     string
	Version string
}

// Manifest renders repos in the manifest file format
func Manifest(t *testing.T, repos ...Repo) string {
	t.Helper()

	type entry struct {
		Type    string `yaml:"type"`
		URL     string `yaml:"url"`
		Version string `yaml:"version"`
	}
	doc := struct {
		Repositories map[string]entry `yaml:"repositories"`
	}{Repositories: make(map[string]entry, len(repos))}
	for _, r := range repos {
		doc.Repositories[r.Path] = entry{Type: "git", URL: r.URL, Version: r.Version}
	}

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	return string(data)
}

// WriteManifest writes a manifest of repos to path, creating parent directories
func WriteManifest(t *testing.T, path string, repos ...Repo) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(Manifest(t, repos...)), 0644))
}
