package vcs

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/schema"
)

// KindGit is the only repository type the tree manages
const KindGit = "git"

// Entry is one repository of a manifest
type Entry struct {
	Type    string `yaml:"type" json:"type" jsonschema:"enum=git,description=Version control system of the repository"`
	URL     string `yaml:"url" json:"url" jsonschema:"minLength=1,description=Remote URL in ssh or https form"`
	Version string `yaml:"version" json:"version" jsonschema:"minLength=1,description=Branch tag or commit to check out"`
}

// Manifest is the on-disk description of a repository map, keyed by path
// relative to the map's work dir.
type Manifest struct {
	Repositories map[string]Entry `yaml:"repositories" json:"repositories" jsonschema:"description=Repositories keyed by checkout path"`
}

// ReadManifest loads and validates the manifest at path
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ManifestNotFound(path)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ManifestInvalid(path, err)
	}
	if doc == nil {
		// An empty file declares no repositories
		return &Manifest{Repositories: map[string]Entry{}}, nil
	}
	if top, ok := doc.(map[string]interface{}); ok {
		if repos, present := top["repositories"]; present && repos == nil {
			top["repositories"] = map[string]interface{}{}
		}
	}
	if err := validateManifest(doc); err != nil {
		return nil, errors.ManifestInvalid(path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.ManifestInvalid(path, err)
	}
	if m.Repositories == nil {
		m.Repositories = map[string]Entry{}
	}
	for p := range m.Repositories {
		if !filepath.IsLocal(p) {
			return nil, errors.ManifestInvalid(path, fmt.Errorf("repository path %q must be relative and stay inside the work dir", p))
		}
	}
	return &m, nil
}

// WriteManifest writes m to path atomically. Keys are sorted and only
// type, url and version are written.
func WriteManifest(path string, m *Manifest) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	repos := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "repositories"}, repos)

	paths := make([]string, 0, len(m.Repositories))
	for p := range m.Repositories {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		entry := &yaml.Node{}
		if err := entry.Encode(m.Repositories[p]); err != nil {
			return fmt.Errorf("failed to encode %s: %w", p, err)
		}
		repos.Content = append(repos.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p}, entry)
	}

	data, err := yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

var manifestValidator = sync.OnceValues(schema.NewManifestValidator)

func validateManifest(doc interface{}) error {
	v, err := manifestValidator()
	if err != nil {
		return err
	}
	return v.Validate(doc)
}
