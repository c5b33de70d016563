package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/pkg/parallel"
)

// RepoMap is a set of nodes loaded from one manifest and checked out under
// one work dir.
type RepoMap struct {
	tree  *Tree
	id    MapID
	owner NodeID

	Label string
	// Manifest and WorkDir are relative to the owning node's checkout,
	// absolute for the top map
	Manifest    string
	WorkDir     string
	DefaultPull bool

	specs []MapSpec

	loadMu  sync.Mutex
	loaded  bool
	members []NodeID
}

// ID returns the map's handle
func (m *RepoMap) ID() MapID { return m.id }

// OwnerNode returns the node the map belongs to, nil for the top map
func (m *RepoMap) OwnerNode() *Node {
	if m.owner == NoNode {
		return nil
	}
	return m.tree.Node(m.owner)
}

// ManifestPath returns the absolute manifest location
func (m *RepoMap) ManifestPath() string {
	return m.resolve(m.Manifest)
}

// WorkDirPath returns the absolute work dir
func (m *RepoMap) WorkDirPath() string {
	return m.resolve(m.WorkDir)
}

func (m *RepoMap) resolve(p string) string {
	owner := m.OwnerNode()
	if owner == nil {
		return p
	}
	return filepath.Join(owner.AbsPath(), p)
}

// ManifestExists reports whether the manifest file is on disk
func (m *RepoMap) ManifestExists() bool {
	info, err := os.Stat(m.ManifestPath())
	return err == nil && !info.IsDir()
}

// WorkDirExists reports whether the work dir is on disk
func (m *RepoMap) WorkDirExists() bool {
	info, err := os.Stat(m.WorkDirPath())
	return err == nil && info.IsDir()
}

// Load reads the whole manifest, creating a node for every repository and
// attaching the map's child specs to each. Loading twice is a no-op.
func (m *RepoMap) Load() error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	if m.loaded {
		return nil
	}

	manifest, err := ReadManifest(m.ManifestPath())
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(manifest.Repositories))
	for p := range manifest.Repositories {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	members := make([]NodeID, 0, len(paths))
	for _, p := range paths {
		n := m.tree.newNode(m.id, filepath.Clean(p), manifest.Repositories[p])
		for _, spec := range m.specs {
			m.tree.newMap(n.id, spec)
		}
		members = append(members, n.id)
	}
	m.members = members
	m.loaded = true

	m.tree.log.WithField("manifest", m.ManifestPath()).Debugf("Loaded %d repositories for %s", len(members), m.Label)
	return nil
}

// Nodes returns the loaded members ordered by path
func (m *RepoMap) Nodes() []*Node {
	m.loadMu.Lock()
	ids := m.members
	m.loadMu.Unlock()

	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, m.tree.Node(id))
	}
	return nodes
}

// Lookup returns the member at path, nil if there is none
func (m *RepoMap) Lookup(path string) *Node {
	path = filepath.Clean(path)
	for _, n := range m.Nodes() {
		if n.Path == path {
			return n
		}
	}
	return nil
}

// InitVCS reconciles every member from the manifest in parallel, then
// validates every member again. Any invalid member fails the map even when
// its own reconciliation reported success.
func (m *RepoMap) InitVCS(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := m.fanOut(ctx, "init "+m.Label, (*Node).ReconcileFromManifest); err != nil {
		return err
	}

	var invalid []error
	for _, n := range m.Nodes() {
		if err := n.Verify(); err != nil {
			invalid = append(invalid, fmt.Errorf("%s: %w", n.RelPath(), err))
		}
	}
	return errors.Aggregate("validate "+m.Label, invalid)
}

// ImportVCS clones every member that is absent on disk. Valid checkouts are
// left alone; anything else at a member path is CORRUPT_REPOSITORY.
func (m *RepoMap) ImportVCS(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}

	return m.fanOut(ctx, "import "+m.Label, func(n *Node, ctx context.Context) error {
		err := n.Verify()
		if errors.Is(err, errors.ErrCodeNotInitialized) {
			return n.Import(ctx)
		}
		return err
	})
}

// ClearVCS clears every member in parallel
func (m *RepoMap) ClearVCS(ctx context.Context) error {
	if err := m.Load(); err != nil {
		return err
	}
	return m.fanOut(ctx, "clear "+m.Label, (*Node).Clear)
}

// PullVCS pulls every member present on disk in one sequential batch
func (m *RepoMap) PullVCS(ctx context.Context) error {
	if err := m.Load(); err != nil {
		return err
	}

	var paths []string
	for _, n := range m.Nodes() {
		if n.Exists() {
			paths = append(paths, n.AbsPath())
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return m.tree.git.Pull(ctx, paths...)
}

// Save writes the members back to the manifest
func (m *RepoMap) Save() error {
	if err := m.Load(); err != nil {
		return err
	}

	manifest := &Manifest{Repositories: make(map[string]Entry)}
	for _, n := range m.Nodes() {
		manifest.Repositories[filepath.ToSlash(n.Path)] = n.Entry()
	}
	if err := WriteManifest(m.ManifestPath(), manifest); err != nil {
		return err
	}
	m.tree.log.WithField("manifest", m.ManifestPath()).Debug("Saved manifest")
	return nil
}

func (m *RepoMap) prepare() error {
	if err := m.Load(); err != nil {
		return err
	}
	dir := m.WorkDirPath()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create work dir %s: %w", dir, err)
	}
	return nil
}

func (m *RepoMap) fanOut(ctx context.Context, op string, fn func(*Node, context.Context) error) error {
	nodes := m.Nodes()
	tasks := make([]parallel.Task, 0, len(nodes))
	for _, n := range nodes {
		tasks = append(tasks, parallel.Task{
			Name: n.RelPath(),
			Run:  func(ctx context.Context) error { return fn(n, ctx) },
		})
	}
	return m.tree.pool.Run(ctx, op, tasks...)
}
