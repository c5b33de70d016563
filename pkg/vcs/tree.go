package vcs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/logging"
	"github.com/grovetools/ras/pkg/parallel"
	"github.com/grovetools/ras/pkg/remote"
)

// NodeID addresses a Node in its Tree
type NodeID int

// MapID addresses a RepoMap in its Tree
type MapID int

const (
	// NoNode is the owner of the top map
	NoNode NodeID = -1
	// NoMap marks an unset map handle
	NoMap MapID = -1
)

// MapSpec describes a repository map to attach to every node of a parent map.
// Manifest and WorkDir are relative to the owning node's checkout.
type MapSpec struct {
	Label       string
	Manifest    string
	WorkDir     string
	DefaultPull bool
	// Children are attached to every node loaded from this map
	Children []MapSpec
}

// Options configures a Tree
type Options struct {
	Git    git.Client
	Pool   *parallel.Pool
	Scheme remote.Scheme
	Logger *logrus.Entry
}

// Tree is an arena of repository nodes and maps. Nodes and maps refer to
// each other by handle; the top map has an absolute work dir and every
// other path is resolved by walking owners up to it.
type Tree struct {
	mu     sync.RWMutex
	nodes  []*Node
	maps   []*RepoMap
	top    MapID
	scheme remote.Scheme

	git  git.Client
	pool *parallel.Pool
	log  *logrus.Entry
}

// NewTree creates an empty tree
func NewTree(opts Options) *Tree {
	t := &Tree{
		top:    NoMap,
		scheme: opts.Scheme,
		git:    opts.Git,
		pool:   opts.Pool,
		log:    opts.Logger,
	}
	if t.log == nil {
		t.log = logging.NewLogger("vcs")
	}
	if t.git == nil {
		t.git = git.NewCLIClient(t.log)
	}
	if t.pool == nil {
		t.pool = parallel.NewPool(0)
	}
	if !t.scheme.Valid() {
		t.scheme = remote.SchemeHTTPS
	}
	return t
}

// SetTop creates the top map from an absolute manifest path and work dir.
// specs are attached to every node of the top map.
func (t *Tree) SetTop(label, manifest, workDir string, specs ...MapSpec) (*RepoMap, error) {
	if !filepath.IsAbs(manifest) || !filepath.IsAbs(workDir) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("top map paths must be absolute: %s, %s", manifest, workDir))
	}

	m := t.newMap(NoNode, MapSpec{Label: label, Manifest: manifest, WorkDir: workDir, DefaultPull: true, Children: specs})
	t.mu.Lock()
	t.top = m.id
	t.mu.Unlock()
	return m, nil
}

// Top returns the top map, nil before SetTop
func (t *Tree) Top() *RepoMap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.top == NoMap {
		return nil
	}
	return t.maps[t.top]
}

// Root loads the top map and returns its single node, the workspace repository
func (t *Tree) Root() (*Node, error) {
	top := t.Top()
	if top == nil {
		return nil, errors.New(errors.ErrCodeNotInitialized, "tree has no root descriptor")
	}
	if err := top.Load(); err != nil {
		return nil, err
	}
	members := top.Nodes()
	if len(members) != 1 {
		return nil, errors.ManifestInvalid(top.ManifestPath(),
			fmt.Errorf("root descriptor must declare exactly one repository, found %d", len(members)))
	}
	return members[0], nil
}

// Node returns the node with handle id
func (t *Tree) Node(id NodeID) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[id]
}

// Map returns the map with handle id
func (t *Tree) Map(id MapID) *RepoMap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maps[id]
}

// Scheme returns the preferred remote scheme
func (t *Tree) Scheme() remote.Scheme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scheme
}

// SetScheme changes the preferred scheme without touching disk
func (t *Tree) SetScheme(s remote.Scheme) {
	t.mu.Lock()
	t.scheme = s
	t.mu.Unlock()
}

// Pool returns the worker pool used for fan-out
func (t *Tree) Pool() *parallel.Pool {
	return t.pool
}

// Git returns the git client the tree runs with
func (t *Tree) Git() git.Client {
	return t.git
}

// DetectScheme returns the scheme of the root repository's live origin, or of
// its descriptor URL when it is not checked out. ok is false when neither parses.
func (t *Tree) DetectScheme() (s remote.Scheme, ok bool) {
	root, err := t.Root()
	if err != nil {
		return "", false
	}
	if co, err := t.git.Inspect(root.AbsPath()); err == nil && co.RemoteURL != "" {
		if s, err := remote.SchemeOf(co.RemoteURL); err == nil {
			return s, true
		}
	}
	if s, err := remote.SchemeOf(root.URL); err == nil {
		return s, true
	}
	return "", false
}

// SetURLMode makes s the preferred scheme and rewrites the live origin and
// manifest entry of every valid checkout on disk. Repositories that are
// absent or invalid are left alone. Every touched manifest is saved.
func (t *Tree) SetURLMode(ctx context.Context, s remote.Scheme) error {
	if !s.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown url mode: %q", s))
	}
	t.SetScheme(s)

	touched := make(map[MapID]bool)
	var errs []error
	for n, err := range t.Walk(FromDisk) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := n.Verify(); err != nil {
			t.log.WithField("path", n.RelPath()).Warnf("skipping url rewrite: %v", err)
			continue
		}

		url, err := remote.Reform(n.URL, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.RelPath(), err))
			continue
		}
		if err := t.git.SetRemoteURL(ctx, n.AbsPath(), url); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.RelPath(), err))
			continue
		}
		if url != n.URL {
			n.URL = url
			touched[n.owner] = true
		}
	}

	ids := make([]int, 0, len(touched))
	for id := range touched {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		if err := t.Map(MapID(id)).Save(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Aggregate("url-mode", errs)
}

// ReconcileFromDisk refreshes URL and Version of every checked out node from disk
func (t *Tree) ReconcileFromDisk(ctx context.Context) error {
	var errs []error
	for n, err := range t.Walk(FromDisk) {
		if err == nil {
			err = n.ReconcileFromDisk(ctx)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Aggregate("read from disk", errs)
}

func (t *Tree) newMap(owner NodeID, spec MapSpec) *RepoMap {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := &RepoMap{
		tree:        t,
		id:          MapID(len(t.maps)),
		owner:       owner,
		Label:       spec.Label,
		Manifest:    spec.Manifest,
		WorkDir:     spec.WorkDir,
		DefaultPull: spec.DefaultPull,
		specs:       spec.Children,
	}
	t.maps = append(t.maps, m)
	if owner != NoNode {
		t.nodes[owner].children[spec.Label] = m.id
	}
	return m
}

func (t *Tree) newNode(owner MapID, path string, e Entry) *Node {
	t.mu.Lock()
	n := &Node{
		tree:     t,
		id:       NodeID(len(t.nodes)),
		owner:    owner,
		Path:     path,
		children: make(map[string]MapID),
	}
	n.FromEntry(e)
	t.nodes = append(t.nodes, n)
	t.mu.Unlock()
	return n
}
