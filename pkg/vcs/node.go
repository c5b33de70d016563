package vcs

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/pkg/parallel"
	"github.com/grovetools/ras/pkg/remote"
)

// Node is a single versioned git checkout and the repository maps nested in it
type Node struct {
	tree  *Tree
	id    NodeID
	owner MapID

	// Path is relative to the owning map's work dir
	Path    string
	URL     string
	Version string
	Kind    string

	children map[string]MapID
}

// ID returns the node's handle
func (n *Node) ID() NodeID { return n.id }

// Owner returns the map the node was loaded from
func (n *Node) Owner() *RepoMap { return n.tree.Map(n.owner) }

// Parent returns the node owning this node's map, nil for the root
func (n *Node) Parent() *Node {
	owner := n.Owner()
	if owner.owner == NoNode {
		return nil
	}
	return n.tree.Node(owner.owner)
}

// AbsPath resolves the checkout location through the owning maps
func (n *Node) AbsPath() string {
	return filepath.Join(n.Owner().WorkDirPath(), n.Path)
}

// RelPath returns the checkout location relative to the top map's work dir
func (n *Node) RelPath() string {
	abs := n.AbsPath()
	top := n.tree.Top()
	if top == nil {
		return abs
	}
	rel, err := filepath.Rel(top.WorkDir, abs)
	if err != nil {
		return abs
	}
	return rel
}

// Children returns the node's maps ordered by label
func (n *Node) Children() []*RepoMap {
	n.tree.mu.RLock()
	labels := make([]string, 0, len(n.children))
	for label := range n.children {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	maps := make([]*RepoMap, 0, len(labels))
	for _, label := range labels {
		maps = append(maps, n.tree.maps[n.children[label]])
	}
	n.tree.mu.RUnlock()
	return maps
}

// Child returns the map attached under label, nil if there is none
func (n *Node) Child(label string) *RepoMap {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	id, ok := n.children[label]
	if !ok {
		return nil
	}
	return n.tree.maps[id]
}

// Exists reports whether anything is present at the checkout location
func (n *Node) Exists() bool {
	_, err := os.Lstat(n.AbsPath())
	return err == nil
}

// Entry returns the manifest form of the node
func (n *Node) Entry() Entry {
	return Entry{Type: n.Kind, URL: n.URL, Version: n.Version}
}

// FromEntry sets URL, Version and Kind from a manifest entry
func (n *Node) FromEntry(e Entry) {
	n.URL = e.URL
	n.Version = e.Version
	n.Kind = e.Type
	if n.Kind == "" {
		n.Kind = KindGit
	}
}

// Validate reports whether the checkout exists and its origin is the same
// remote as URL. The checked out version is not considered.
func (n *Node) Validate() bool {
	return n.Verify() == nil
}

// Verify is Validate with the reason: NOT_INITIALIZED when nothing is on
// disk, CORRUPT_REPOSITORY for anything else that does not match.
func (n *Node) Verify() error {
	_, err := n.inspect()
	return err
}

func (n *Node) inspect() (*git.Checkout, error) {
	path := n.AbsPath()
	co, err := n.tree.git.Inspect(path)
	if err != nil {
		if stderrors.Is(err, git.ErrNotRepository) {
			if _, statErr := os.Lstat(path); stderrors.Is(statErr, fs.ErrNotExist) {
				return nil, errors.NotInitialized(path)
			}
			return nil, errors.CorruptRepository(path, n.URL, "not a git repository")
		}
		return nil, errors.CorruptRepository(path, n.URL, err.Error())
	}
	if co.RemoteURL == "" {
		return nil, errors.CorruptRepository(path, n.URL, "no origin remote")
	}
	if !remote.SameRemoteURL(co.RemoteURL, n.URL) {
		return nil, errors.CorruptRepository(path, n.URL, fmt.Sprintf("origin is %s", co.RemoteURL))
	}
	return co, nil
}

// Import clones URL in the preferred scheme at Version, with submodules.
// Anything already at the checkout location is an error.
func (n *Node) Import(ctx context.Context) error {
	path := n.AbsPath()
	if n.Exists() {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("cannot import into existing path %s", path)).
			WithDetail("path", path)
	}

	url, err := n.reformedURL()
	if err != nil {
		return err
	}

	n.logger().Infof("Importing %s at %s", url, n.Version)
	if err := n.tree.git.Clone(ctx, url, n.Version, path); err != nil {
		return err
	}
	return nil
}

// Pull fast-forwards the checkout. With switchVersion the declared version is
// force checked out first. It never creates a checkout.
func (n *Node) Pull(ctx context.Context, switchVersion bool) error {
	if err := n.Verify(); err != nil {
		return err
	}
	path := n.AbsPath()
	if switchVersion {
		if err := n.tree.git.Checkout(ctx, path, n.Version, true); err != nil {
			return err
		}
	}
	n.logger().Debug("Pulling")
	return n.tree.git.Pull(ctx, path)
}

// ReconcileFromManifest brings the checkout to URL and Version, then
// reconciles every child map that pulls by default or already has a work dir.
func (n *Node) ReconcileFromManifest(ctx context.Context) error {
	if err := n.ReconcileSelf(ctx); err != nil {
		return err
	}
	return n.ReconcileChildren(ctx)
}

// ReconcileSelf is ReconcileFromManifest without descending into child maps.
// An absent checkout is imported; a checkout of another remote or a
// non-repository is CORRUPT_REPOSITORY and is never touched.
func (n *Node) ReconcileSelf(ctx context.Context) error {
	co, err := n.inspect()
	if errors.Is(err, errors.ErrCodeNotInitialized) {
		return n.Import(ctx)
	}
	if err != nil {
		return err
	}

	path := n.AbsPath()
	url, err := n.reformedURL()
	if err != nil {
		return err
	}
	if co.RemoteURL != url {
		n.logger().Debugf("Setting origin to %s", url)
		if err := n.tree.git.SetRemoteURL(ctx, path, url); err != nil {
			return err
		}
	}

	if err := n.tree.git.Fetch(ctx, path); err != nil {
		return err
	}
	if co.Version() != n.Version {
		n.logger().Infof("Checking out %s (was %s)", n.Version, co.Version())
	}
	if err := n.tree.git.Checkout(ctx, path, n.Version, false); err != nil {
		return err
	}
	return n.tree.git.Pull(ctx, path)
}

// ReconcileChildren fans out over child maps with DefaultPull set or whose
// work dir already exists. The node itself must be a valid checkout.
func (n *Node) ReconcileChildren(ctx context.Context) error {
	if err := n.Verify(); err != nil {
		return err
	}

	var tasks []parallel.Task
	for _, m := range n.Children() {
		if !m.DefaultPull && !m.WorkDirExists() {
			n.logger().Debugf("Skipping %s: not pulled by default and not present", m.Label)
			continue
		}
		tasks = append(tasks, parallel.Task{Name: m.Label, Run: m.InitVCS})
	}
	return n.tree.pool.Run(ctx, "reconcile "+n.RelPath(), tasks...)
}

// ReconcileFromDisk overwrites URL and Version with what is checked out.
// Disk is never modified.
func (n *Node) ReconcileFromDisk(ctx context.Context) error {
	co, err := n.inspect()
	if err != nil {
		return err
	}
	n.URL = co.RemoteURL
	n.Version = co.Version()
	return nil
}

// Clear removes child checkouts, then the node's own checkout.
// Clearing an absent checkout is a no-op.
func (n *Node) Clear(ctx context.Context) error {
	if !n.Exists() {
		return nil
	}
	if err := n.ClearChildren(ctx); err != nil {
		return err
	}

	path := n.AbsPath()
	n.logger().Info("Removing checkout")
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// ClearChildren clears every child map whose manifest is on disk
func (n *Node) ClearChildren(ctx context.Context) error {
	var tasks []parallel.Task
	for _, m := range n.Children() {
		if !m.ManifestExists() {
			continue
		}
		tasks = append(tasks, parallel.Task{Name: m.Label, Run: m.ClearVCS})
	}
	return n.tree.pool.Run(ctx, "clear "+n.RelPath(), tasks...)
}

// SwitchVersion checks out v when a local or origin branch of that name
// exists, otherwise creates branch v at HEAD.
func (n *Node) SwitchVersion(ctx context.Context, v string) error {
	if err := n.Verify(); err != nil {
		return err
	}

	path := n.AbsPath()
	exists, err := n.tree.git.BranchExists(path, v)
	if err != nil {
		return err
	}
	if exists {
		n.logger().Infof("Switching to %s", v)
		err = n.tree.git.Checkout(ctx, path, v, false)
	} else {
		n.logger().Infof("Creating branch %s", v)
		err = n.tree.git.CreateBranch(ctx, path, v)
	}
	if err != nil {
		return err
	}
	n.Version = v
	return nil
}

func (n *Node) reformedURL() (string, error) {
	return remote.Reform(n.URL, n.tree.Scheme())
}

func (n *Node) logger() *logrus.Entry {
	return n.tree.log.WithField("path", n.RelPath())
}
