package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/pkg/vcs"
)

// Init reconciles the whole tree from the manifests. Every app in apps gets
// its work dir created first, so it is reconciled along with the maps that
// pull by default. A failure of the workspace repository halts the tree.
func Init(ctx context.Context, tree *vcs.Tree, apps ...string) error {
	root, err := tree.Root()
	if err != nil {
		return err
	}

	var appMaps []*vcs.RepoMap
	for _, app := range apps {
		m := root.Child(AppLabel(app))
		if m == nil {
			return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown app: %s", app)).
				WithDetail("app", app)
		}
		appMaps = append(appMaps, m)
	}

	if err := root.ReconcileSelf(ctx); err != nil {
		return err
	}

	for _, m := range appMaps {
		dir := m.WorkDirPath()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create app dir %s: %w", dir, err)
		}
	}

	return root.ReconcileChildren(ctx)
}

// Clear removes every checkout below the workspace repository. Manifests
// and the workspace repository itself are kept.
func Clear(ctx context.Context, tree *vcs.Tree) error {
	root, err := tree.Root()
	if err != nil {
		return err
	}
	if !root.Exists() {
		return nil
	}
	return root.ClearChildren(ctx)
}

// Pull fast-forwards the workspace repository. With a version the root is
// switched to it first and the new version is written to the root descriptor.
func Pull(ctx context.Context, tree *vcs.Tree, version string) error {
	root, err := tree.Root()
	if err != nil {
		return err
	}

	if version != "" {
		if err := root.SwitchVersion(ctx, version); err != nil {
			return err
		}
	}
	if err := root.Pull(ctx, false); err != nil {
		return err
	}
	if version != "" {
		return tree.Top().Save()
	}
	return nil
}

// CurrentVersion reads the version the workspace repository has checked out
func CurrentVersion(ctx context.Context, tree *vcs.Tree) (string, error) {
	root, err := tree.Root()
	if err != nil {
		return "", err
	}
	if err := root.ReconcileFromDisk(ctx); err != nil {
		return "", err
	}
	return root.Version, nil
}

// SetVersion pulls the workspace repository, switches it to version, records
// the version in the root descriptor and reconciles the whole tree.
func SetVersion(ctx context.Context, tree *vcs.Tree, version string) error {
	root, err := tree.Root()
	if err != nil {
		return err
	}

	if err := root.Pull(ctx, false); err != nil {
		return err
	}
	if err := root.SwitchVersion(ctx, version); err != nil {
		return err
	}
	if err := tree.Top().Save(); err != nil {
		return err
	}
	return Init(ctx, tree)
}
