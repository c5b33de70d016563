package git

import "context"

// Client defines the git operations the repository tree needs.
// Network operations run without the default command timeout and are
// bounded only by ctx.
type Client interface {
	// Clone checks out url at version into dest, including submodules
	Clone(ctx context.Context, url, version, dest string) error
	// Fetch updates the remote-tracking refs of origin
	Fetch(ctx context.Context, dir string) error
	// Pull fast-forwards each dir; detached checkouts are only fetched
	// and branches without an upstream are skipped
	Pull(ctx context.Context, dirs ...string) error
	// Checkout switches dir to version and syncs submodules
	Checkout(ctx context.Context, dir, version string, force bool) error
	// SetRemoteURL rewrites the origin URL
	SetRemoteURL(ctx context.Context, dir, url string) error
	// CreateBranch creates name at HEAD and checks it out
	CreateBranch(ctx context.Context, dir, name string) error
	// BranchExists reports whether name exists locally or on origin
	BranchExists(dir, name string) (bool, error)
	// Inspect reads the checkout state of dir
	Inspect(dir string) (*Checkout, error)
	// Status reads working tree and upstream status of dir
	Status(ctx context.Context, dir string) (*StatusInfo, error)
}
