package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ras/command"
	"github.com/grovetools/ras/errors"
)

// CLIClient implements Client by running the git binary
type CLIClient struct {
	cmdBuilder *command.SafeBuilder
	log        *logrus.Entry
}

// Ensure it implements the interface
var _ Client = (*CLIClient)(nil)

// Env is added to the environment of every git process. Parallel clones
// must fail instead of waiting on a credential prompt.
var Env = []string{"GIT_TERMINAL_PROMPT=0"}

// NewCLIClient creates a git client that logs the commands it runs to log.
// A nil log discards them.
func NewCLIClient(log *logrus.Entry) *CLIClient {
	builder := command.NewSafeBuilderWithExecutor(command.RealExecutor{Env: Env})
	return NewCLIClientWithBuilder(builder, log)
}

// NewCLIClientWithBuilder creates a git client on a custom SafeBuilder
func NewCLIClientWithBuilder(builder *command.SafeBuilder, log *logrus.Entry) *CLIClient {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &CLIClient{cmdBuilder: builder, log: log}
}

// Clone clones url into dest and checks out version with its submodules
func (c *CLIClient) Clone(ctx context.Context, url, version, dest string) error {
	if err := c.cmdBuilder.Validate("remoteURL", url); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote url")
	}
	if err := c.cmdBuilder.Validate("gitRef", version); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid version")
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}

	if _, err := c.run(ctx, parent, true, "clone", "--recurse-submodules", url, dest); err != nil {
		return err
	}
	return c.Checkout(ctx, dest, version, false)
}

// Fetch updates the remote-tracking refs and tags of origin
func (c *CLIClient) Fetch(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, true, "fetch", "--prune", "origin")
	return err
}

// Pull fast-forwards every dir in order and reports all failures together
func (c *CLIClient) Pull(ctx context.Context, dirs ...string) error {
	var errs []error
	for _, dir := range dirs {
		if err := c.pullOne(ctx, dir); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
	}
	return errors.Aggregate("pull", errs)
}

func (c *CLIClient) pullOne(ctx context.Context, dir string) error {
	co, err := Inspect(dir)
	if err != nil {
		return err
	}

	if co.Detached {
		// A tag or commit has nothing to fast-forward
		c.log.WithField("dir", dir).Debugf("HEAD detached at %s, fetching only", co.Version())
		return c.Fetch(ctx, dir)
	}

	if !c.hasUpstream(ctx, dir) {
		c.log.WithField("dir", dir).Debugf("branch %s has no upstream, skipping pull", co.Branch)
		return nil
	}

	if _, err := c.run(ctx, dir, true, "pull", "--ff-only"); err != nil {
		return err
	}
	return c.syncSubmodules(ctx, dir)
}

// Checkout switches dir to version. force discards local modifications.
func (c *CLIClient) Checkout(ctx context.Context, dir, version string, force bool) error {
	if err := c.cmdBuilder.Validate("gitRef", version); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid version")
	}

	args := []string{"checkout"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, version)
	if _, err := c.run(ctx, dir, false, args...); err != nil {
		return err
	}
	return c.syncSubmodules(ctx, dir)
}

// SetRemoteURL points origin at url
func (c *CLIClient) SetRemoteURL(ctx context.Context, dir, url string) error {
	if err := c.cmdBuilder.Validate("remoteURL", url); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote url")
	}
	_, err := c.run(ctx, dir, false, "remote", "set-url", "origin", url)
	return err
}

// CreateBranch creates name at HEAD and checks it out
func (c *CLIClient) CreateBranch(ctx context.Context, dir, name string) error {
	if err := c.cmdBuilder.Validate("gitRef", name); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch name")
	}
	_, err := c.run(ctx, dir, false, "checkout", "-b", name)
	return err
}

// BranchExists reports whether name exists locally or on origin
func (c *CLIClient) BranchExists(dir, name string) (bool, error) {
	return BranchExists(dir, name)
}

// Inspect reads the checkout state of dir
func (c *CLIClient) Inspect(dir string) (*Checkout, error) {
	return Inspect(dir)
}

// Status reads working tree and upstream status of dir
func (c *CLIClient) Status(ctx context.Context, dir string) (*StatusInfo, error) {
	return GetStatus(ctx, dir)
}

func (c *CLIClient) hasUpstream(ctx context.Context, dir string) bool {
	_, err := c.run(ctx, dir, false, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	return err == nil
}

func (c *CLIClient) syncSubmodules(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".gitmodules")); err != nil {
		return nil
	}
	_, err := c.run(ctx, dir, true, "submodule", "update", "--init", "--recursive")
	return err
}

// run executes git in dir. Network commands are bounded by ctx only.
func (c *CLIClient) run(ctx context.Context, dir string, network bool, args ...string) ([]byte, error) {
	cmd, err := c.cmdBuilder.Build(ctx, "git", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}
	if network {
		cmd.WithoutTimeout(ctx)
	}
	cmd.InDir(dir)

	c.log.WithField("dir", dir).Debugf("running %s", cmd)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return output, errors.Wrap(err, errors.ErrCodeCommandNotFound, "git executable not found")
		}
		return output, errors.CommandFailed(cmd.String(), err, output)
	}
	return output, nil
}
