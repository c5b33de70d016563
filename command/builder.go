package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default timeout for local, non-network commands
	DefaultTimeout = 2 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

var (
	gitRefRegex    = regexp.MustCompile(`^[a-zA-Z0-9/_.-]+$`)
	repoLabelRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"repoLabel": validateRepoLabel,
		"fileName":  validateFileName,
		"gitRef":    validateGitRef,
		"remoteURL": validateRemoteURL,
	}
}

// validateRepoLabel ensures app and asset names are safe to use in paths
func validateRepoLabel(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !repoLabelRegex.MatchString(name) {
		return fmt.Errorf("invalid name: %s (must contain only lowercase letters, digits, underscores, and hyphens)", name)
	}
	return nil
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Prevent command injection via shell metacharacters
	if strings.ContainsAny(path, ";|&$`") {
		return fmt.Errorf("file path contains invalid characters")
	}

	return nil
}

// validateGitRef ensures git references are safe
func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git ref cannot be empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("git ref cannot start with '-': %s", ref)
	}
	if !gitRefRegex.MatchString(ref) {
		return fmt.Errorf("invalid git ref: %s", ref)
	}
	return nil
}

// validateRemoteURL rejects values git would interpret as options or that carry whitespace
func validateRemoteURL(url string) error {
	if url == "" {
		return fmt.Errorf("remote url cannot be empty")
	}
	if strings.HasPrefix(url, "-") {
		return fmt.Errorf("remote url cannot start with '-': %s", url)
	}
	if strings.ContainsAny(url, " \t\n;|&$`") {
		return fmt.Errorf("remote url contains invalid characters: %q", url)
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	dir      string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation.
// The builder's default timeout applies; use WithoutTimeout for network operations.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	c := &Command{
		ctx:      ctx,
		name:     name,
		args:     args,
		executor: sb.executor,
	}
	return c.WithTimeout(ctx, sb.defaultTimeout), nil
}

// WithTimeout sets a custom timeout for the command, derived from parent
func (c *Command) WithTimeout(parent context.Context, timeout time.Duration) *Command {
	if c.cancel != nil {
		c.cancel()
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	c.ctx, c.cancel = context.WithTimeout(parent, timeout)
	c.timeout = timeout
	return c
}

// WithoutTimeout removes any timeout; the command runs until it exits or parent is done
func (c *Command) WithoutTimeout(parent context.Context) *Command {
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(parent)
	c.timeout = 0
	return c
}

// InDir sets the working directory of the command
func (c *Command) InDir(dir string) *Command {
	c.dir = dir
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// String renders the command line for messages and logs
func (c *Command) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Exec creates and returns an exec.Cmd. The caller owns the returned command and
// must call Release once it has finished running.
func (c *Command) Exec() *exec.Cmd {
	cmd := c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
	cmd.Dir = c.dir
	return cmd
}

// Release frees the context resources held by the command
func (c *Command) Release() {
	if c.cancel != nil {
		c.cancel()
	}
}

// CombinedOutput runs the command and returns stdout and stderr together
func (c *Command) CombinedOutput() ([]byte, error) {
	defer c.Release()
	return c.Exec().CombinedOutput()
}

// Output runs the command and returns its stdout
func (c *Command) Output() ([]byte, error) {
	defer c.Release()
	return c.Exec().Output()
}
