package errors

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *RasError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *RasError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ManifestNotFound reports a repository map whose manifest file is missing
func ManifestNotFound(path string) *RasError {
	return New(ErrCodeManifestNotFound, fmt.Sprintf("repository manifest not found: %s", path)).
		WithDetail("path", path)
}

// ManifestInvalid reports a manifest that cannot be parsed or fails validation
func ManifestInvalid(path string, err error) *RasError {
	return Wrap(err, ErrCodeManifestInvalid, fmt.Sprintf("invalid repository manifest: %s", path)).
		WithDetail("path", path)
}

// NoMatchingScheme reports a remote URL that matches none of the known templates
func NoMatchingScheme(url string) *RasError {
	return New(ErrCodeNoMatchingScheme, fmt.Sprintf("remote url matches no known scheme: %q", url)).
		WithDetail("url", url)
}

// CorruptRepository reports an on-disk path that is not a valid checkout of the declared remote
func CorruptRepository(path, url, reason string) *RasError {
	return New(ErrCodeCorruptRepository,
		fmt.Sprintf("%s is not a valid checkout of %s: %s", path, url, reason)).
		WithDetail("path", path).
		WithDetail("url", url)
}

// NotInitialized reports a repository that must exist on disk but does not
func NotInitialized(path string) *RasError {
	return New(ErrCodeNotInitialized, fmt.Sprintf("repository not initialized: %s", path)).
		WithDetail("path", path)
}

// Aggregate collects the failures of sibling operations into one error.
// It returns nil when errs holds no non-nil error.
func Aggregate(op string, errs []error) error {
	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return Wrap(stderrors.Join(failures...), ErrCodeAggregatedOperation,
		fmt.Sprintf("%s: %d operation(s) failed", op, len(failures))).
		WithDetail("failed", len(failures))
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error, output []byte) *RasError {
	rasErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		rasErr = rasErr.WithDetail("exitCode", exitErr.ExitCode())
	}
	if out := strings.TrimSpace(string(output)); out != "" {
		rasErr = rasErr.WithDetail("output", out)
	}

	return rasErr
}
