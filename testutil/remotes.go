package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// RemoteHost is the hostname every fake remote is served under
const RemoteHost = "example.com"

// Remotes serves bare repositories from a temp directory under fake
// https://example.com/ and git@example.com: URLs. Git is pointed at the
// directory through url.<base>.insteadOf entries set in the environment,
// so the URLs stored in clones keep their public form.
type Remotes struct {
	Base string
	work string
}

// NewRemotes creates an empty remote host and isolates git configuration
// for the rest of the test. It must not be used from parallel tests.
func NewRemotes(t *testing.T) *Remotes {
	t.Helper()

	base := t.TempDir()
	home := t.TempDir()
	globalCfg := filepath.Join(home, ".gitconfig")
	require.NoError(t, os.WriteFile(globalCfg, nil, 0600))

	t.Setenv("GIT_CONFIG_GLOBAL", globalCfg)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_TERMINAL_PROMPT", "0")

	entries := [][2]string{
		{"url." + base + "/.insteadOf", "https://" + RemoteHost + "/"},
		{"url." + base + "/.insteadOf", "git@" + RemoteHost + ":"},
		{"init.defaultBranch", "main"},
		{"user.name", "Test User"},
		{"user.email", "test@example.com"},
		{"protocol.file.allow", "always"},
		{"advice.detachedHead", "false"},
	}
	t.Setenv("GIT_CONFIG_COUNT", strconv.Itoa(len(entries)))
	for i, e := range entries {
		t.Setenv(fmt.Sprintf("GIT_CONFIG_KEY_%d", i), e[0])
		t.Setenv(fmt.Sprintf("GIT_CONFIG_VALUE_%d", i), e[1])
	}

	return &Remotes{Base: base, work: t.TempDir()}
}

// HTTPS returns the https URL of org/repo
func (r *Remotes) HTTPS(org, repo string) string {
	return fmt.Sprintf("https://%s/%s/%s", RemoteHost, org, repo)
}

// SSH returns the ssh URL of org/repo
func (r *Remotes) SSH(org, repo string) string {
	return fmt.Sprintf("git@%s:%s/%s.git", RemoteHost, org, repo)
}

// Create makes a bare repository with a commit on main and one commit on each
// extra branch, and returns its https URL.
func (r *Remotes) Create(t *testing.T, org, repo string, branches ...string) string {
	t.Helper()

	orgDir := filepath.Join(r.Base, org)
	require.NoError(t, os.MkdirAll(orgDir, 0755))
	bare := filepath.Join(orgDir, repo+".git")
	RunGitCommand(t, orgDir, "init", "--bare", "--initial-branch=main", bare)
	// https URLs carry no .git suffix
	require.NoError(t, os.Symlink(repo+".git", filepath.Join(orgDir, repo)))

	work := r.workDir(org, repo)
	require.NoError(t, os.MkdirAll(work, 0755))
	RunGitCommand(t, work, "init", "--initial-branch=main")
	CreateCommit(t, work, "README.md", "# "+repo+"\n")
	RunGitCommand(t, work, "remote", "add", "origin", bare)
	RunGitCommand(t, work, "push", "origin", "main")

	for _, branch := range branches {
		RunGitCommand(t, work, "checkout", "-b", branch)
		CreateCommit(t, work, branch+".txt", branch+"\n")
		RunGitCommand(t, work, "push", "origin", branch)
		RunGitCommand(t, work, "checkout", "main")
	}

	return r.HTTPS(org, repo)
}

// Push adds a commit to branch of org/repo on the remote
func (r *Remotes) Push(t *testing.T, org, repo, branch, filename, content string) {
	t.Helper()

	work := r.workDir(org, repo)
	RunGitCommand(t, work, "checkout", branch)
	CreateCommit(t, work, filename, content)
	RunGitCommand(t, work, "push", "origin", branch)
	RunGitCommand(t, work, "checkout", "main")
}

// Tag creates an annotated tag at the tip of main of org/repo and pushes it
func (r *Remotes) Tag(t *testing.T, org, repo, tag string) {
	t.Helper()

	work := r.workDir(org, repo)
	RunGitCommand(t, work, "tag", "-a", tag, "-m", tag, "main")
	RunGitCommand(t, work, "push", "origin", tag)
}

// Head returns the commit hash at the tip of branch of org/repo
func (r *Remotes) Head(t *testing.T, org, repo, branch string) string {
	t.Helper()
	return GitOutput(t, r.workDir(org, repo), "rev-parse", branch)
}

func (r *Remotes) workDir(org, repo string) string {
	return filepath.Join(r.work, org, repo)
}
