package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// remoteHost is the fake host every scenario remote lives under
const remoteHost = "example.com"

// findRasBinary finds the ras binary under test.
// It relies on the Makefile putting the local ./bin directory on PATH.
func findRasBinary() (string, error) {
	path, err := exec.LookPath("ras")
	if err != nil {
		return "", fmt.Errorf("could not find 'ras' binary in PATH. Ensure 'make test-e2e' is used")
	}
	return path, nil
}

// runGit runs git in dir with the sandboxed HOME
func runGit(ctx *harness.Context, dir string, args ...string) (string, error) {
	result := ctx.Command("git", args...).Dir(dir).Run()
	if result.ExitCode != 0 {
		return "", fmt.Errorf("git %s failed: %s", strings.Join(args, " "), result.Stderr)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// setupRemoteHost writes a sandboxed ~/.gitconfig that serves
// https://example.com/ and git@example.com: from a local directory, and
// records that directory as "remotes".
func setupRemoteHost(ctx *harness.Context) error {
	base := ctx.NewDir("remotes")
	gitconfig := fmt.Sprintf(`[user]
	name = RAS E2E
	email = e2e@example.com
[init]
	defaultBranch = main
[protocol "file"]
	allow = always
[url "%[1]s/"]
	insteadOf = https://%[2]s/
	insteadOf = git@%[2]s:
`, base, remoteHost)
	if err := fs.WriteString(filepath.Join(ctx.HomeDir(), ".gitconfig"), gitconfig); err != nil {
		return err
	}
	ctx.Set("remotes", base)
	return nil
}

// createRemote publishes org/repo with files committed on main and returns
// its https URL.
func createRemote(ctx *harness.Context, org, repo string, files map[string]string) (string, error) {
	base := ctx.GetString("remotes")
	orgDir := filepath.Join(base, org)
	if err := fs.CreateDir(orgDir); err != nil {
		return "", err
	}
	if _, err := runGit(ctx, orgDir, "init", "--bare", "--initial-branch=main", repo+".git"); err != nil {
		return "", err
	}
	if err := os.Symlink(repo+".git", filepath.Join(orgDir, repo)); err != nil {
		return "", err
	}

	work := ctx.NewDir("src-" + org + "-" + repo)
	if files == nil {
		files = map[string]string{}
	}
	if _, ok := files["README.md"]; !ok {
		files["README.md"] = "# " + repo + "\n"
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fs.WriteString(filepath.Join(work, name), files[name]); err != nil {
			return "", err
		}
	}

	steps := [][]string{
		{"init", "--initial-branch=main"},
		{"add", "."},
		{"commit", "-m", "initial commit"},
		{"remote", "add", "origin", filepath.Join(orgDir, repo+".git")},
		{"push", "origin", "main"},
	}
	for _, args := range steps {
		if _, err := runGit(ctx, work, args...); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("https://%s/%s/%s", remoteHost, org, repo), nil
}

// manifest renders a .repos file for path/url pairs, all at main
func manifest(pairs ...string) string {
	var b strings.Builder
	b.WriteString("repositories:\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "  %s:\n    type: git\n    url: %s\n    version: main\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

// setupWorkspace publishes a workspace repository declaring one dependency
// and one asset, writes ras.yml and root.repos into a new directory and
// records it as "workspace".
func setupWorkspace(ctx *harness.Context) error {
	if err := setupRemoteHost(ctx); err != nil {
		return err
	}
	depURL, err := createRemote(ctx, "ras", "dep_a", nil)
	if err != nil {
		return err
	}
	assetURL, err := createRemote(ctx, "ras", "asset_labs", nil)
	if err != nil {
		return err
	}
	wsURL, err := createRemote(ctx, "ras", "ras_docker", map[string]string{
		"repos/deps.repos":        manifest("dep_a", depURL),
		"repos/assets/labs.repos": manifest("asset_labs", assetURL),
	})
	if err != nil {
		return err
	}

	dir := ctx.NewDir("workspace")
	if err := fs.WriteString(filepath.Join(dir, "ras.yml"), "apps: []\nassets: [labs]\n"); err != nil {
		return err
	}
	if err := fs.WriteString(filepath.Join(dir, "root.repos"), manifest("ras_docker", wsURL)); err != nil {
		return err
	}
	ctx.Set("workspace", dir)
	return nil
}

// ras runs the binary under test inside the scenario workspace
func ras(ctx *harness.Context, args ...string) (stdout, stderr string, exitCode int, err error) {
	bin, err := findRasBinary()
	if err != nil {
		return "", "", 0, err
	}
	cmd := ctx.Command(bin, args...).Dir(ctx.GetString("workspace"))
	result := cmd.Run()
	ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
	return result.Stdout, result.Stderr, result.ExitCode, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
