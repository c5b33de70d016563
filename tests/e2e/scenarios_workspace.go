package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// statusEntry is the subset of `ras vcs status --json` the scenarios check
type statusEntry struct {
	Path            string `json:"path"`
	DeclaredVersion string `json:"declared_version"`
	CurrentVersion  string `json:"current_version"`
	Present         bool   `json:"present"`
	Valid           bool   `json:"valid"`
}

// WorkspaceLifecycleScenario initializes, inspects and clears a workspace.
func WorkspaceLifecycleScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "ras-workspace-lifecycle",
		Description: "Checks out a workspace from its root descriptor, reports its status and clears it.",
		Tags:        []string{"ras", "vcs"},
		Steps: []harness.Step{
			harness.NewStep("Publish workspace remotes", setupWorkspace),
			harness.NewStep("Run 'ras init'", func(ctx *harness.Context) error {
				_, _, code, err := ras(ctx, "init")
				if err != nil {
					return err
				}
				if err := assert.Equal(0, code, "ras init should succeed"); err != nil {
					return err
				}
				ws := ctx.GetString("workspace")
				for _, dir := range []string{
					filepath.Join(ws, "ras_docker", ".git"),
					filepath.Join(ws, "ras_docker", "ros2_pkgs", "dep_a", ".git"),
					filepath.Join(ws, "ras_docker", "assets", "labs", "asset_labs", ".git"),
				} {
					if !exists(dir) {
						return fmt.Errorf("expected checkout at %s", dir)
					}
				}
				return nil
			}),
			harness.NewStep("Report status as JSON", func(ctx *harness.Context) error {
				stdout, _, code, err := ras(ctx, "vcs", "status", "--json")
				if err != nil {
					return err
				}
				if err := assert.Equal(0, code, "ras vcs status should succeed"); err != nil {
					return err
				}
				var entries []statusEntry
				if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
					return fmt.Errorf("failed to parse status output: %w", err)
				}
				if err := assert.Equal(3, len(entries), "three repositories are declared"); err != nil {
					return err
				}
				for _, e := range entries {
					if !e.Valid || e.CurrentVersion != e.DeclaredVersion {
						return fmt.Errorf("%s is not at its declared version: %+v", e.Path, e)
					}
				}
				return nil
			}),
			harness.NewStep("Run 'ras clear'", func(ctx *harness.Context) error {
				_, _, code, err := ras(ctx, "clear")
				if err != nil {
					return err
				}
				if err := assert.Equal(0, code, "ras clear should succeed"); err != nil {
					return err
				}
				ws := ctx.GetString("workspace")
				if exists(filepath.Join(ws, "ras_docker", "ros2_pkgs", "dep_a")) {
					return fmt.Errorf("dependency checkout should be removed")
				}
				if !exists(filepath.Join(ws, "ras_docker", "repos", "deps.repos")) {
					return fmt.Errorf("manifests must survive a clear")
				}
				return nil
			}),
		},
	}
}

// URLModeScenario switches a checked out workspace from https to ssh remotes.
func URLModeScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "ras-url-mode",
		Description: "Rewrites live remotes and manifests when the URL scheme changes.",
		Tags:        []string{"ras", "vcs", "url-mode"},
		Steps: []harness.Step{
			harness.NewStep("Publish workspace remotes", setupWorkspace),
			harness.NewStep("Initialize and switch to ssh", func(ctx *harness.Context) error {
				if _, _, code, err := ras(ctx, "init"); err != nil || code != 0 {
					return fmt.Errorf("ras init failed (exit %d): %v", code, err)
				}
				stdout, _, _, err := ras(ctx, "vcs", "url-mode")
				if err != nil {
					return err
				}
				if err := assert.Contains(stdout, "https", "workspace starts on https"); err != nil {
					return err
				}
				_, _, code, err := ras(ctx, "vcs", "url-mode", "ssh")
				if err != nil {
					return err
				}
				return assert.Equal(0, code, "ras vcs url-mode ssh should succeed")
			}),
			harness.NewStep("Verify remotes and manifests", func(ctx *harness.Context) error {
				ws := ctx.GetString("workspace")
				origin, err := runGit(ctx, filepath.Join(ws, "ras_docker", "ros2_pkgs", "dep_a"), "remote", "get-url", "origin")
				if err != nil {
					return err
				}
				if err := assert.Equal("git@"+remoteHost+":ras/dep_a.git", origin, "origin should use ssh"); err != nil {
					return err
				}
				deps, err := fs.ReadString(filepath.Join(ws, "ras_docker", "repos", "deps.repos"))
				if err != nil {
					return err
				}
				if err := assert.Contains(deps, "git@"+remoteHost+":ras/dep_a.git", "manifest should use ssh"); err != nil {
					return err
				}
				stdout, _, _, err := ras(ctx, "vcs", "url-mode")
				if err != nil {
					return err
				}
				return assert.Contains(stdout, "ssh", "scheme follows the workspace repository")
			}),
		},
	}
}

// CorruptRepositoryScenario leaves a foreign directory where a dependency
// belongs and expects init to refuse it.
func CorruptRepositoryScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "ras-corrupt-repository",
		Description: "Never overwrites a directory that is not a checkout of the declared remote.",
		Tags:        []string{"ras", "vcs", "errors"},
		Steps: []harness.Step{
			harness.NewStep("Publish workspace remotes", setupWorkspace),
			harness.NewStep("Initialize over a foreign directory", func(ctx *harness.Context) error {
				if _, _, code, err := ras(ctx, "init"); err != nil || code != 0 {
					return fmt.Errorf("ras init failed (exit %d): %v", code, err)
				}
				ws := ctx.GetString("workspace")
				depDir := filepath.Join(ws, "ras_docker", "ros2_pkgs", "dep_a")
				if _, _, code, err := ras(ctx, "clear"); err != nil || code != 0 {
					return fmt.Errorf("ras clear failed (exit %d): %v", code, err)
				}
				if err := fs.WriteString(filepath.Join(depDir, "notes.txt"), "local work\n"); err != nil {
					return err
				}

				_, stderr, code, err := ras(ctx, "init")
				if err != nil {
					return err
				}
				if err := assert.Equal(1, code, "ras init should fail"); err != nil {
					return err
				}
				if err := assert.Contains(stderr, "is not a checkout of", "the corrupt path should be reported"); err != nil {
					return err
				}
				if !exists(filepath.Join(depDir, "notes.txt")) {
					return fmt.Errorf("foreign directory content must be kept")
				}
				return nil
			}),
		},
	}
}
