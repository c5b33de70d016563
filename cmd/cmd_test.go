package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/pkg/vcs"
	"github.com/grovetools/ras/testutil"
)

// setupWorkspace creates a workspace repository declaring one dependency
// and one asset, and returns the path of its ras.yml.
func setupWorkspace(t *testing.T) (*testutil.Remotes, string) {
	t.Helper()
	r := testutil.NewRemotes(t)

	depURL := r.Create(t, "ras", "dep_a")
	assetURL := r.Create(t, "ras", "asset_labs")
	wsURL := r.Create(t, "ras", "ws")
	r.Push(t, "ras", "ws", "main", "repos/deps.repos",
		testutil.Manifest(t, testutil.Repo{Path: "dep_a", URL: depURL, Version: "main"}))
	r.Push(t, "ras", "ws", "main", "repos/assets/labs.repos",
		testutil.Manifest(t, testutil.Repo{Path: "asset_labs", URL: assetURL, Version: "main"}))

	dir := t.TempDir()
	testutil.WriteManifest(t, filepath.Join(dir, "root.repos"), testutil.Repo{Path: "ws", URL: wsURL, Version: "main"})
	cfgPath := filepath.Join(dir, "ras.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("apps: []\nassets: [labs]\nparallelism: 2\n"), 0644))
	return r, cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigCmd(t *testing.T) {
	_, cfgPath := setupWorkspace(t)

	out, err := run(t, "config", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+cfgPath)
	assert.Contains(t, out, "root_manifest: root.repos")
	assert.Contains(t, out, "- labs")
}

func TestConfigCmd_NotFound(t *testing.T) {
	_, err := run(t, "config", "--config", filepath.Join(t.TempDir(), "ras.yml"))
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestInitAndStatus(t *testing.T) {
	_, cfgPath := setupWorkspace(t)
	wsDir := filepath.Dir(cfgPath)

	_, err := run(t, "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(wsDir, "ws", "ros2_pkgs", "dep_a", ".git"))
	assert.DirExists(t, filepath.Join(wsDir, "ws", "assets", "labs", "asset_labs", ".git"))

	out, err := run(t, "vcs", "status", "--json", "--config", cfgPath)
	require.NoError(t, err)

	var statuses []vcs.RepoStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 3)
	paths := make([]string, 0, len(statuses))
	for _, s := range statuses {
		paths = append(paths, s.Path)
		assert.True(t, s.Valid, s.Path)
		assert.True(t, s.OnVersion(), s.Path)
	}
	assert.Equal(t, []string{
		"ws",
		filepath.Join("ws", "assets", "labs", "asset_labs"),
		filepath.Join("ws", "ros2_pkgs", "dep_a"),
	}, paths)

	out, err = run(t, "vcs", "status", "--config", cfgPath, "--match", "ws/ros2_pkgs")
	require.NoError(t, err)
	assert.Contains(t, out, "dep_a")
	assert.NotContains(t, out, "asset_labs")
	assert.Contains(t, out, stateOK)

	_, err = run(t, "clear", "--config", cfgPath)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(wsDir, "ws", "ros2_pkgs", "dep_a"))
}

func TestInitApp(t *testing.T) {
	r := testutil.NewRemotes(t)
	depURL := r.Create(t, "ras", "dep_a")
	appURL := r.Create(t, "ras", "ras_robot_app")
	r.Push(t, "ras", "ras_robot_app", "main", "repos/deps.repos",
		testutil.Manifest(t, testutil.Repo{Path: "dep_a", URL: depURL, Version: "main"}))
	wsURL := r.Create(t, "ras", "ws")
	r.Push(t, "ras", "ws", "main", "repos/deps.repos",
		testutil.Manifest(t, testutil.Repo{Path: "dep_a", URL: depURL, Version: "main"}))
	r.Push(t, "ras", "ws", "main", "repos/apps/robot.repos",
		testutil.Manifest(t, testutil.Repo{Path: "ras_robot_app", URL: appURL, Version: "main"}))

	dir := t.TempDir()
	testutil.WriteManifest(t, filepath.Join(dir, "root.repos"), testutil.Repo{Path: "ws", URL: wsURL, Version: "main"})
	cfgPath := filepath.Join(dir, "ras.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("apps: [robot]\nassets: []\n"), 0644))

	root := NewRootCmd()
	var errOut bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&errOut)
	root.SetArgs([]string{"init", "--app", "robot", "--config", cfgPath})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.DirExists(t, filepath.Join(dir, "ws", "apps", "robot", "ras_robot_app", "ros2_ws", "src", "deps", "dep_a", ".git"))
	assert.Contains(t, errOut.String(), "ras_robot_app")
}

func TestVCSVersion(t *testing.T) {
	_, cfgPath := setupWorkspace(t)
	wsDir := filepath.Dir(cfgPath)

	_, err := run(t, "vcs", "version", "--config", cfgPath)
	assert.True(t, errors.Is(err, errors.ErrCodeNotInitialized))

	_, err = run(t, "init", "--config", cfgPath)
	require.NoError(t, err)

	out, err := run(t, "vcs", "version", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "main\n", out)

	_, err = run(t, "vcs", "version", "field-test", "--config", cfgPath)
	require.NoError(t, err)
	m, err := vcs.ReadManifest(filepath.Join(wsDir, "root.repos"))
	require.NoError(t, err)
	assert.Equal(t, "field-test", m.Repositories["ws"].Version)

	_, err = run(t, "vcs", "pull", "main", "--config", cfgPath)
	require.NoError(t, err)
	out, err = run(t, "vcs", "version", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "main\n", out)
}

func TestURLMode(t *testing.T) {
	r, cfgPath := setupWorkspace(t)
	wsDir := filepath.Dir(cfgPath)

	_, err := run(t, "init", "--config", cfgPath)
	require.NoError(t, err)

	out, err := run(t, "vcs", "url-mode", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "https\n", out)

	_, err = run(t, "vcs", "url-mode", "ssh", "--config", cfgPath)
	require.NoError(t, err)

	co, err := git.Inspect(filepath.Join(wsDir, "ws", "ros2_pkgs", "dep_a"))
	require.NoError(t, err)
	assert.Equal(t, r.SSH("ras", "dep_a"), co.RemoteURL)

	out, err = run(t, "vcs", "url-mode", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "ssh\n", out, "the live root origin decides")

	_, err = run(t, "vcs", "url-mode", "ftp", "--config", cfgPath)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestMatcher(t *testing.T) {
	match, err := matcher(nil)
	require.NoError(t, err)
	assert.Nil(t, match)

	match, err = matcher([]string{"ws/ros2_pkgs/*", "!ws/ros2_pkgs/skip"})
	require.NoError(t, err)
	assert.True(t, match("ws/ros2_pkgs/dep_a"))
	assert.False(t, match("ws/ros2_pkgs/skip"))
	assert.False(t, match("ws/assets/labs/asset_labs"))

	match, err = matcher([]string{"ws/apps"})
	require.NoError(t, err)
	assert.True(t, match("ws/apps/robot/ras_robot_app"), "parent directories match")
}

func TestStateAndChanges(t *testing.T) {
	assert.Equal(t, stateMissing, stateOf(vcs.RepoStatus{}))
	assert.Equal(t, stateInvalid, stateOf(vcs.RepoStatus{Present: true}))
	assert.Equal(t, stateOff, stateOf(vcs.RepoStatus{Present: true, Valid: true, DeclaredVersion: "main", CurrentVersion: "dev"}))
	assert.Equal(t, stateModified, stateOf(vcs.RepoStatus{
		Present: true, Valid: true, DeclaredVersion: "main", CurrentVersion: "main",
		Git: &git.StatusInfo{IsDirty: true, HasUpstream: true},
	}))

	assert.Equal(t, "-", changes(nil))
	assert.Equal(t, "clean", changes(&git.StatusInfo{HasUpstream: true}))
	assert.Equal(t, "↑1 ↓2 ~3 ?4", changes(&git.StatusInfo{HasUpstream: true, AheadCount: 1, BehindCount: 2, ModifiedCount: 3, UntrackedCount: 4}))
	assert.Equal(t, "no upstream", changes(&git.StatusInfo{}))
}
