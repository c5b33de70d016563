package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/testutil"
)

func TestCLIClient_CloneAndInspect(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "robot_app", "develop")
	client := NewCLIClient(nil)
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "apps", "robot", "ras_robot_app")
	require.NoError(t, client.Clone(ctx, url, "develop", dest))

	co, err := client.Inspect(dest)
	require.NoError(t, err)
	assert.Equal(t, url, co.RemoteURL)
	assert.Equal(t, "develop", co.Branch)
	assert.Equal(t, "develop", co.Version())
	assert.False(t, co.Detached)
	assert.Equal(t, remotes.Head(t, "ras", "robot_app", "develop"), co.Commit)
	assert.FileExists(t, filepath.Join(dest, "develop.txt"))
}

func TestCLIClient_CloneInvalidInput(t *testing.T) {
	client := NewCLIClient(nil)
	dest := filepath.Join(t.TempDir(), "repo")

	err := client.Clone(context.Background(), "--upload-pack=evil", "main", dest)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	err = client.Clone(context.Background(), "https://example.com/ras/repo", "-b", dest)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.NoDirExists(t, dest)
}

func TestCLIClient_CloneMissingRemote(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	client := NewCLIClient(nil)

	err := client.Clone(context.Background(), remotes.HTTPS("ras", "missing"), "main", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

func TestInspect_DetachedAtTag(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "labs")
	remotes.Tag(t, "ras", "labs", "v1.0.0")
	client := NewCLIClient(nil)

	dest := filepath.Join(t.TempDir(), "labs")
	require.NoError(t, client.Clone(context.Background(), url, "v1.0.0", dest))

	co, err := Inspect(dest)
	require.NoError(t, err)
	assert.True(t, co.Detached)
	assert.Empty(t, co.Branch)
	assert.Equal(t, "v1.0.0", co.Tag)
	assert.Equal(t, "v1.0.0", co.Version())
}

func TestInspect_DetachedAtCommit(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "labs")
	head := remotes.Head(t, "ras", "labs", "main")
	client := NewCLIClient(nil)

	dest := filepath.Join(t.TempDir(), "labs")
	require.NoError(t, client.Clone(context.Background(), url, head, dest))

	co, err := Inspect(dest)
	require.NoError(t, err)
	assert.True(t, co.Detached)
	assert.Equal(t, head, co.Version())
}

func TestInspect_NotRepository(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Inspect(filepath.Join(t.TempDir(), "absent"))
		assert.ErrorIs(t, err, ErrNotRepository)
	})

	t.Run("plain directory inside a checkout", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitGitRepo(t, dir)
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.MkdirAll(sub, 0755))

		_, err := Inspect(sub)
		assert.ErrorIs(t, err, ErrNotRepository)
	})
}

func TestCLIClient_CheckoutAndBranches(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "server_app", "feature")
	client := NewCLIClient(nil)
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "server_app")
	require.NoError(t, client.Clone(ctx, url, "main", dest))

	exists, err := client.BranchExists(dest, "feature")
	require.NoError(t, err)
	assert.True(t, exists, "remote branch should be found")

	exists, err = client.BranchExists(dest, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.Checkout(ctx, dest, "feature", false))
	co, err := Inspect(dest)
	require.NoError(t, err)
	assert.Equal(t, "feature", co.Branch)

	require.NoError(t, client.CreateBranch(ctx, dest, "nope"))
	co, err = Inspect(dest)
	require.NoError(t, err)
	assert.Equal(t, "nope", co.Branch)

	exists, err = client.BranchExists(dest, "nope")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCLIClient_ForceCheckoutDiscardsChanges(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "labs", "other")
	client := NewCLIClient(nil)
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "labs")
	require.NoError(t, client.Clone(ctx, url, "main", dest))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "README.md"), []byte("local edit\n"), 0644))

	require.NoError(t, client.Checkout(ctx, dest, "main", true))
	content, err := os.ReadFile(filepath.Join(dest, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# labs\n", string(content))
}

func TestCLIClient_Pull(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "labs")
	client := NewCLIClient(nil)
	ctx := context.Background()
	root := t.TempDir()

	tracking := filepath.Join(root, "tracking")
	require.NoError(t, client.Clone(ctx, url, "main", tracking))

	local := filepath.Join(root, "local")
	require.NoError(t, client.Clone(ctx, url, "main", local))
	require.NoError(t, client.CreateBranch(ctx, local, "scratch"))

	detached := filepath.Join(root, "detached")
	require.NoError(t, client.Clone(ctx, url, remotes.Head(t, "ras", "labs", "main"), detached))

	remotes.Push(t, "ras", "labs", "main", "update.txt", "update\n")

	require.NoError(t, client.Pull(ctx, tracking, local, detached))

	assert.FileExists(t, filepath.Join(tracking, "update.txt"))
	assert.NoFileExists(t, filepath.Join(local, "update.txt"))
	assert.NoFileExists(t, filepath.Join(detached, "update.txt"))

	exists, err := BranchExists(detached, "main")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCLIClient_PullAggregatesFailures(t *testing.T) {
	client := NewCLIClient(nil)
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(a, 0755))
	require.NoError(t, os.MkdirAll(b, 0755))

	err := client.Pull(context.Background(), a, b)
	require.Error(t, err)

	rasErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAggregatedOperation, rasErr.Code)
	assert.Len(t, rasErr.Failures(), 2)
}

func TestCLIClient_SetRemoteURL(t *testing.T) {
	remotes := testutil.NewRemotes(t)
	url := remotes.Create(t, "ras", "labs")
	client := NewCLIClient(nil)
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "labs")
	require.NoError(t, client.Clone(ctx, url, "main", dest))
	require.NoError(t, client.SetRemoteURL(ctx, dest, remotes.SSH("ras", "labs")))

	co, err := Inspect(dest)
	require.NoError(t, err)
	assert.Equal(t, remotes.SSH("ras", "labs"), co.RemoteURL)

	// The ssh form resolves to the same bare repository
	require.NoError(t, client.Fetch(ctx, dest))
}

func TestCLIClient_NonInteractiveEnv(t *testing.T) {
	client := NewCLIClient(nil)

	cmd, err := client.cmdBuilder.Build(context.Background(), "git", "fetch")
	require.NoError(t, err)
	defer cmd.Release()
	assert.Contains(t, cmd.Exec().Env, "GIT_TERMINAL_PROMPT=0")
}
