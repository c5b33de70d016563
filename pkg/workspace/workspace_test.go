package workspace

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ras/config"
	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/pkg/parallel"
	"github.com/grovetools/ras/pkg/remote"
	"github.com/grovetools/ras/pkg/vcs"
	"github.com/grovetools/ras/testutil"
)

// fixture is a workspace repository on a fake remote declaring shared deps,
// a "labs" asset category and a "robot" app with deps of its own.
type fixture struct {
	remotes *testutil.Remotes
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := testutil.NewRemotes(t)

	depURL := r.Create(t, "ras", "dep_a")
	assetURL := r.Create(t, "ras", "asset_labs")
	robotDepURL := r.Create(t, "ras", "robot_dep")
	appURL := r.Create(t, "ras", AppName("robot"))
	r.Push(t, "ras", AppName("robot"), "main", "repos/deps.repos",
		testutil.Manifest(t, testutil.Repo{Path: "robot_dep", URL: robotDepURL, Version: "main"}))

	wsURL := r.Create(t, "ras", "ws", "release")
	r.Push(t, "ras", "ws", "main", "repos/deps.repos",
		testutil.Manifest(t, testutil.Repo{Path: "dep_a", URL: depURL, Version: "main"}))
	r.Push(t, "ras", "ws", "main", "repos/assets/labs.repos",
		testutil.Manifest(t, testutil.Repo{Path: "asset_labs", URL: assetURL, Version: "main"}))
	r.Push(t, "ras", "ws", "main", "repos/apps/robot.repos",
		testutil.Manifest(t, testutil.Repo{Path: AppName("robot"), URL: appURL, Version: "main"}))

	dir := t.TempDir()
	testutil.WriteManifest(t, filepath.Join(dir, config.DefaultRootManifest),
		testutil.Repo{Path: "ws", URL: wsURL, Version: "main"})
	return &fixture{remotes: r, dir: dir}
}

func (f *fixture) assemble(t *testing.T) *vcs.Tree {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	tree, err := Assemble(Options{
		WorkspaceDir: f.dir,
		Apps:         []string{"robot"},
		Assets:       []string{"labs"},
		Pool:         parallel.NewPool(4),
		Logger:       logrus.NewEntry(l),
	})
	require.NoError(t, err)
	return tree
}

func (f *fixture) path(parts ...string) string {
	return filepath.Join(append([]string{f.dir, "ws"}, parts...)...)
}

func TestSpecs(t *testing.T) {
	assert.Equal(t, "ras_robot_app", AppName("robot"))

	specs := Specs([]string{"robot", "server"}, []string{"labs"})
	require.Len(t, specs, 4)
	assert.Equal(t, LabelDeps, specs[0].Label)
	assert.Equal(t, "ros2_pkgs", specs[0].WorkDir)
	assert.True(t, specs[0].DefaultPull)

	assert.Equal(t, "asset:labs", specs[1].Label)
	assert.Equal(t, filepath.Join("repos", "assets", "labs.repos"), specs[1].Manifest)
	assert.True(t, specs[1].DefaultPull)

	app := specs[2]
	assert.Equal(t, "app:robot", app.Label)
	assert.Equal(t, filepath.Join("apps", "robot"), app.WorkDir)
	assert.False(t, app.DefaultPull)
	require.Len(t, app.Children, 1)
	assert.Equal(t, filepath.Join("ros2_ws", "src", "deps"), app.Children[0].WorkDir)
	assert.Equal(t, filepath.Join("repos", "deps.repos"), app.Children[0].Manifest)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte("workspace: /srv/ras\nurl_mode: ssh\nparallelism: 3\napps: [robot]\n"))
	require.NoError(t, err)

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ras", opts.WorkspaceDir)
	assert.Equal(t, remote.SchemeSSH, opts.Scheme)
	assert.Equal(t, 3, opts.Pool.Size())
	assert.Equal(t, []string{"robot"}, opts.Apps)
	assert.Equal(t, config.DefaultRootManifest, opts.RootManifest)
}

func TestAssemble_MissingRootDescriptor(t *testing.T) {
	_, err := Assemble(Options{WorkspaceDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeManifestNotFound))
}

func TestAssemble_Scheme(t *testing.T) {
	f := newFixture(t)

	tree := f.assemble(t)
	assert.Equal(t, remote.SchemeHTTPS, tree.Scheme())

	root, err := tree.Root()
	require.NoError(t, err)
	assert.Equal(t, "ws", root.Path)
	assert.Len(t, root.Children(), 3)
	require.NotNil(t, root.Child(AppLabel("robot")))
	assert.Equal(t, f.path("apps", "robot"), root.Child(AppLabel("robot")).WorkDirPath())

	// A live ssh origin decides over the https descriptor
	require.NoError(t, git.NewCLIClient(nil).Clone(context.Background(), f.remotes.SSH("ras", "ws"), "main", f.path()))
	assert.Equal(t, remote.SchemeSSH, f.assemble(t).Scheme())
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tree := f.assemble(t)

	require.NoError(t, Init(ctx, tree))
	assert.DirExists(t, f.path(".git"))
	assert.DirExists(t, f.path("ros2_pkgs", "dep_a", ".git"))
	assert.DirExists(t, f.path("assets", "labs", "asset_labs", ".git"))
	assert.NoDirExists(t, f.path("apps", "robot"), "apps are opt-in")

	require.NoError(t, Init(ctx, f.assemble(t), "robot"))
	appPath := f.path("apps", "robot", AppName("robot"))
	assert.DirExists(t, filepath.Join(appPath, ".git"))
	assert.DirExists(t, filepath.Join(appPath, "ros2_ws", "src", "deps", "robot_dep", ".git"))

	// Once present the app is kept up to date without being named
	f.remotes.Push(t, "ras", AppName("robot"), "main", "later.txt", "later\n")
	require.NoError(t, Init(ctx, f.assemble(t)))
	assert.FileExists(t, filepath.Join(appPath, "later.txt"))
}

func TestInit_UnknownApp(t *testing.T) {
	f := newFixture(t)

	err := Init(context.Background(), f.assemble(t), "drone")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.NoDirExists(t, f.path(), "nothing is cloned for an unknown app")
}

func TestInit_CorruptWorkspaceRepositoryHalts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.path("ros2_pkgs"), 0755))

	err := Init(context.Background(), f.assemble(t))
	assert.True(t, errors.Is(err, errors.ErrCodeCorruptRepository))
	assert.NoDirExists(t, f.path("ros2_pkgs", "dep_a"))
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, Clear(ctx, f.assemble(t)), "clearing an empty workspace is a no-op")

	require.NoError(t, Init(ctx, f.assemble(t), "robot"))
	require.NoError(t, Clear(ctx, f.assemble(t)))

	assert.DirExists(t, f.path(".git"))
	assert.FileExists(t, f.path("repos", "deps.repos"))
	assert.NoDirExists(t, f.path("ros2_pkgs", "dep_a"))
	assert.NoDirExists(t, f.path("assets", "labs", "asset_labs"))
	assert.NoDirExists(t, f.path("apps", "robot", AppName("robot")))

	require.NoError(t, Clear(ctx, f.assemble(t)))
}

func TestPull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, Init(ctx, f.assemble(t)))

	f.remotes.Push(t, "ras", "ws", "main", "later.txt", "later\n")
	require.NoError(t, Pull(ctx, f.assemble(t), ""))
	assert.FileExists(t, f.path("later.txt"))

	require.NoError(t, Pull(ctx, f.assemble(t), "release"))
	assert.FileExists(t, f.path("release.txt"))

	m, err := vcs.ReadManifest(filepath.Join(f.dir, config.DefaultRootManifest))
	require.NoError(t, err)
	assert.Equal(t, "release", m.Repositories["ws"].Version)

	version, err := CurrentVersion(ctx, f.assemble(t))
	require.NoError(t, err)
	assert.Equal(t, "release", version)
}

func TestPull_NotInitialized(t *testing.T) {
	f := newFixture(t)

	err := Pull(context.Background(), f.assemble(t), "")
	assert.True(t, errors.Is(err, errors.ErrCodeNotInitialized))
}

func TestCurrentVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := CurrentVersion(ctx, f.assemble(t))
	assert.True(t, errors.Is(err, errors.ErrCodeNotInitialized))

	require.NoError(t, Init(ctx, f.assemble(t)))
	version, err := CurrentVersion(ctx, f.assemble(t))
	require.NoError(t, err)
	assert.Equal(t, "main", version)
}

func TestSetVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, Init(ctx, f.assemble(t)))

	head := testutil.GitOutput(t, f.path(), "rev-parse", "HEAD")
	require.NoError(t, SetVersion(ctx, f.assemble(t), "robot-v2"))

	co, err := git.Inspect(f.path())
	require.NoError(t, err)
	assert.Equal(t, "robot-v2", co.Branch)
	assert.Equal(t, head, co.Commit)

	m, err := vcs.ReadManifest(filepath.Join(f.dir, config.DefaultRootManifest))
	require.NoError(t, err)
	assert.Equal(t, "robot-v2", m.Repositories["ws"].Version)

	// The tree is still reconciled against the new version
	require.NoError(t, Init(ctx, f.assemble(t)))
	assert.DirExists(t, f.path("ros2_pkgs", "dep_a", ".git"))
}
