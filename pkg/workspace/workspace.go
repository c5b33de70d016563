// Package workspace assembles the repository tree of a RAS workspace: the
// workspace repository declared in the root descriptor, its shared
// dependencies, one map per asset category and one per application, each
// application carrying its own dependencies.
package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ras/config"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/logging"
	"github.com/grovetools/ras/pkg/parallel"
	"github.com/grovetools/ras/pkg/remote"
	"github.com/grovetools/ras/pkg/vcs"
)

const (
	// TopLabel names the map read from the root descriptor
	TopLabel = "root"

	// LabelDeps names dependency maps, both of the workspace and of each app
	LabelDeps = "deps"
)

// AppLabel returns the map label of an application
func AppLabel(app string) string { return "app:" + app }

// AssetLabel returns the map label of an asset category
func AssetLabel(category string) string { return "asset:" + category }

// AppName returns the conventional repository name of an application
func AppName(app string) string {
	return fmt.Sprintf("ras_%s_app", app)
}

// DepsSpec describes the workspace's shared ROS2 packages
func DepsSpec() vcs.MapSpec {
	return vcs.MapSpec{
		Label:       LabelDeps,
		Manifest:    filepath.Join("repos", "deps.repos"),
		WorkDir:     "ros2_pkgs",
		DefaultPull: true,
	}
}

// AssetSpec describes the repositories of one asset category
func AssetSpec(category string) vcs.MapSpec {
	return vcs.MapSpec{
		Label:       AssetLabel(category),
		Manifest:    filepath.Join("repos", "assets", category+".repos"),
		WorkDir:     filepath.Join("assets", category),
		DefaultPull: true,
	}
}

// AppSpec describes the repositories of one application. Apps are only
// reconciled once their work dir exists.
func AppSpec(app string) vcs.MapSpec {
	return vcs.MapSpec{
		Label:       AppLabel(app),
		Manifest:    filepath.Join("repos", "apps", app+".repos"),
		WorkDir:     filepath.Join("apps", app),
		DefaultPull: false,
		Children:    []vcs.MapSpec{AppDepsSpec()},
	}
}

// AppDepsSpec describes the dependencies declared inside an application checkout
func AppDepsSpec() vcs.MapSpec {
	return vcs.MapSpec{
		Label:       LabelDeps,
		Manifest:    filepath.Join("repos", "deps.repos"),
		WorkDir:     filepath.Join("ros2_ws", "src", "deps"),
		DefaultPull: true,
	}
}

// Specs returns the maps attached to the workspace repository
func Specs(apps, assets []string) []vcs.MapSpec {
	specs := []vcs.MapSpec{DepsSpec()}
	for _, category := range assets {
		specs = append(specs, AssetSpec(category))
	}
	for _, app := range apps {
		specs = append(specs, AppSpec(app))
	}
	return specs
}

// Options configures Assemble
type Options struct {
	// WorkspaceDir is the absolute directory holding the root descriptor
	WorkspaceDir string
	// RootManifest is the root descriptor's file name
	RootManifest string
	Apps         []string
	Assets       []string
	// Scheme is used when the workspace repository decides none
	Scheme remote.Scheme

	Git    git.Client
	Pool   *parallel.Pool
	Logger *logrus.Entry
}

// OptionsFromConfig derives assembler options from a loaded configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	dir, err := cfg.WorkspaceDir()
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		WorkspaceDir: dir,
		RootManifest: cfg.RootManifest,
		Apps:         cfg.Apps,
		Assets:       cfg.Assets,
		Pool:         parallel.NewPool(cfg.Parallelism),
	}
	if cfg.URLMode != "" {
		s, err := remote.ParseScheme(cfg.URLMode)
		if err != nil {
			return Options{}, err
		}
		opts.Scheme = s
	}
	return opts, nil
}

// Assemble builds the tree from the root descriptor and resolves the
// preferred scheme: the workspace repository's live origin, else its
// descriptor URL, else opts.Scheme, else https. A missing root descriptor
// is MANIFEST_NOT_FOUND.
func Assemble(opts Options) (*vcs.Tree, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewLogger("workspace")
	}
	manifest := opts.RootManifest
	if manifest == "" {
		manifest = config.DefaultRootManifest
	}
	dir, err := filepath.Abs(opts.WorkspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace dir: %w", err)
	}

	fallback := opts.Scheme
	if !fallback.Valid() {
		fallback = remote.SchemeHTTPS
	}
	tree := vcs.NewTree(vcs.Options{
		Git:    opts.Git,
		Pool:   opts.Pool,
		Scheme: fallback,
		Logger: log,
	})

	if _, err := tree.SetTop(TopLabel, filepath.Join(dir, manifest), dir, Specs(opts.Apps, opts.Assets)...); err != nil {
		return nil, err
	}
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}

	if s, ok := tree.DetectScheme(); ok {
		tree.SetScheme(s)
	}
	log.WithFields(logrus.Fields{
		"root":   root.RelPath(),
		"scheme": tree.Scheme(),
	}).Debug("Assembled workspace tree")
	return tree, nil
}
