// Package cmd implements the ras command tree
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/ras/cli"
	"github.com/grovetools/ras/logging"
	"github.com/grovetools/ras/pkg/vcs"
	"github.com/grovetools/ras/pkg/workspace"
)

// NewRootCmd builds the ras command tree
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"ras",
		"Manage the repositories of a RAS robot or server workspace",
	)
	root.Long = `ras keeps a workspace repository and the trees of ROS2 packages, assets
and applications it declares in .repos manifests checked out at the
declared versions.`

	root.AddCommand(
		newInitCmd(),
		newClearCmd(),
		newVCSCmd(),
		newConfigCmd(),
		cli.NewVersionCommand(),
	)
	cli.ApplyStyledHelpRecursive(root)
	return root
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		cli.NewErrorHandler(root.ErrOrStderr(), cli.GetOptions(cmd).Verbose).Handle(err)
		return 1
	}
	return 0
}

// loadTree assembles the workspace tree described by the configuration
func loadTree(cmd *cobra.Command) (*vcs.Tree, error) {
	cli.GetLogger(cmd)

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := workspace.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Logger = logging.NewLogger("vcs")
	return workspace.Assemble(opts)
}

func pretty(cmd *cobra.Command) *logging.PrettyLogger {
	return logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
}
