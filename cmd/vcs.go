package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ras/pkg/remote"
	"github.com/grovetools/ras/pkg/workspace"
)

func newVCSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vcs",
		Short: "Inspect and update the workspace repositories",
	}
	cmd.AddCommand(
		newStatusCmd(),
		newPullCmd(),
		newVersionCmd(),
		newURLModeCmd(),
	)
	return cmd
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [VERSION]",
		Short: "Fast-forward the workspace repository",
		Long: `Fast-forward the workspace repository. With VERSION the repository is
switched to that branch first, created from HEAD when it does not exist,
and the root descriptor is updated. Child repositories are not touched;
run 'ras init' afterwards to bring them in line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}
			var version string
			if len(args) == 1 {
				version = args[0]
			}
			if err := workspace.Pull(cmd.Context(), tree, version); err != nil {
				return err
			}
			pretty(cmd).Success("Workspace repository pulled")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version [VERSION]",
		Short: "Print or set the workspace version",
		Long: `Without arguments print the version checked out in the workspace
repository. With VERSION pull, switch the workspace repository to it,
record it in the root descriptor and reinitialize the whole workspace.`,
		Example: `  ras vcs version
  ras vcs version release-2.1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 0 {
				version, err := workspace.CurrentVersion(ctx, tree)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}

			if err := workspace.SetVersion(ctx, tree, args[0]); err != nil {
				return err
			}
			pretty(cmd).Success(fmt.Sprintf("Workspace switched to %s", args[0]))
			return nil
		},
	}
}

func newURLModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url-mode [https|ssh]",
		Short: "Print or set the remote URL scheme",
		Long: `Without arguments print the scheme remotes are cloned with. With a
scheme rewrite the origin of every valid checkout and its manifest entry.
Repositories that are not checked out keep their declared URL.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(remote.SchemeHTTPS), string(remote.SchemeSSH)},
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), tree.Scheme())
				return nil
			}

			s, err := remote.ParseScheme(args[0])
			if err != nil {
				return err
			}
			if err := tree.SetURLMode(cmd.Context(), s); err != nil {
				return err
			}
			pretty(cmd).Success(fmt.Sprintf("Remotes now use %s", s))
			return nil
		},
	}
}
