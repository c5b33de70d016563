package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ras/pkg/workspace"
)

func newInitCmd() *cobra.Command {
	var apps []string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Check out the whole workspace at the declared versions",
		Long: `Clone or update the workspace repository, then every dependency and
asset repository it declares. Applications are only included once their
directory exists; --app creates it.`,
		Example: `  ras init
  ras init --app robot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}
			if err := workspace.Init(cmd.Context(), tree, apps...); err != nil {
				return err
			}
			p := pretty(cmd)
			p.Success("Workspace initialized")
			for _, app := range apps {
				p.InfoPretty(fmt.Sprintf("Application %s checked out in apps/%s", workspace.AppName(app), app))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&apps, "app", nil, "Also initialize this application (repeatable)")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every checkout below the workspace repository",
		Long: `Remove the dependency, asset and application checkouts. The workspace
repository and its manifests are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}
			if err := workspace.Clear(cmd.Context(), tree); err != nil {
				return err
			}
			pretty(cmd).Success("Workspace cleared")
			return nil
		},
	}
}
