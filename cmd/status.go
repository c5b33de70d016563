package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/moby/patternmatcher"
	"github.com/spf13/cobra"

	"github.com/grovetools/ras/cli"
	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/pkg/vcs"
)

const (
	stateMissing  = "missing"
	stateInvalid  = "invalid"
	stateOff      = "off version"
	stateModified = "modified"
	stateOK       = "ok"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	stateStyles = map[string]lipgloss.Style{
		stateMissing:  cellStyle.Foreground(lipgloss.Color("8")),
		stateInvalid:  cellStyle.Foreground(lipgloss.Color("9")).Bold(true),
		stateOff:      cellStyle.Foreground(lipgloss.Color("11")),
		stateModified: cellStyle.Foreground(lipgloss.Color("11")),
		stateOK:       cellStyle.Foreground(lipgloss.Color("10")),
	}
)

func newStatusCmd() *cobra.Command {
	var (
		fetch    bool
		patterns []string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the state of every declared repository",
		Long: `Report, for every repository declared in the workspace manifests, whether
it is checked out, whether the checkout belongs to the declared remote, the
declared and current versions, and local changes. Nothing is modified.`,
		Example: `  ras vcs status
  ras vcs status --fetch --match 'ros2_pkgs/*'
  ras vcs status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := matcher(patterns)
			if err != nil {
				return err
			}
			tree, err := loadTree(cmd)
			if err != nil {
				return err
			}

			statuses, loadErr := tree.Status(cmd.Context(), vcs.StatusOptions{Fetch: fetch, Match: match})

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				if statuses == nil {
					statuses = []vcs.RepoStatus{}
				}
				data, err := json.MarshalIndent(statuses, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return loadErr
			}

			if len(statuses) == 0 {
				fmt.Fprintln(out, "No repositories match.")
				return loadErr
			}
			fmt.Fprintln(out, renderStatus(statuses))
			p := pretty(cmd)
			for _, s := range statuses {
				if s.Problem != "" {
					p.WarnPretty(fmt.Sprintf("%s: %s", s.Path, s.Problem))
				}
			}
			return loadErr
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch each checkout before comparing with its upstream")
	cmd.Flags().StringArrayVarP(&patterns, "match", "m", nil, "Only report paths matching this pattern (repeatable, ! negates)")
	return cmd
}

// matcher turns --match patterns into a path filter. Patterns follow
// .dockerignore rules, and a repository matches when it or any parent
// directory does.
func matcher(patterns []string) (func(string) bool, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid --match pattern")
	}
	return func(path string) bool {
		ok, err := pm.MatchesOrParentMatches(filepath.ToSlash(path))
		return err == nil && ok
	}, nil
}

func stateOf(s vcs.RepoStatus) string {
	switch {
	case !s.Present:
		return stateMissing
	case !s.Valid:
		return stateInvalid
	case !s.OnVersion():
		return stateOff
	case s.Git != nil && s.Git.IsDirty:
		return stateModified
	default:
		return stateOK
	}
}

// changes summarizes local and upstream differences, "-" when unknown
func changes(info *git.StatusInfo) string {
	if info == nil {
		return "-"
	}
	var parts []string
	if info.AheadCount > 0 {
		parts = append(parts, fmt.Sprintf("↑%d", info.AheadCount))
	}
	if info.BehindCount > 0 {
		parts = append(parts, fmt.Sprintf("↓%d", info.BehindCount))
	}
	if info.StagedCount > 0 {
		parts = append(parts, fmt.Sprintf("+%d", info.StagedCount))
	}
	if info.ModifiedCount > 0 {
		parts = append(parts, fmt.Sprintf("~%d", info.ModifiedCount))
	}
	if info.UntrackedCount > 0 {
		parts = append(parts, fmt.Sprintf("?%d", info.UntrackedCount))
	}
	if !info.HasUpstream {
		parts = append(parts, "no upstream")
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, " ")
}

func renderStatus(statuses []vcs.RepoStatus) string {
	states := make([]string, len(statuses))
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("PATH", "DECLARED", "CURRENT", "STATE", "CHANGES")

	for i, s := range statuses {
		states[i] = stateOf(s)
		current := s.CurrentVersion
		if current == "" {
			current = "-"
		}
		t = t.Row(s.Path, s.DeclaredVersion, current, states[i], changes(s.Git))
	}

	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == ltable.HeaderRow {
			return headerStyle
		}
		if col == 3 && row >= 0 && row < len(states) {
			return stateStyles[states[row]]
		}
		return cellStyle
	})
	return t.String()
}
