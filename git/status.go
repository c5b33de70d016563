package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grovetools/ras/command"
)

// StatusInfo contains working tree and upstream status for a repository
type StatusInfo struct {
	// Branch is the current branch name, "(detached)" when HEAD is detached
	Branch string `json:"branch"`

	// Upstream is the tracking branch, empty when there is none
	Upstream string `json:"upstream,omitempty"`

	// AheadCount is the number of commits ahead of the upstream branch
	AheadCount int `json:"ahead_count"`

	// BehindCount is the number of commits behind the upstream branch
	BehindCount int `json:"behind_count"`

	ModifiedCount  int `json:"modified_count"`
	UntrackedCount int `json:"untracked_count"`
	StagedCount    int `json:"staged_count"`

	// IsDirty indicates if there are any uncommitted changes
	IsDirty bool `json:"is_dirty"`

	// HasUpstream indicates if the branch has an upstream tracking branch
	HasUpstream bool `json:"has_upstream"`
}

// GetStatus returns status information for the repository at path
func GetStatus(ctx context.Context, path string) (*StatusInfo, error) {
	cmdBuilder := command.NewSafeBuilder()

	// A single porcelain v2 call carries both branch headers and entries
	cmd, err := cmdBuilder.Build(ctx, "git", "status", "--porcelain=v2", "--branch")
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}
	output, err := cmd.InDir(path).CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "not a git repository") {
			return nil, fmt.Errorf("not a git repository: %s", path)
		}
		return nil, fmt.Errorf("failed to get git status: %w, output: %s", err, strings.TrimSpace(string(output)))
	}

	return ParseStatus(string(output)), nil
}

// ParseStatus parses the output of git status --porcelain=v2 --branch
func ParseStatus(output string) *StatusInfo {
	status := &StatusInfo{}

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "# ") {
			parts := strings.Fields(line)
			if len(parts) < 3 {
				continue
			}
			switch parts[1] {
			case "branch.head":
				status.Branch = parts[2]
			case "branch.upstream":
				status.HasUpstream = true
				status.Upstream = parts[2]
			case "branch.ab":
				// format is +<ahead> -<behind>
				status.AheadCount, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
				if len(parts) > 3 {
					status.BehindCount, _ = strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
				}
			}
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "?":
			status.UntrackedCount++
		case "1", "2":
			// 1 for ordinary changes, 2 for renames and copies
			if len(parts) < 2 || len(parts[1]) < 2 {
				continue
			}
			xy := parts[1]
			if xy[0] != '.' {
				status.StagedCount++
			}
			if xy[1] != '.' {
				status.ModifiedCount++
			}
		case "u":
			status.StagedCount++
			status.ModifiedCount++
		}
	}

	status.IsDirty = status.ModifiedCount > 0 || status.UntrackedCount > 0 || status.StagedCount > 0
	return status
}
