package vcs

import (
	"context"

	"github.com/grovetools/ras/errors"
	"github.com/grovetools/ras/git"
	"github.com/grovetools/ras/pkg/parallel"
)

// RepoStatus is the read-only report for one declared repository
type RepoStatus struct {
	// Path is relative to the workspace directory
	Path            string          `json:"path"`
	Map             string          `json:"map"`
	URL             string          `json:"url"`
	DeclaredVersion string          `json:"declared_version"`
	CurrentVersion  string          `json:"current_version,omitempty"`
	Present         bool            `json:"present"`
	Valid           bool            `json:"valid"`
	Problem         string          `json:"problem,omitempty"`
	Git             *git.StatusInfo `json:"git,omitempty"`
}

// OnVersion reports whether a valid checkout is at the declared version
func (s RepoStatus) OnVersion() bool {
	return s.Valid && s.CurrentVersion == s.DeclaredVersion
}

// StatusOptions controls Tree.Status
type StatusOptions struct {
	// Fetch updates remote-tracking refs before reading ahead/behind counts
	Fetch bool
	// Match filters reported paths; nil reports everything
	Match func(path string) bool
}

// Status reports every declared repository. Apart from the optional fetch
// nothing on disk is changed. Manifests that fail to load are returned as an
// aggregated error alongside the statuses that could be read.
func (t *Tree) Status(ctx context.Context, opts StatusOptions) ([]RepoStatus, error) {
	var (
		nodes []*Node
		errs  []error
	)
	for n, err := range t.Walk(FromManifest) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if opts.Match != nil && !opts.Match(n.RelPath()) {
			continue
		}
		nodes = append(nodes, n)
	}

	results := make([]RepoStatus, len(nodes))
	tasks := make([]parallel.Task, 0, len(nodes))
	for i, n := range nodes {
		tasks = append(tasks, parallel.Task{
			Name: n.RelPath(),
			Run: func(ctx context.Context) error {
				results[i] = t.statusOf(ctx, n, opts.Fetch)
				return nil
			},
		})
	}
	_ = t.pool.Run(ctx, "status", tasks...)

	return results, errors.Aggregate("status", errs)
}

func (t *Tree) statusOf(ctx context.Context, n *Node, fetch bool) RepoStatus {
	s := RepoStatus{
		Path:            n.RelPath(),
		Map:             n.Owner().Label,
		URL:             n.URL,
		DeclaredVersion: n.Version,
		Present:         n.Exists(),
	}
	if !s.Present {
		return s
	}

	co, err := n.inspect()
	if err != nil {
		s.Problem = describe(err)
		return s
	}
	s.Valid = true
	s.CurrentVersion = co.Version()

	path := n.AbsPath()
	if fetch {
		if err := t.git.Fetch(ctx, path); err != nil {
			s.Problem = "fetch failed: " + describe(err)
		}
	}
	info, err := t.git.Status(ctx, path)
	if err != nil {
		if s.Problem == "" {
			s.Problem = describe(err)
		}
		return s
	}
	s.Git = info
	return s
}

func describe(err error) string {
	if rasErr, ok := errors.As(err); ok {
		return rasErr.Message
	}
	return err.Error()
}
