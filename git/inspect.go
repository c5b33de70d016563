package git

import (
	stderrors "errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrNotRepository is returned by Inspect for a directory that is not the
// top level of a git repository.
var ErrNotRepository = stderrors.New("not a git repository")

// Checkout describes the state of a working copy on disk
type Checkout struct {
	// Path is the directory that was inspected
	Path string `json:"path"`

	// RemoteURL is the first URL of origin, empty without an origin remote
	RemoteURL string `json:"remote_url,omitempty"`

	// Branch is the checked out branch, empty when HEAD is detached
	Branch string `json:"branch,omitempty"`

	// Commit is the hash HEAD resolves to, empty before the first commit
	Commit string `json:"commit,omitempty"`

	// Tag names a tag pointing at HEAD when HEAD is detached
	Tag string `json:"tag,omitempty"`

	// Detached indicates HEAD does not point at a branch
	Detached bool `json:"detached"`
}

// Version returns the most descriptive name of HEAD: the branch, else a tag
// at HEAD, else the commit hash.
func (c *Checkout) Version() string {
	switch {
	case c.Branch != "":
		return c.Branch
	case c.Tag != "":
		return c.Tag
	default:
		return c.Commit
	}
}

// Inspect opens dir with go-git and reads origin and HEAD. Parent
// directories are not searched, so a plain directory inside another
// checkout is reported as ErrNotRepository.
func Inspect(dir string) (*Checkout, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		if stderrors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	co := &Checkout{Path: dir}
	if origin, err := repo.Remote("origin"); err == nil {
		if urls := origin.Config().URLs; len(urls) > 0 {
			co.RemoteURL = urls[0]
		}
	}

	head, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			// No commits yet
			return co, nil
		}
		return nil, fmt.Errorf("failed to read HEAD of %s: %w", dir, err)
	}

	co.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		co.Branch = head.Name().Short()
		return co, nil
	}

	co.Detached = true
	co.Tag = tagAt(repo, head.Hash())
	return co, nil
}

// BranchExists reports whether refs/heads/name or refs/remotes/origin/name exists in dir
func BranchExists(dir, name string) (bool, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	for _, ref := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(name),
		plumbing.NewRemoteReferenceName("origin", name),
	} {
		_, err := repo.Reference(ref, true)
		if err == nil {
			return true, nil
		}
		if !stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, fmt.Errorf("failed to resolve %s in %s: %w", ref, dir, err)
		}
	}
	return false, nil
}

// tagAt returns the name of a lightweight or annotated tag pointing at hash
func tagAt(repo *gogit.Repository, hash plumbing.Hash) string {
	tags, err := repo.Tags()
	if err != nil {
		return ""
	}
	defer tags.Close()

	var name string
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := repo.TagObject(target); err == nil {
			target = tag.Target
		}
		if target == hash {
			name = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})
	return name
}
