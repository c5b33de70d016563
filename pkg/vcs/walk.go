package vcs

import "iter"

// Source selects which nodes a walk visits
type Source int

const (
	// FromManifest visits every declared node, checked out or not
	FromManifest Source = iota
	// FromDisk visits only nodes with a checkout and descends only into them
	FromDisk
)

func (s Source) String() string {
	switch s {
	case FromManifest:
		return "manifest"
	case FromDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Walk yields nodes depth first, parents before their children, maps in label
// order and members in path order. Child maps whose manifest is not on disk
// are skipped; a manifest that fails to load is yielded as an error and its
// subtree skipped.
func (t *Tree) Walk(src Source) iter.Seq2[*Node, error] {
	return func(yield func(*Node, error) bool) {
		top := t.Top()
		if top == nil {
			return
		}
		if err := top.Load(); err != nil {
			yield(nil, err)
			return
		}
		t.walkMap(top, src, yield)
	}
}

func (t *Tree) walkMap(m *RepoMap, src Source, yield func(*Node, error) bool) bool {
	for _, n := range m.Nodes() {
		if src == FromDisk && !n.Exists() {
			continue
		}
		if !yield(n, nil) {
			return false
		}
		for _, child := range n.Children() {
			if !child.ManifestExists() {
				continue
			}
			if err := child.Load(); err != nil {
				if !yield(nil, err) {
					return false
				}
				continue
			}
			if !t.walkMap(child, src, yield) {
				return false
			}
		}
	}
	return true
}
