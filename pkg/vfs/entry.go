// Package vfs implements an in-memory hierarchical virtual filesystem:
// a rooted tree of named File and Dir entries with typed lookup and
// mutation operations. Tree operations never fail: absence and name
// collisions are normal outcomes reported as nil/false, not errors.
//
// The tree is not safe for concurrent mutation; the model assumes a
// single logical actor mutates it at a time.
package vfs

// Kind discriminates entry types. It is an explicit tag rather than a
// type assertion so entries remain identifiable after crossing a
// serialization boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindFile
	KindDir
)

// String returns the display name of the kind. KindUnknown only arises
// for malformed state and should not occur in practice.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is a named node in the filesystem tree, either a *File or a *Dir.
// The interface is sealed: only types in this package implement it, which
// keeps parent back-references consistent with the owning collection.
type Entry interface {
	// Name returns the entry's own name, fixed at construction.
	Name() string
	// Kind returns the entry's kind tag.
	Kind() Kind
	// Parent returns the owning directory, or nil for a root.
	Parent() *Dir
	// Path returns the /-joined chain of ancestor names ending in the
	// entry's own name. An entry without a parent yields just its name.
	Path() string
	// Size returns the byte total: payload length for files, the
	// recursive sum of children for directories.
	Size() int64
	// Is reports whether the entry matches any of the given kinds.
	// With no arguments it always reports true.
	Is(kinds ...Kind) bool
	// String returns "<kind>: <path>", for diagnostics only.
	String() string

	setParent(d *Dir)
}

// entry carries the identity shared by File and Dir.
type entry struct {
	name   string
	kind   Kind
	parent *Dir
}

func (e *entry) Name() string { return e.name }

func (e *entry) Kind() Kind { return e.kind }

func (e *entry) Parent() *Dir { return e.parent }

func (e *entry) setParent(d *Dir) { e.parent = d }

func (e *entry) Path() string {
	if e.parent == nil {
		return e.name
	}
	return e.parent.Path() + "/" + e.name
}

func (e *entry) Is(kinds ...Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if e.kind == k {
			return true
		}
	}
	return false
}

func (e *entry) String() string {
	return e.kind.String() + ": " + e.Path()
}

// CountEntries returns the number of entries in the tree rooted at e,
// including e itself.
func CountEntries(e Entry) int {
	if e == nil {
		return 0
	}
	count := 1
	if d, ok := e.(*Dir); ok {
		for _, name := range d.order {
			count += CountEntries(d.children[name])
		}
	}
	return count
}
