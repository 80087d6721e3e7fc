package vfs

// Dir is a composite entry holding a name-keyed collection of children.
// Insertion order is preserved so enumeration is deterministic. A child
// may be stored under a name other than its own (via AddEntryAs or
// SetEntryAs); the collection key wins for lookup, the child's own name
// still drives its path.
type Dir struct {
	entry
	children map[string]Entry
	order    []string
}

// NewDir creates a directory. Initial children go through the same
// uniqueness-checked insertion path used after construction; colliding
// names are dropped silently, exactly as AddEntry would report.
func NewDir(name string, children ...Entry) *Dir {
	d := &Dir{
		entry:    entry{name: name, kind: KindDir},
		children: make(map[string]Entry),
	}
	for _, c := range children {
		d.AddEntry(c)
	}
	return d
}

// AddEntry inserts e under its own name. See AddEntryAs.
func (d *Dir) AddEntry(e Entry) bool {
	return d.AddEntryAs(e.Name(), e)
}

// AddEntryAs inserts e under name if the name is free, reparenting e to d
// as part of insertion. Returns false and leaves the directory unchanged
// when the name is already taken.
func (d *Dir) AddEntryAs(name string, e Entry) bool {
	if _, taken := d.children[name]; taken {
		return false
	}
	e.setParent(d)
	d.children[name] = e
	d.order = append(d.order, name)
	return true
}

// SetEntry upserts e under its own name. See SetEntryAs.
func (d *Dir) SetEntry(e Entry) Entry {
	return d.SetEntryAs(e.Name(), e)
}

// SetEntryAs unconditionally stores e under name and returns the
// displaced occupant, or nil if the name was free. The displaced entry
// is detached (its parent cleared) so the caller can dispose of it.
// Upserting the entry already stored under name is legal and leaves it
// parented to d.
func (d *Dir) SetEntryAs(name string, e Entry) Entry {
	prev, taken := d.children[name]
	e.setParent(d)
	d.children[name] = e
	if !taken {
		d.order = append(d.order, name)
		return nil
	}
	if prev != e {
		prev.setParent(nil)
	}
	return prev
}

// GetEntry returns the child stored under name, or nil if absent or, when
// a kind filter is given, the child does not match it.
func (d *Dir) GetEntry(name string, kinds ...Kind) Entry {
	e, ok := d.children[name]
	if !ok || !e.Is(kinds...) {
		return nil
	}
	return e
}

// HasEntry reports whether a child matching name (and kind, if given)
// exists.
func (d *Dir) HasEntry(name string, kinds ...Kind) bool {
	return d.GetEntry(name, kinds...) != nil
}

// DeleteEntry removes the child under name. A no-op returning false when
// the name is absent or the kind filter does not match.
func (d *Dir) DeleteEntry(name string, kinds ...Kind) bool {
	e := d.GetEntry(name, kinds...)
	if e == nil {
		return false
	}
	d.removeName(name)
	e.setParent(nil)
	return true
}

func (d *Dir) removeName(name string) {
	delete(d.children, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

// Entries returns an insertion-ordered snapshot of direct children,
// optionally filtered by kind.
func (d *Dir) Entries(kinds ...Kind) []Entry {
	out := make([]Entry, 0, len(d.order))
	for _, name := range d.order {
		if e := d.children[name]; e.Is(kinds...) {
			out = append(out, e)
		}
	}
	return out
}

// EntryNames returns the collection names of direct children in
// insertion order, optionally filtered by kind.
func (d *Dir) EntryNames(kinds ...Kind) []string {
	out := make([]string, 0, len(d.order))
	for _, name := range d.order {
		if d.children[name].Is(kinds...) {
			out = append(out, name)
		}
	}
	return out
}

// Files returns file descendants: direct files first in insertion order,
// then depth-first through subdirectories in their insertion order. When
// recursive is false only direct file children are returned. The order
// is part of the contract; consumers rely on it for stable listings.
func (d *Dir) Files(recursive bool) []*File {
	var out []*File
	for _, name := range d.order {
		if f, ok := d.children[name].(*File); ok {
			out = append(out, f)
		}
	}
	if recursive {
		for _, name := range d.order {
			if sub, ok := d.children[name].(*Dir); ok {
				out = append(out, sub.Files(true)...)
			}
		}
	}
	return out
}

// Clear removes all children, optionally only those matching the given
// kinds. Reports whether the directory actually changed, so callers can
// do dirty-tracking.
func (d *Dir) Clear(kinds ...Kind) bool {
	if len(kinds) == 0 {
		if len(d.order) == 0 {
			return false
		}
		for _, e := range d.children {
			e.setParent(nil)
		}
		d.children = make(map[string]Entry)
		d.order = nil
		return true
	}

	changed := false
	names := append([]string(nil), d.order...)
	for _, name := range names {
		if d.children[name].Is(kinds...) {
			d.DeleteEntry(name)
			changed = true
		}
	}
	return changed
}

// Count returns the number of direct children.
func (d *Dir) Count() int { return len(d.order) }

// Size returns the recursive byte total of all descendants. An empty
// directory contributes 0.
func (d *Dir) Size() int64 {
	var total int64
	for _, name := range d.order {
		total += d.children[name].Size()
	}
	return total
}

// Adopt replaces d's children with other's children, reparenting each to
// d and preserving d's own identity, so callers holding a reference to d
// keep a valid reference after the merge. other is left empty.
func (d *Dir) Adopt(other *Dir) {
	d.Clear()
	for _, name := range other.order {
		d.AddEntryAs(name, other.children[name])
	}
	other.children = make(map[string]Entry)
	other.order = nil
}
