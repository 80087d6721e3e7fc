package vfs

import (
	"strings"
	"testing"
)

func TestAddEntry(t *testing.T) {
	d := NewDir("")
	f := NewTextFile("a.txt", "hi")

	if !d.AddEntry(f) {
		t.Fatal("AddEntry into empty dir returned false")
	}
	if got := d.GetEntry("a.txt"); got != Entry(f) {
		t.Errorf("GetEntry(a.txt) = %v, want the added file", got)
	}
	if !d.HasEntry("a.txt") {
		t.Error("HasEntry(a.txt) = false after successful add")
	}
	if f.Parent() != d {
		t.Error("added entry's parent not set to the directory")
	}

	// Collision: directory unchanged, original retrievable.
	other := NewTextFile("a.txt", "other")
	if d.AddEntry(other) {
		t.Error("AddEntry with taken name returned true")
	}
	if d.GetEntry("a.txt") != Entry(f) {
		t.Error("collision replaced the original entry")
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
}

func TestSetEntry(t *testing.T) {
	d := NewDir("")
	a := NewTextFile("a.txt", "one")

	if prev := d.SetEntry(a); prev != nil {
		t.Errorf("SetEntry into empty dir returned %v, want nil", prev)
	}

	b := NewTextFile("a.txt", "two")
	prev := d.SetEntry(b)
	if prev != Entry(a) {
		t.Errorf("SetEntry returned %v, want displaced original", prev)
	}
	if a.Parent() != nil {
		t.Error("displaced entry still has a parent")
	}
	if d.GetEntry("a.txt") != Entry(b) {
		t.Error("SetEntry did not replace the occupant")
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}
}

func TestSetEntrySelfUpsert(t *testing.T) {
	d := NewDir("")
	f := NewTextFile("a.txt", "hi")
	d.AddEntry(f)

	prev := d.SetEntry(f)
	if prev != Entry(f) {
		t.Errorf("SetEntry returned %v, want the occupant itself", prev)
	}
	if f.Parent() != d {
		t.Error("self-upsert cleared the entry's parent")
	}
	if f.Path() != "/a.txt" {
		t.Errorf("Path() after self-upsert = %q, want /a.txt", f.Path())
	}
	if d.GetEntry("a.txt") != Entry(f) || d.Count() != 1 {
		t.Error("self-upsert changed the directory contents")
	}
}

func TestGetEntryKindFilter(t *testing.T) {
	d := NewDir("",
		NewTextFile("a.txt", "hi"),
		NewDir("sub"),
	)

	if d.GetEntry("a.txt", KindDir) != nil {
		t.Error("GetEntry(a.txt, KindDir) should be nil")
	}
	if d.GetEntry("a.txt", KindFile) == nil {
		t.Error("GetEntry(a.txt, KindFile) should find the file")
	}
	if d.GetEntry("sub", KindDir) == nil {
		t.Error("GetEntry(sub, KindDir) should find the subdirectory")
	}
	if d.GetEntry("missing") != nil {
		t.Error("GetEntry(missing) should be nil")
	}
	if d.HasEntry("sub", KindFile) {
		t.Error("HasEntry(sub, KindFile) = true for a directory")
	}
}

func TestDeleteEntry(t *testing.T) {
	d := NewDir("", NewTextFile("a.txt", "hi"))

	if d.DeleteEntry("a.txt", KindDir) {
		t.Error("DeleteEntry with mismatched kind returned true")
	}
	if !d.HasEntry("a.txt") {
		t.Error("kind-mismatched delete removed the entry")
	}
	if !d.DeleteEntry("a.txt") {
		t.Error("DeleteEntry of present entry returned false")
	}
	if d.HasEntry("a.txt") || d.Count() != 0 {
		t.Error("entry still present after delete")
	}
	if d.DeleteEntry("a.txt") {
		t.Error("DeleteEntry of absent entry returned true")
	}
}

func TestPaths(t *testing.T) {
	root := NewDir("")
	sub := NewDir("sub")
	leaf := NewTextFile("b.bin", "x")
	root.AddEntry(sub)
	sub.AddEntry(leaf)

	tests := []struct {
		e    Entry
		want string
	}{
		{root, ""},
		{sub, "/sub"},
		{leaf, "/sub/b.bin"},
	}
	for _, tt := range tests {
		if got := tt.e.Path(); got != tt.want {
			t.Errorf("Path() = %q, want %q", got, tt.want)
		}
	}
	if leaf.String() != "file: /sub/b.bin" {
		t.Errorf("String() = %q", leaf.String())
	}
}

func TestSizeRecursive(t *testing.T) {
	root := NewDir("")
	root.AddEntry(NewTextFile("a.txt", "hi")) // 2 bytes
	sub := NewDir("sub")
	sub.AddEntry(NewFile("b.bin", make([]byte, 10)))
	root.AddEntry(sub)
	root.AddEntry(NewDir("empty"))

	if got := root.Size(); got != 12 {
		t.Errorf("root.Size() = %d, want 12", got)
	}
	if got := sub.Size(); got != 10 {
		t.Errorf("sub.Size() = %d, want 10", got)
	}
	if got := NewDir("x").Size(); got != 0 {
		t.Errorf("empty dir Size() = %d, want 0", got)
	}
}

func TestFilesTraversalOrder(t *testing.T) {
	root := NewDir("")
	root.AddEntry(NewTextFile("a.txt", "hi"))
	sub := NewDir("sub")
	sub.AddEntry(NewFile("b.bin", make([]byte, 10)))
	root.AddEntry(sub)

	all := root.Files(true)
	if len(all) != 2 || all[0].Name() != "a.txt" || all[1].Name() != "b.bin" {
		t.Errorf("Files(true) order = %v, want [a.txt b.bin]", fileNames(all))
	}

	direct := root.Files(false)
	if len(direct) != 1 || direct[0].Name() != "a.txt" {
		t.Errorf("Files(false) = %v, want [a.txt]", fileNames(direct))
	}
}

func TestFilesDirectFirstThenDepthFirst(t *testing.T) {
	// Files listed after a subdirectory in insertion order must still
	// come before that subdirectory's descendants.
	root := NewDir("")
	sub := NewDir("sub", NewTextFile("inner.txt", "x"))
	root.AddEntry(sub)
	root.AddEntry(NewTextFile("late.txt", "y"))

	got := fileNames(root.Files(true))
	want := "late.txt,inner.txt"
	if strings.Join(got, ",") != want {
		t.Errorf("Files(true) order = %v, want %s", got, want)
	}
}

func TestEntriesAndNamesOrder(t *testing.T) {
	d := NewDir("")
	d.AddEntry(NewTextFile("b", "1"))
	d.AddEntry(NewDir("a"))
	d.AddEntry(NewTextFile("c", "2"))

	names := d.EntryNames()
	if strings.Join(names, ",") != "b,a,c" {
		t.Errorf("EntryNames() = %v, want insertion order [b a c]", names)
	}
	fnames := d.EntryNames(KindFile)
	if strings.Join(fnames, ",") != "b,c" {
		t.Errorf("EntryNames(KindFile) = %v, want [b c]", fnames)
	}
	dirs := d.Entries(KindDir)
	if len(dirs) != 1 || dirs[0].Name() != "a" {
		t.Errorf("Entries(KindDir) = %v", dirs)
	}
	if len(d.Entries()) != 3 {
		t.Errorf("Entries() length = %d, want 3", len(d.Entries()))
	}
}

func TestClear(t *testing.T) {
	d := NewDir("")
	if d.Clear() {
		t.Error("Clear() on empty dir returned true")
	}

	d.AddEntry(NewTextFile("a", "1"))
	d.AddEntry(NewDir("sub"))

	if !d.Clear(KindFile) {
		t.Error("Clear(KindFile) with a file present returned false")
	}
	if d.HasEntry("a") || !d.HasEntry("sub") {
		t.Error("Clear(KindFile) removed the wrong entries")
	}

	if !d.Clear() {
		t.Error("Clear() with entries present returned false")
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", d.Count())
	}
	if d.Clear() {
		t.Error("second Clear() in a row returned true")
	}
}

func TestAddEntryAsAlias(t *testing.T) {
	d := NewDir("")
	f := NewTextFile("real.txt", "hi")
	if !d.AddEntryAs("alias.txt", f) {
		t.Fatal("AddEntryAs returned false")
	}
	if d.GetEntry("alias.txt") != Entry(f) {
		t.Error("aliased entry not retrievable under collection name")
	}
	if d.GetEntry("real.txt") != nil {
		t.Error("aliased entry retrievable under its own name")
	}
}

func TestNewDirInitialChildren(t *testing.T) {
	dup := NewTextFile("a", "second")
	d := NewDir("", NewTextFile("a", "first"), dup, NewDir("sub"))

	if d.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (duplicate dropped)", d.Count())
	}
	if f, ok := d.GetEntry("a").(*File); !ok || string(f.Content()) != "first" {
		t.Error("duplicate initial child displaced the original")
	}
}

func TestCountEntries(t *testing.T) {
	root := NewDir("",
		NewTextFile("a", "1"),
		NewDir("sub", NewTextFile("b", "2")),
	)
	if got := CountEntries(root); got != 4 {
		t.Errorf("CountEntries = %d, want 4", got)
	}
	if got := CountEntries(nil); got != 0 {
		t.Errorf("CountEntries(nil) = %d, want 0", got)
	}
}

func fileNames(files []*File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	return names
}
