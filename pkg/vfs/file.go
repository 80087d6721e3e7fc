package vfs

// File is a leaf entry holding an immutable byte payload. Files are
// replaced whole, never patched; there are no partial writes.
type File struct {
	entry
	content []byte
}

// NewFile creates a file from raw bytes. The payload is copied so later
// mutation of the caller's buffer cannot reach the stored content.
func NewFile(name string, content []byte) *File {
	buf := make([]byte, len(content))
	copy(buf, content)
	return &File{
		entry:   entry{name: name, kind: KindFile},
		content: buf,
	}
}

// NewTextFile creates a file from text. The text is stored as its UTF-8
// byte representation; the original string form is not retained, so
// readers always see canonical bytes.
func NewTextFile(name, text string) *File {
	return &File{
		entry:   entry{name: name, kind: KindFile},
		content: []byte(text),
	}
}

// Content returns the stored payload. The slice is the file's canonical
// content and must not be modified.
func (f *File) Content() []byte { return f.content }

// Size returns the payload byte length.
func (f *File) Size() int64 { return int64(len(f.content)) }
