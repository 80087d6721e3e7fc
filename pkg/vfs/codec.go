package vfs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// The persisted record format is the on-disk contract: a directory
// serializes as {"name", "kind", "entries": {name: entry, ...}} and a
// file as {"name", "kind", "content": <base64 bytes>}, recursively.
// Entries are written and read in insertion order so enumeration order
// survives a round trip; the standard json package sorts map keys, so
// both directions are hand-rolled over the token stream.

// MarshalRecord serializes the tree rooted at d into the record format.
func MarshalRecord(d *Dir) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeEntry(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEntry(buf *bytes.Buffer, e Entry) error {
	name, err := json.Marshal(e.Name())
	if err != nil {
		return fmt.Errorf("vfs: encode name: %w", err)
	}

	switch v := e.(type) {
	case *File:
		content, err := json.Marshal(v.Content())
		if err != nil {
			return fmt.Errorf("vfs: encode content of %s: %w", v.Path(), err)
		}
		fmt.Fprintf(buf, `{"name":%s,"kind":"file","content":%s}`, name, content)
		return nil
	case *Dir:
		fmt.Fprintf(buf, `{"name":%s,"kind":"dir","entries":{`, name)
		for i, childName := range v.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(childName)
			if err != nil {
				return fmt.Errorf("vfs: encode entry name: %w", err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeEntry(buf, v.children[childName]); err != nil {
				return err
			}
		}
		buf.WriteString("}}")
		return nil
	default:
		return fmt.Errorf("vfs: cannot encode entry of kind %q", e.Kind())
	}
}

// UnmarshalRecord decodes a persisted record into a fresh tree. The
// decoder is strict: unknown fields, unknown kinds, duplicate entry
// names and shape mismatches (a file with entries, a directory with
// content) are errors, never silent corruption. The returned tree
// satisfies all structural invariants and is ready to be merged onto a
// live root with Adopt.
func UnmarshalRecord(data []byte) (*Dir, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	e, err := decodeEntry(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("vfs: trailing data after record")
	}
	d, ok := e.(*Dir)
	if !ok {
		return nil, errors.New("vfs: record root is not a directory")
	}
	return d, nil
}

type childRecord struct {
	name  string
	entry Entry
}

func decodeEntry(dec *json.Decoder) (Entry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("vfs: record entry: %w", err)
	}

	var (
		name, kind            string
		haveName, haveKind    bool
		content               []byte
		haveContent, haveKids bool
		kids                  []childRecord
	)

	for dec.More() {
		key, err := decodeString(dec)
		if err != nil {
			return nil, fmt.Errorf("vfs: record field name: %w", err)
		}
		switch key {
		case "name":
			if name, err = decodeString(dec); err != nil {
				return nil, fmt.Errorf("vfs: record name: %w", err)
			}
			haveName = true
		case "kind":
			if kind, err = decodeString(dec); err != nil {
				return nil, fmt.Errorf("vfs: record kind: %w", err)
			}
			haveKind = true
		case "content":
			raw, err := decodeString(dec)
			if err != nil {
				return nil, fmt.Errorf("vfs: record content: %w", err)
			}
			if content, err = base64.StdEncoding.DecodeString(raw); err != nil {
				return nil, fmt.Errorf("vfs: record content: %w", err)
			}
			haveContent = true
		case "entries":
			if kids, err = decodeChildren(dec); err != nil {
				return nil, err
			}
			haveKids = true
		default:
			return nil, fmt.Errorf("vfs: unknown record field %q", key)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("vfs: record entry: %w", err)
	}

	if !haveName || !haveKind {
		return nil, errors.New("vfs: record entry missing name or kind")
	}

	switch kind {
	case "file":
		if haveKids {
			return nil, fmt.Errorf("vfs: file record %q carries entries", name)
		}
		return NewFile(name, content), nil
	case "dir":
		if haveContent {
			return nil, fmt.Errorf("vfs: dir record %q carries content", name)
		}
		d := NewDir(name)
		for _, kid := range kids {
			if !d.AddEntryAs(kid.name, kid.entry) {
				return nil, fmt.Errorf("vfs: duplicate entry %q in dir record %q", kid.name, name)
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("vfs: unknown record kind %q", kind)
	}
}

func decodeChildren(dec *json.Decoder) ([]childRecord, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("vfs: record entries: %w", err)
	}
	var kids []childRecord
	for dec.More() {
		name, err := decodeString(dec)
		if err != nil {
			return nil, fmt.Errorf("vfs: record entry name: %w", err)
		}
		e, err := decodeEntry(dec)
		if err != nil {
			return nil, err
		}
		kids = append(kids, childRecord{name: name, entry: e})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("vfs: record entries: %w", err)
	}
	return kids, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func decodeString(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", tok)
	}
	return s, nil
}
