package media

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Form discriminates the payload variants.
type Form int

const (
	// FormBytes is an in-memory byte buffer.
	FormBytes Form = iota
	// FormFileRef is a reference to a file on disk.
	FormFileRef
	// FormRecord is a structured key-value record.
	FormRecord
	// FormList is an ordered collection of payloads.
	FormList
)

func (f Form) String() string {
	switch f {
	case FormBytes:
		return "bytes"
	case FormFileRef:
		return "file_ref"
	case FormRecord:
		return "record"
	case FormList:
		return "list"
	}
	return fmt.Sprintf("form(%d)", int(f))
}

// Payload is the value that flows along pipeline edges. Payloads are
// treated as immutable once produced; consumers read shared views and
// must not mutate them.
type Payload struct {
	form   Form
	kind   Kind
	data   []byte
	path   string
	record map[string]any
	items  []Payload
}

// Bytes wraps an in-memory buffer.
func Bytes(data []byte, kind Kind) Payload {
	return Payload{form: FormBytes, kind: kind, data: data}
}

// FileRef wraps a path reference to media on disk.
func FileRef(path string, kind Kind) Payload {
	return Payload{form: FormFileRef, kind: kind, path: path}
}

// Record wraps a structured result.
func Record(fields map[string]any, kind Kind) Payload {
	return Payload{form: FormRecord, kind: kind, record: fields}
}

// List wraps an ordered collection of payloads.
func List(items []Payload, kind Kind) Payload {
	return Payload{form: FormList, kind: kind, items: items}
}

// Form returns the payload variant.
func (p Payload) Form() Form { return p.form }

// Kind returns the media kind tag.
func (p Payload) Kind() Kind { return p.kind }

// Data returns the underlying buffer for FormBytes payloads.
// The returned slice is a shared view; callers must not mutate it.
func (p Payload) Data() []byte { return p.data }

// Path returns the file path for FormFileRef payloads.
func (p Payload) Path() string { return p.path }

// Fields returns the record for FormRecord payloads.
func (p Payload) Fields() map[string]any { return p.record }

// Items returns the members of a FormList payload.
func (p Payload) Items() []Payload { return p.items }

// IsZero reports whether p carries no value.
func (p Payload) IsZero() bool {
	return p.data == nil && p.path == "" && p.record == nil && p.items == nil
}

// ContentID derives a stable content identity for fingerprinting:
// bytes hash their content, file references combine path, size and
// modification time, records hash their canonical JSON encoding, and
// lists combine member identities.
func (p Payload) ContentID() (string, error) {
	switch p.form {
	case FormBytes:
		sum := sha256.Sum256(p.data)
		return "b:" + hex.EncodeToString(sum[:]), nil
	case FormFileRef:
		fi, err := os.Stat(p.path)
		if err != nil {
			return "", fmt.Errorf("media: stat %s: %w", p.path, err)
		}
		return fmt.Sprintf("f:%s|%d|%d", p.path, fi.Size(), fi.ModTime().UnixNano()), nil
	case FormRecord:
		enc, err := canonicalJSON(p.record)
		if err != nil {
			return "", fmt.Errorf("media: encoding record: %w", err)
		}
		sum := sha256.Sum256(enc)
		return "r:" + hex.EncodeToString(sum[:]), nil
	case FormList:
		ids := make([]string, 0, len(p.items))
		for _, item := range p.items {
			id, err := item.ContentID()
			if err != nil {
				return "", err
			}
			ids = append(ids, id)
		}
		sum := sha256.Sum256([]byte(strings.Join(ids, ";")))
		return "l:" + hex.EncodeToString(sum[:]), nil
	}
	return "", fmt.Errorf("media: unknown payload form %v", p.form)
}

// SizeEstimate returns an approximate in-memory footprint in bytes,
// used by the cache to track its budget.
func (p Payload) SizeEstimate() int {
	switch p.form {
	case FormBytes:
		return len(p.data)
	case FormFileRef:
		return len(p.path)
	case FormRecord:
		enc, err := json.Marshal(p.record)
		if err != nil {
			return 0
		}
		return len(enc)
	case FormList:
		total := 0
		for _, item := range p.items {
			total += item.SizeEstimate()
		}
		return total
	}
	return 0
}

// canonicalJSON encodes a record with sorted keys so equal records
// always produce equal bytes.
func canonicalJSON(fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(fields[k])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
