// Package fileref models the value of a file-bearing form field and decides
// what a save transmits for it.
//
// A slot holds nothing, a pending upload (bytes not yet transported) or a
// persisted reference (a file name the server already knows). An untouched
// slot always re-transmits its persisted reference; only an explicit Clear
// sends null.
package fileref

import "fmt"

// DefaultMaxListItems bounds list-valued slots such as directors' IDs.
const DefaultMaxListItems = 10

// Kind is the state of a slot value.
type Kind int

const (
	Empty Kind = iota
	Pending
	Persisted
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Persisted:
		return "persisted"
	default:
		return "empty"
	}
}

// Upload is a file picked by the user whose bytes have not been sent yet.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ref is one in-memory slot value.
type Ref struct {
	kind    Kind
	name    string
	upload  *Upload
	cleared bool
}

// None is the value of a slot the user never touched.
func None() Ref { return Ref{} }

// Cleared is the value of a slot the user explicitly emptied.
func Cleared() Ref { return Ref{cleared: true} }

// FromUpload wraps a pending upload.
func FromUpload(u Upload) Ref {
	cp := u
	return Ref{kind: Pending, name: u.Name, upload: &cp}
}

// FromPersisted wraps a reference already stored server side. An empty name
// yields None.
func FromPersisted(name string) Ref {
	if name == "" {
		return None()
	}
	return Ref{kind: Persisted, name: name}
}

func (r Ref) Kind() Kind { return r.kind }

// Name is the file name for pending and persisted values, "" otherwise.
func (r Ref) Name() string { return r.name }

// IsCleared reports an explicit removal, as opposed to "never touched".
func (r Ref) IsCleared() bool { return r.kind == Empty && r.cleared }

// Upload returns the pending upload, or nil.
func (r Ref) Upload() *Upload { return r.upload }

// Resolve returns the value a save transmits for a single slot given the
// in-memory value and the last known persisted reference. nil means null.
func Resolve(current Ref, persisted *string) *string {
	switch current.kind {
	case Pending, Persisted:
		name := current.name
		return &name
	}
	if current.cleared {
		return nil
	}
	if persisted != nil && *persisted != "" {
		p := *persisted
		return &p
	}
	return nil
}

// ResolveList applies Resolve element-wise to a list slot. When touched is
// false the persisted list is transmitted unchanged.
func ResolveList(items []Ref, touched bool, persisted []string) []string {
	out := make([]string, 0, len(items))
	if !touched {
		for _, p := range persisted {
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	for _, it := range items {
		if it.kind == Pending || it.kind == Persisted {
			out = append(out, it.name)
		}
	}
	return out
}

// CapWarning is returned, not raised, when additions to a list slot exceed
// its bound and the excess is discarded.
type CapWarning struct {
	Slot      string
	Max       int
	Discarded int
}

func (w *CapWarning) String() string {
	return fmt.Sprintf("%s accepts at most %d files; %d discarded", w.Slot, w.Max, w.Discarded)
}
