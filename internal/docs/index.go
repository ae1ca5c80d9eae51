package docs

import (
	"strings"
)

// DocKind disambiguates identifiers that collide across kinds, such as a
// function and a constant with the same name.
type DocKind string

const (
	KindConstant DocKind = "constant"
	KindFunction DocKind = "function"
	KindCallback DocKind = "callback"
	KindAlias    DocKind = "alias"
	KindClass    DocKind = "class" // class, interface, record, union
	KindEnum     DocKind = "enum"  // enumeration, bitfield
	KindMethod   DocKind = "method"
	KindProperty DocKind = "property"
	KindSignal   DocKind = "signal"
	KindField    DocKind = "field"
	KindMember   DocKind = "member"
)

// Key addresses one documented identifier. Nested names are
// "Owner.member", "Owner:property" and "Owner::signal".
type Key struct {
	Kind DocKind
	Name string
}

// Entry is the documentation of one identifier, already translated.
type Entry struct {
	Text       string
	Params     map[string]string
	Return     string
	Deprecated string
}

func (e Entry) empty() bool {
	return e.Text == "" && e.Return == "" && e.Deprecated == "" && len(e.Params) == 0
}

// Index maps identifiers to documentation. A nil *Index is a valid empty
// index.
type Index struct {
	Namespace string
	entries   map[Key]Entry
}

// NewIndex creates an empty index.
func NewIndex(namespace string) *Index {
	return &Index{Namespace: namespace, entries: make(map[Key]Entry)}
}

func (ix *Index) put(kind DocKind, name string, e Entry) {
	ix.entries[Key{Kind: kind, Name: name}] = e
}

// Lookup returns the entry for an identifier. Enum member names match
// case-insensitively since GIR spells them in lower case.
func (ix *Index) Lookup(kind DocKind, name string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	if kind == KindMember {
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[:i+1] + strings.ToUpper(name[i+1:])
		}
	}
	e, ok := ix.entries[Key{Kind: kind, Name: name}]
	return e, ok
}

// Text returns the doc text of an identifier, or "".
func (ix *Index) Text(kind DocKind, name string) string {
	e, _ := ix.Lookup(kind, name)
	return e.Text
}

// Len returns the number of documented identifiers.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}
