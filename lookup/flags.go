// Package lookup defines the wire vocabulary shared by a collection backend and
// the cursor engine: what a read returns (masks, entries, signals) and how a
// positioning call compares keys (find flags, status codes).
package lookup

import (
	"fmt"
	"strings"
)

// ReadMask selects which fields of every entry a read returns.
type ReadMask uint32

const (
	ReadNoteID ReadMask = 1 << iota
	ReadUNID
	ReadPosition
	ReadFlags
	ReadUnread
	ReadChildCount
	ReadDescendantCount
	ReadSiblingCount
	ReadIndentLevel
	ReadModified
	ReadSummary
)

// AtomicMask is the only set of fields an atomic find-and-read may request.
const AtomicMask = ReadNoteID | ReadSummary

var maskNames = []struct {
	mask ReadMask
	name string
}{
	{ReadNoteID, "noteId"},
	{ReadUNID, "unid"},
	{ReadPosition, "position"},
	{ReadFlags, "flags"},
	{ReadUnread, "unread"},
	{ReadChildCount, "childCount"},
	{ReadDescendantCount, "descendantCount"},
	{ReadSiblingCount, "siblingCount"},
	{ReadIndentLevel, "indentLevel"},
	{ReadModified, "modified"},
	{ReadSummary, "summary"},
}

func (m ReadMask) Has(flag ReadMask) bool {
	return m&flag == flag
}

// Within reports whether every bit of m is also set in allowed.
func (m ReadMask) Within(allowed ReadMask) bool {
	return m&^allowed == 0
}

func (m ReadMask) String() string {
	parts := []string{}
	for _, n := range maskNames {
		if m.Has(n.mask) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseMask builds a mask from field names as returned by String.
func ParseMask(names ...string) (ReadMask, error) {
	var m ReadMask
next:
	for _, name := range names {
		for _, n := range maskNames {
			if strings.EqualFold(n.name, name) {
				m |= n.mask
				continue next
			}
		}
		return 0, fmt.Errorf("unknown read field '%s'", name)
	}
	return m, nil
}

// FindFlags select how a positioning call compares the key with the index.
// The zero value is FirstEqual.
type FindFlags uint16

const (
	FirstEqual  FindFlags = 0x0000
	ReturnDword FindFlags = 0x0004
	LessThan    FindFlags = 0x0040
	LastEqual   FindFlags = 0x0080
	GreaterThan FindFlags = 0x00C0
	// Equal turns LessThan and GreaterThan into their or-equal variants.
	Equal          FindFlags = 0x0800
	AndReadMatches FindFlags = 0x2000

	compareMask = 0x08C0
)

func (f FindFlags) Has(flag FindFlags) bool {
	return f&flag == flag
}

// Comparison strips the modifier bits, leaving one of FirstEqual, LastEqual,
// LessThan, GreaterThan, optionally or'ed with Equal.
func (f FindFlags) Comparison() FindFlags {
	return f & compareMask
}

// Inequality reports strict or or-equal LessThan and GreaterThan searches.
func (f FindFlags) Inequality() bool {
	c := f.Comparison() &^ Equal
	return c == LessThan || c == GreaterThan
}

// CanCountExactly is false for inequality searches: the backend only reports
// that there is at least one match.
func (f FindFlags) CanCountExactly() bool {
	return !f.Inequality()
}

func (f FindFlags) String() string {
	var name string
	switch f.Comparison() &^ Equal {
	case FirstEqual:
		name = "firstEqual"
	case LastEqual:
		name = "lastEqual"
	case LessThan:
		name = "lessThan"
	case GreaterThan:
		name = "greaterThan"
	}
	if f.Has(Equal) && f.Inequality() {
		name += "|equal"
	}
	if f.Has(AndReadMatches) {
		name += "|andReadMatches"
	}
	if f.Has(ReturnDword) {
		name += "|returnDword"
	}
	return name
}

// ParseFindFlags accepts "firstEqual", "lastEqual", "lessThan", "greaterThan",
// "lessOrEqual" and "greaterOrEqual". Empty means FirstEqual.
func ParseFindFlags(name string) (FindFlags, error) {
	switch strings.ToLower(name) {
	case "", "firstequal":
		return FirstEqual, nil
	case "lastequal":
		return LastEqual, nil
	case "lessthan":
		return LessThan, nil
	case "greaterthan":
		return GreaterThan, nil
	case "lessorequal":
		return LessThan | Equal, nil
	case "greaterorequal":
		return GreaterThan | Equal, nil
	}
	return FirstEqual, fmt.Errorf("unknown find mode '%s'", name)
}

// Signal is the bit set every read reports next to its data.
type Signal uint16

const (
	SignalDefnItemModified   Signal = 0x0001
	SignalViewConfigModified Signal = 0x0002
	SignalIndexModified      Signal = 0x0004
	SignalUnreadModified     Signal = 0x0008
	SignalDatabaseModified   Signal = 0x0010
	SignalMoreToDo           Signal = 0x0020
	SignalTimeRelative       Signal = 0x0040
	SignalNotSupported       Signal = 0x0080

	// AnyStructuralConflict groups the bits that invalidate positions.
	AnyStructuralConflict = SignalDefnItemModified | SignalViewConfigModified | SignalIndexModified
)

func (s Signal) Has(flag Signal) bool {
	return s&flag == flag
}

func (s Signal) HasStructuralConflict() bool {
	return s&AnyStructuralConflict != 0
}

func (s Signal) HasMoreToDo() bool {
	return s.Has(SignalMoreToDo)
}

// EntryFlags mark what kind of row an entry is.
type EntryFlags uint16

const (
	EntryCategory EntryFlags = 1 << iota
	EntryResponse
	EntryConflict
	EntryHasChildren
)

func (f EntryFlags) Has(flag EntryFlags) bool {
	return f&flag == flag
}
