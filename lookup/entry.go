package lookup

import (
	"strings"
	"time"

	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

// CategoryBit is set on the note id of synthetic category rows.
const CategoryBit = 0x80000000

type Column struct {
	Name  string        `json:"name"`
	Value summary.Value `json:"-"`
}

// ViewEntry is one row of a collection. Only the fields selected by the read
// mask are filled.
type ViewEntry struct {
	NoteID          uint32            `json:"noteId,omitempty"`
	UNID            string            `json:"unid,omitempty"`
	Position        position.Position `json:"position"`
	Flags           EntryFlags        `json:"flags,omitempty"`
	Unread          bool              `json:"unread,omitempty"`
	ChildCount      uint32            `json:"childCount,omitempty"`
	DescendantCount uint32            `json:"descendantCount,omitempty"`
	SiblingCount    uint32            `json:"siblingCount,omitempty"`
	Indent          uint16            `json:"indent,omitempty"`
	Modified        time.Time         `json:"modified,omitempty"`
	Columns         []Column          `json:"-"`
}

func (e *ViewEntry) IsCategory() bool {
	return e.Flags.Has(EntryCategory) || e.NoteID&CategoryBit != 0
}

// Column returns the value of the named column, case insensitive.
func (e *ViewEntry) Column(name string) (summary.Value, bool) {
	for _, c := range e.Columns {
		if strings.EqualFold(c.Name, name) {
			return c.Value, true
		}
	}
	return summary.None(), false
}

// Values exposes the decoded columns as plain Go values keyed by column name.
func (e *ViewEntry) Values() map[string]interface{} {
	result := make(map[string]interface{}, len(e.Columns))
	for _, c := range e.Columns {
		result[c.Name] = c.Value.Interface()
	}
	return result
}

// LookupResult is the outcome of one read or one atomic find-and-read.
//
// Returned is what the backend claims to have returned; for an atomic find it
// is the total number of matches, so len(Entries) <= Returned always holds.
type LookupResult struct {
	Entries  []ViewEntry
	Skipped  int
	Returned int
	Signal   Signal
	Sequence uint32
	// Position of the first match, only set by positioning calls.
	Position string
	// Cursor is where the read stopped: the last entry it returned, or the
	// start position when nothing was returned.
	Cursor position.Position
}

func (r *LookupResult) HasMoreToDo() bool {
	return r.Signal.HasMoreToDo()
}

func (r *LookupResult) HasStructuralConflict() bool {
	return r.Signal.HasStructuralConflict()
}

// CountUnknown is reported by positioning calls that could not count matches.
const CountUnknown = -1

type FindResult struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
	Exact    bool   `json:"exact"`
}

// Found reports whether the find positioned on at least one match.
func (r FindResult) Found() bool {
	return r.Position != "" && r.Count != 0
}
