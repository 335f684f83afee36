package lookup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

var ErrCorruptBuffer = errors.New("corrupt lookup buffer")

// EntryWriter serializes entries into a bounded lookup buffer. Fields are
// written in ReadMask bit order; only the fields selected by the mask appear.
type EntryWriter struct {
	mask  ReadMask
	limit int
	buf   []byte
	count int
}

// NewEntryWriter creates a writer for the given mask. A limit <= 0 means no
// limit.
func NewEntryWriter(mask ReadMask, limit int) *EntryWriter {
	return &EntryWriter{
		mask:  mask,
		limit: limit,
	}
}

// Write appends e. It returns false, leaving the buffer untouched, when e does
// not fit. The first entry is always accepted so a read never stalls on one
// oversized row.
func (w *EntryWriter) Write(e *ViewEntry) (bool, error) {
	start := len(w.buf)
	buf, err := appendEntry(w.buf, w.mask, e)
	if err != nil {
		return false, err
	}
	if w.limit > 0 && w.count > 0 && len(buf) > w.limit {
		w.buf = buf[:start]
		return false, nil
	}
	w.buf = buf
	w.count++
	return true, nil
}

func (w *EntryWriter) Bytes() []byte {
	return w.buf
}

// Count is the number of entries written so far.
func (w *EntryWriter) Count() int {
	return w.count
}

func appendEntry(buf []byte, mask ReadMask, e *ViewEntry) ([]byte, error) {
	le := binary.LittleEndian

	if mask.Has(ReadNoteID) {
		buf = le.AppendUint32(buf, e.NoteID)
	}
	if mask.Has(ReadUNID) {
		var id uuid.UUID
		if e.UNID != "" {
			parsed, err := uuid.Parse(e.UNID)
			if err != nil {
				return nil, fmt.Errorf("unid '%s': %w", e.UNID, err)
			}
			id = parsed
		}
		buf = append(buf, id[:]...)
	}
	if mask.Has(ReadPosition) {
		components := e.Position.Components()
		buf = le.AppendUint16(buf, uint16(len(components)))
		for _, c := range components {
			buf = le.AppendUint32(buf, c)
		}
	}
	if mask.Has(ReadFlags) {
		buf = le.AppendUint16(buf, uint16(e.Flags))
	}
	if mask.Has(ReadUnread) {
		var unread byte
		if e.Unread {
			unread = 1
		}
		buf = append(buf, unread)
	}
	if mask.Has(ReadChildCount) {
		buf = le.AppendUint32(buf, e.ChildCount)
	}
	if mask.Has(ReadDescendantCount) {
		buf = le.AppendUint32(buf, e.DescendantCount)
	}
	if mask.Has(ReadSiblingCount) {
		buf = le.AppendUint32(buf, e.SiblingCount)
	}
	if mask.Has(ReadIndentLevel) {
		buf = le.AppendUint16(buf, e.Indent)
	}
	if mask.Has(ReadModified) {
		var nanos int64
		if !e.Modified.IsZero() {
			nanos = e.Modified.UnixNano()
		}
		buf = le.AppendUint64(buf, uint64(nanos))
	}
	if mask.Has(ReadSummary) {
		buf = le.AppendUint16(buf, uint16(len(e.Columns)))
		var err error
		for _, c := range e.Columns {
			buf = le.AppendUint16(buf, uint16(len(c.Name)))
			buf = append(buf, c.Name...)
			buf, err = summary.AppendValue(buf, c.Value)
			if err != nil {
				return nil, fmt.Errorf("column '%s': %w", c.Name, err)
			}
		}
	}

	return buf, nil
}

// Decode parses up to returned entries from buf. Column i is skipped, and
// left out of Columns, when decodeColumns[i] is false. A nil or short
// decodeColumns decodes the remaining columns.
func Decode(buf []byte, returned int, mask ReadMask, decodeColumns []bool) ([]ViewEntry, error) {
	entries := []ViewEntry{}
	for len(buf) > 0 && len(entries) < returned {
		var (
			entry ViewEntry
			err   error
		)
		buf, err = decodeEntry(buf, mask, decodeColumns, &entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = ErrCorruptBuffer
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func decodeEntry(buf []byte, mask ReadMask, decodeColumns []bool, e *ViewEntry) ([]byte, error) {
	r := &reader{buf: buf}

	if mask.Has(ReadNoteID) {
		e.NoteID = r.u32()
	}
	if mask.Has(ReadUNID) {
		if b := r.take(16); b != nil {
			id, _ := uuid.FromBytes(b)
			if id != uuid.Nil {
				e.UNID = id.String()
			}
		}
	}
	if mask.Has(ReadPosition) {
		n := int(r.u16())
		if n == 0 || n > position.MaxDepth {
			return nil, fmt.Errorf("%w: position depth %d", ErrCorruptBuffer, n)
		}
		components := make([]uint32, n)
		for i := range components {
			components[i] = r.u32()
		}
		e.Position = position.New(components...)
	}
	if mask.Has(ReadFlags) {
		e.Flags = EntryFlags(r.u16())
	}
	if mask.Has(ReadUnread) {
		if b := r.take(1); b != nil {
			e.Unread = b[0] != 0
		}
	}
	if mask.Has(ReadChildCount) {
		e.ChildCount = r.u32()
	}
	if mask.Has(ReadDescendantCount) {
		e.DescendantCount = r.u32()
	}
	if mask.Has(ReadSiblingCount) {
		e.SiblingCount = r.u32()
	}
	if mask.Has(ReadIndentLevel) {
		e.Indent = r.u16()
	}
	if mask.Has(ReadModified) {
		if nanos := int64(r.u64()); nanos != 0 {
			e.Modified = time.Unix(0, nanos).UTC()
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	if mask.Has(ReadSummary) {
		n := int(r.u16())
		e.Columns = make([]Column, 0, n)
		for i := 0; i < n; i++ {
			name := string(r.take(int(r.u16())))
			if r.err != nil {
				return nil, r.err
			}

			if i < len(decodeColumns) && !decodeColumns[i] {
				var err error
				r.buf, err = summary.SkipValue(r.buf)
				if err != nil {
					return nil, fmt.Errorf("column '%s': %w", name, err)
				}
				continue
			}

			column := Column{Name: name}
			var err error
			column.Value, r.buf, err = summary.ReadValue(r.buf)
			if err != nil {
				return nil, fmt.Errorf("column '%s': %w", name, err)
			}
			e.Columns = append(e.Columns, column)
		}
	}

	return r.buf, r.err
}

// ReadBuffer is the raw answer of a backend read or atomic find: encoded
// entries plus the counters reported next to them.
type ReadBuffer struct {
	Data     []byte
	Skipped  int
	Returned int
	Signal   Signal
	Sequence uint32
	Position string
	Cursor   position.Position
}

// Decode turns the buffer into a LookupResult. A negative Returned (count
// unknown) decodes nothing.
func (b *ReadBuffer) Decode(mask ReadMask, decodeColumns []bool) (*LookupResult, error) {
	entries, err := Decode(b.Data, b.Returned, mask, decodeColumns)
	if err != nil {
		return nil, err
	}
	return &LookupResult{
		Entries:  entries,
		Skipped:  b.Skipped,
		Returned: b.Returned,
		Signal:   b.Signal,
		Sequence: b.Sequence,
		Position: b.Position,
		Cursor:   b.Cursor,
	}, nil
}
