package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

var ErrSearchActive = errors.New("a full text search is already active")

// Handle is an open view of a collection. It remembers the index sequence it
// last synchronized with and reports IndexModified until Update is called.
//
// A Handle is not safe for concurrent use.
type Handle struct {
	collection *Collection
	collation  int
	seen       uint32
	closed     bool

	selected  map[uint32]bool
	unread    map[uint32]bool
	collapsed map[uint32]bool
	hits      map[uint32]struct{} // nil when no search is active
}

func (c *Collection) OpenHandle() *Handle {
	return &Handle{
		collection: c,
		seen:       c.Sequence(),
		selected:   map[uint32]bool{},
		unread:     map[uint32]bool{},
		collapsed:  map[uint32]bool{},
	}
}

func (h *Handle) isSelected(noteID uint32) bool {
	return h.selected[noteID]
}

func (h *Handle) isUnread(noteID uint32) bool {
	return h.unread[noteID]
}

func (h *Handle) isCollapsed(noteID uint32) bool {
	return h.collapsed[noteID]
}

func (h *Handle) isHit(noteID uint32) bool {
	_, ok := h.hits[noteID]
	return ok
}

func (h *Handle) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.closed {
		return lookup.NewStatusError(lookup.StatusInvalidHandle, "")
	}
	return nil
}

// snapshot returns the current layout and the signal a read on it carries.
func (h *Handle) snapshot() (*layout, lookup.Signal) {
	l := h.collection.layout(h.collation)
	signal := lookup.Signal(0)
	if l.sequence != h.seen {
		signal |= lookup.SignalIndexModified
	}
	return l, signal
}

// ReadEntries moves skip times from start with skipNav, then returns up to
// count entries (count <= 0 means as many as fit) walking with returnNav.
func (h *Handle) ReadEntries(ctx context.Context, start position.Position, skipNav navigate.Direction, skip int,
	returnNav navigate.Direction, count int, mask lookup.ReadMask) (*lookup.ReadBuffer, error) {

	if err := h.check(ctx); err != nil {
		return nil, err
	}

	l, signal := h.snapshot()
	result := &lookup.ReadBuffer{
		Signal:   signal,
		Sequence: l.sequence,
		Cursor:   start,
	}

	c := cursor{}
	c.index, c.between = l.locate(start)
	c.between = !c.between

	first := returnNav
	if skip > 0 {
		first = skipNav
	}
	if start.IsStart() && navigate.ScopeOf(first).Backward {
		c.index = len(l.nodes)
	}

	for result.Skipped < skip {
		next, ok := l.move(c, skipNav, h)
		if !ok {
			return result, nil
		}
		c = next
		result.Skipped++
	}

	if c.between {
		next, ok := l.move(c, returnNav, h)
		if !ok {
			return result, nil
		}
		c = next
	}

	stay := navigate.ScopeOf(returnNav).Movement == navigate.Stay
	writer := lookup.NewEntryWriter(mask, h.collection.options.MaxBufferSize)
	for {
		ok, err := writer.Write(l.entry(c.index, h.collection.names, h.unread[l.nodes[c.index].noteID]))
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Signal |= lookup.SignalMoreToDo
			break
		}
		result.Returned++
		result.Cursor = l.nodes[c.index].pos
		if stay {
			break
		}

		next, more := l.move(c, returnNav, h)
		if !more {
			break
		}
		if count > 0 && result.Returned >= count {
			result.Signal |= lookup.SignalMoreToDo
			break
		}
		c = next
	}

	result.Data = writer.Bytes()
	return result, nil
}

// find returns the docs index to position on and the run of matches
// docs[first:first+count]. Strict comparisons match a single entry.
func (h *Handle) find(l *layout, keys []byte, flags lookup.FindFlags) (anchor, first, count int, err error) {

	values, err := summary.DecodeKeys(keys)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(values) > len(l.keys) {
		return 0, 0, 0, fmt.Errorf("%w: %d keys but the collation sorts by %d columns", summary.ErrInvalidKey, len(values), len(l.keys))
	}
	if len(l.docs) == 0 {
		return 0, 0, 0, lookup.NewStatusError(lookup.StatusNoDocuments, "")
	}

	lo, hi := l.matchRange(values)
	notFound := lookup.NewStatusError(lookup.StatusNotFound, "")

	switch flags.Comparison() {
	case lookup.FirstEqual, lookup.Equal:
		if lo == hi {
			return 0, 0, 0, notFound
		}
		return lo, lo, hi - lo, nil
	case lookup.LastEqual, lookup.LastEqual | lookup.Equal:
		if lo == hi {
			return 0, 0, 0, notFound
		}
		return hi - 1, lo, hi - lo, nil
	case lookup.LessThan:
		if lo == 0 {
			return 0, 0, 0, notFound
		}
		return lo - 1, lo - 1, 1, nil
	case lookup.LessThan | lookup.Equal:
		if hi == 0 {
			return 0, 0, 0, notFound
		}
		return hi - 1, hi - 1, 1, nil
	case lookup.GreaterThan:
		if hi == len(l.docs) {
			return 0, 0, 0, notFound
		}
		return hi, hi, 1, nil
	case lookup.GreaterThan | lookup.Equal:
		if lo == len(l.docs) {
			return 0, 0, 0, notFound
		}
		return lo, lo, 1, nil
	}

	return 0, 0, 0, lookup.NewStatusError(lookup.StatusUnsupportedFlags, flags.String())
}

// FindByKey positions on the main document matching keys. It returns that
// position and the number of matches, which for strict comparisons is 1.
func (h *Handle) FindByKey(ctx context.Context, keys []byte, flags lookup.FindFlags) (position.Position, int, error) {
	if err := h.check(ctx); err != nil {
		return position.Position{}, 0, err
	}

	l, _ := h.snapshot()
	anchor, _, count, err := h.find(l, keys, flags)
	if err != nil {
		return position.Position{}, 0, err
	}
	return l.nodes[l.docs[anchor]].pos, count, nil
}

// FindByName finds on the first sorted column.
func (h *Handle) FindByName(ctx context.Context, name string, flags lookup.FindFlags) (position.Position, int, error) {
	keys, err := summary.EncodeKeys(summary.Text(name))
	if err != nil {
		return position.Position{}, 0, err
	}
	return h.FindByKey(ctx, keys, flags)
}

// FindByKeyExtended2 positions and, with AndReadMatches, reads the matching
// entries in the same call, always in view order. Returned is the number of
// matches even when the buffer holds fewer entries. Position is the find
// position, the last match for LastEqual.
func (h *Handle) FindByKeyExtended2(ctx context.Context, keys []byte, flags lookup.FindFlags, mask lookup.ReadMask) (*lookup.ReadBuffer, error) {
	if err := h.check(ctx); err != nil {
		return nil, err
	}
	if !mask.Within(lookup.AtomicMask) {
		return nil, lookup.NewStatusError(lookup.StatusUnsupportedFlags, "read mask "+mask.String())
	}

	l, signal := h.snapshot()
	anchor, first, count, err := h.find(l, keys, flags)
	if err != nil {
		return nil, err
	}

	start := l.nodes[l.docs[anchor]].pos
	result := &lookup.ReadBuffer{
		Returned: count,
		Signal:   signal,
		Sequence: l.sequence,
		Position: start.String(),
		Cursor:   start,
	}

	if !flags.Has(lookup.AndReadMatches) {
		return result, nil
	}

	writer := lookup.NewEntryWriter(mask, h.collection.options.MaxBufferSize)
	for _, i := range l.docs[first : first+count] {
		ok, err := writer.Write(l.entry(i, h.collection.names, false))
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Signal |= lookup.SignalMoreToDo
			break
		}
		result.Cursor = l.nodes[i].pos
	}
	result.Data = writer.Bytes()

	switch h.collection.options.Quirk {
	case QuirkUnknownCount:
		result.Returned = lookup.CountUnknown
	case QuirkEmptyBuffer:
		result.Data = nil
	}

	return result, nil
}

// Update synchronizes the handle with the current index.
func (h *Handle) Update(ctx context.Context) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	h.seen = h.collection.Sequence()
	return nil
}

// Sequence returns the current index sequence, without synchronizing.
func (h *Handle) Sequence(ctx context.Context) (uint32, error) {
	if err := h.check(ctx); err != nil {
		return 0, err
	}
	return h.collection.Sequence(), nil
}

func (h *Handle) LocateNote(ctx context.Context, noteID uint32) (position.Position, error) {
	if err := h.check(ctx); err != nil {
		return position.Position{}, err
	}
	l, _ := h.snapshot()
	i, ok := l.byNoteID[noteID]
	if !ok {
		return position.Position{}, lookup.NewStatusError(lookup.StatusNotFound, fmt.Sprintf("note %d", noteID))
	}
	return l.nodes[i].pos, nil
}

func (h *Handle) Collations() *collation.Map {
	return h.collection.collations
}

func (h *Handle) Collation(ctx context.Context) (int, error) {
	if err := h.check(ctx); err != nil {
		return 0, err
	}
	return h.collation, nil
}

func (h *Handle) SetCollation(ctx context.Context, slot int) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	if slot != 0 {
		_, err := h.collection.collations.SortItem(slot)
		if err != nil {
			return err
		}
	}
	h.collation = slot
	return nil
}

func (h *Handle) BuildVersion() uint16 {
	return h.collection.options.BuildVersion
}

// FTSearch runs a full text search and keeps its hits, in view order and at
// most limit of them (limit <= 0 means all), for the hit directions.
func (h *Handle) FTSearch(ctx context.Context, query string, limit int) (int, error) {
	if err := h.check(ctx); err != nil {
		return 0, err
	}
	if h.hits != nil {
		return 0, ErrSearchActive
	}

	h.collection.mutex.RLock()
	matches := h.collection.fulltext.Match(query)
	h.collection.mutex.RUnlock()

	l, _ := h.snapshot()
	hits := map[uint32]struct{}{}
	for _, n := range l.nodes {
		if limit > 0 && len(hits) >= limit {
			break
		}
		if _, ok := matches[n.noteID]; ok && !n.category {
			hits[n.noteID] = struct{}{}
		}
	}

	if len(hits) == 0 {
		return 0, lookup.NewStatusError(lookup.StatusNoFTMatches, query)
	}

	h.hits = hits
	return len(hits), nil
}

func (h *Handle) CloseSearch(ctx context.Context) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	h.hits = nil
	return nil
}

func (h *Handle) SetSelected(noteID uint32, selected bool) {
	h.selected[noteID] = selected
}

func (h *Handle) SetUnread(noteID uint32, unread bool) {
	h.unread[noteID] = unread
}

func (h *Handle) SetCollapsed(noteID uint32, collapsed bool) {
	h.collapsed[noteID] = collapsed
}

// LoadDocuments gives access to the documents behind the entries.
func (h *Handle) LoadDocuments(ctx context.Context, ids []uint32) (map[uint32]map[string]interface{}, error) {
	if err := h.check(ctx); err != nil {
		return nil, err
	}
	return h.collection.LoadDocuments(ctx, ids)
}

// Close invalidates the handle. Further calls fail with StatusInvalidHandle.
func (h *Handle) Close() error {
	h.closed = true
	h.hits = nil
	return nil
}
