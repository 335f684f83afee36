package cursor

import (
	"context"
	"slices"

	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

// LookupAllByKey returns every entry matching keys. It uses the atomic find
// and read when the backend can, falls back to positioning plus reads when
// it cannot or misreports, and restarts from scratch if the index changes.
func (e *Engine) LookupAllByKey(ctx context.Context, flags lookup.FindFlags, mask lookup.ReadMask, decodeColumns []bool, keys ...summary.Value) ([]lookup.ViewEntry, error) {
	encoded, err := encodeKeys(keys)
	if err != nil {
		return nil, err
	}

	atomic := e.CanUseAtomicLookup(mask)

	entries, err := retry(ctx, e, "lookup", func() ([]lookup.ViewEntry, bool, error) {
		if atomic {
			entries, conflict, fallback, err := e.lookupAtomic(ctx, encoded, flags, mask, decodeColumns)
			if err != nil || conflict || fallback == "" {
				return entries, conflict, err
			}
			e.metrics.Fallback(fallback)
			e.logger.Debug("atomic lookup misreported, reading in two steps", "reason", fallback)
		} else {
			e.metrics.Fallback("unsupported")
		}
		return e.lookupTwoStep(ctx, encoded, flags, mask, decodeColumns)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Entries("lookup", len(entries))
	return entries, nil
}

// lookupAtomic returns a non empty fallback reason when the answer cannot be
// trusted.
func (e *Engine) lookupAtomic(ctx context.Context, encoded []byte, flags lookup.FindFlags, mask lookup.ReadMask, decodeColumns []bool) ([]lookup.ViewEntry, bool, string, error) {

	result, buffer, err := e.findAndRead(ctx, encoded, flags|lookup.AndReadMatches|lookup.ReturnDword, mask, decodeColumns)
	if err != nil || buffer == nil {
		return resultEntries(result), false, "", err
	}
	if result.HasStructuralConflict() {
		return nil, true, "", nil
	}

	if buffer.Returned == lookup.CountUnknown {
		return nil, false, "unknown_count", nil
	}
	if buffer.Returned > 0 && len(buffer.Data) == 0 {
		return nil, false, "empty_buffer", nil
	}

	entries := result.Entries
	if !result.HasMoreToDo() {
		return entries, false, "", nil
	}

	anchor, err := position.Decode(buffer.Position)
	if err != nil {
		return nil, false, "", translate("find and read", err)
	}

	more, conflict, err := e.readMatches(ctx, anchor, len(entries), buffer.Returned-len(entries), lastEqual(flags), mask, decodeColumns)
	if err != nil || conflict {
		return nil, conflict, "", err
	}
	return append(entries, more...), false, "", nil
}

func (e *Engine) lookupTwoStep(ctx context.Context, encoded []byte, flags lookup.FindFlags, mask lookup.ReadMask, decodeColumns []bool) ([]lookup.ViewEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	p, count, err := e.index.FindByKey(ctx, encoded, flags)
	found, err := e.findResult("find by key", p, count, flags, err)
	if err != nil {
		return nil, false, err
	}
	if !found.Found() {
		return []lookup.ViewEntry{}, false, nil
	}

	return e.readMatches(ctx, p, 0, found.Count, lastEqual(flags), mask, decodeColumns)
}

// lastEqual reports whether a find positions on the last match instead of
// the first one.
func lastEqual(flags lookup.FindFlags) bool {
	return flags.Comparison()&^lookup.Equal == lookup.LastEqual
}

// readMatches reads remaining entries after the alreadyRead first matches,
// which start at anchor. A backward anchor is the last match: the remaining
// entries are read towards it from the end and returned in view order.
func (e *Engine) readMatches(ctx context.Context, anchor position.Position, alreadyRead, remaining int, backward bool, mask lookup.ReadMask, decodeColumns []bool) ([]lookup.ViewEntry, bool, error) {
	entries := []lookup.ViewEntry{}
	from, skip := anchor, alreadyRead
	nav := navigate.NextNonCategory
	if backward {
		skip, nav = 0, navigate.PrevNonCategory
	}

	for remaining > 0 {
		result, err := e.read(ctx, "lookup", from, nav, skip, nav, remaining, mask, decodeColumns)
		if err != nil {
			return nil, false, err
		}
		if result.HasStructuralConflict() {
			return nil, true, nil
		}
		if len(result.Entries) == 0 {
			break
		}

		if len(result.Entries) > remaining {
			result.Entries = result.Entries[:remaining]
		}
		entries = append(entries, result.Entries...)
		remaining -= len(result.Entries)
		from, skip = result.Cursor, 1
	}

	if backward {
		slices.Reverse(entries)
	}
	return entries, false, nil
}

// IdsByKey returns the note ids of every entry matching keys.
func (e *Engine) IdsByKey(ctx context.Context, flags lookup.FindFlags, keys ...summary.Value) ([]uint32, error) {
	entries, err := e.LookupAllByKey(ctx, flags, lookup.ReadNoteID, nil, keys...)
	if err != nil {
		return nil, err
	}
	return noteIDs(entries), nil
}

func resultEntries(result *lookup.LookupResult) []lookup.ViewEntry {
	if result == nil {
		return nil
	}
	return result.Entries
}
