package cursor

import (
	"context"

	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/position"
)

type ScanRequest struct {
	// Start is a position; empty means before the first entry.
	Start string
	// Skip is applied once, on the first read.
	Skip      int
	Direction navigate.Direction
	// Count is the number of accepted entries wanted; negative means all.
	Count         int
	BatchSize     int
	Mask          lookup.ReadMask
	DecodeColumns []bool
	Predicate     func(entry lookup.ViewEntry) bool
}

// Scan reads entries from Start walking Direction until Count entries pass
// Predicate or the index has nothing more. If the index changes structurally
// while scanning, the scan starts over.
func (e *Engine) Scan(ctx context.Context, req ScanRequest) ([]lookup.ViewEntry, error) {
	if req.Count == 0 {
		return []lookup.ViewEntry{}, nil
	}

	text := req.Start
	if text == "" {
		text = position.Start
	}
	start, err := position.Decode(text)
	if err != nil {
		return nil, invalidArgument("start: %s", err)
	}
	if req.Skip < 0 {
		return nil, invalidArgument("negative skip %d", req.Skip)
	}
	if !req.Direction.Valid() {
		return nil, invalidArgument("direction %s", req.Direction)
	}

	batch := req.BatchSize
	if batch <= 0 {
		batch = e.options.BatchSize
	}

	entries, err := retry(ctx, e, "scan", func() ([]lookup.ViewEntry, bool, error) {
		return e.scan(ctx, start, req, batch)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Entries("scan", len(entries))
	return entries, nil
}

func (e *Engine) scan(ctx context.Context, start position.Position, req ScanRequest, batch int) ([]lookup.ViewEntry, bool, error) {
	entries := []lookup.ViewEntry{}
	from, skip := start, req.Skip

	for {
		want := batch
		if req.Count > 0 {
			remaining := req.Count - len(entries)
			if want <= 0 || remaining < want {
				want = remaining
			}
		}

		result, err := e.read(ctx, "scan", from, req.Direction, skip, req.Direction, want, req.Mask, req.DecodeColumns)
		if err != nil {
			return nil, false, err
		}
		if result.HasStructuralConflict() {
			return nil, true, nil
		}

		for _, entry := range result.Entries {
			if req.Predicate != nil && !req.Predicate(entry) {
				continue
			}
			entries = append(entries, entry)
			if req.Count > 0 && len(entries) >= req.Count {
				return entries, false, nil
			}
		}

		if !result.HasMoreToDo() || len(result.Entries) == 0 {
			return entries, false, nil
		}
		from, skip = result.Cursor, 1
	}
}

// AllIds returns the note id of every entry, in index order.
func (e *Engine) AllIds(ctx context.Context, includeCategories bool) ([]uint32, error) {
	direction := navigate.NextNonCategory
	if includeCategories {
		direction = navigate.Next
	}

	entries, err := e.Scan(ctx, ScanRequest{
		Start:     position.Start,
		Skip:      1,
		Direction: direction,
		Count:     -1,
		Mask:      lookup.ReadNoteID,
	})
	if err != nil {
		return nil, err
	}

	return noteIDs(entries), nil
}

func noteIDs(entries []lookup.ViewEntry) []uint32 {
	ids := make([]uint32, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.NoteID)
	}
	return ids
}
