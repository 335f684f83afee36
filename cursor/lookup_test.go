package cursor

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/summary"
)

func TestFindByKey(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	Alternative("find", func(a *A) {

		a.Alternative("first equal", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result, lookup.FindResult{Position: "3", Count: 2, Exact: true})
		})

		a.Alternative("last equal", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.LastEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result, lookup.FindResult{Position: "4", Count: 2, Exact: true})
		})

		a.Alternative("less than is never exact", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.LessThan, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result.Position, "2")
			AssertTrue(result.Found())
			AssertFalse(result.Exact)
		})

		a.Alternative("greater than is never exact", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.GreaterThan, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result.Position, "5")
			AssertFalse(result.Exact)
		})

		a.Alternative("not found", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.FirstEqual, summary.Text("kiwi"))
			AssertNil(err)
			AssertFalse(result.Found())
			AssertEqual(result, lookup.FindResult{Count: 0, Exact: true})
		})

		a.Alternative("nothing greater", func(a *A) {
			result, err := e.FindByKey(ctx, lookup.GreaterThan, summary.Text("date"))
			AssertNil(err)
			AssertFalse(result.Found())
		})

		a.Alternative("no keys", func(a *A) {
			_, err := e.FindByKey(ctx, lookup.FirstEqual)
			AssertTrue(errors.Is(err, ErrInvalidArgument))
		})

		a.Alternative("too many keys", func(a *A) {
			_, err := e.FindByKey(ctx, lookup.FirstEqual, summary.Text("cherry"), summary.Int(2))
			AssertNotNil(err)
		})

		a.Alternative("by name", func(a *A) {
			result, err := e.FindByName(ctx, "date", lookup.FirstEqual)
			AssertNil(err)
			AssertEqual(result.Position, "5")

			_, err = e.FindByName(ctx, "", lookup.FirstEqual)
			AssertTrue(errors.Is(err, ErrInvalidArgument))
		})
	})
}

func TestFindByKey_Empty(t *testing.T) {

	c, _ := collection.Open("", fruitsDefinition(), collection.Options{})
	e, _ := newEngine(c, Options{})

	result, err := e.FindByKey(context.Background(), lookup.FirstEqual, summary.Text("cherry"))
	AssertNil(err)
	AssertFalse(result.Found())

	found, err := e.IdsByKey(context.Background(), lookup.FirstEqual, summary.Text("cherry"))
	AssertNil(err)
	AssertEqual(len(found), 0)
}

func TestFindByKeyExtended2(t *testing.T) {

	ctx := context.Background()

	Alternative("atomic find", func(a *A) {

		options := collection.Options{}
		mask := lookup.ReadNoteID

		a.Alternative("reads the matches", func(a *A) {
			e, _ := newEngine(fruits(options), Options{})
			result, err := e.FindByKeyExtended2(ctx, lookup.FirstEqual|lookup.AndReadMatches, mask, nil, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result.Returned, 2)
			AssertEqual(result.Position, "3")
			AssertEqual(ids(result.Entries), []uint32{12, 16})
		})

		a.Alternative("more matches than fit", func(a *A) {
			options.MaxBufferSize = 4
			e, _ := newEngine(fruits(options), Options{})
			result, err := e.FindByKeyExtended2(ctx, lookup.FirstEqual|lookup.AndReadMatches, mask, nil, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(result.Returned, 2)
			AssertEqual(ids(result.Entries), []uint32{12})
			AssertTrue(result.HasMoreToDo())
		})

		a.Alternative("mask out of reach", func(a *A) {
			e, p := newEngine(fruits(options), Options{})
			_, err := e.FindByKeyExtended2(ctx, lookup.FirstEqual, mask|lookup.ReadUNID, nil, summary.Text("cherry"))
			AssertTrue(errors.Is(err, ErrUnsupportedForArguments))
			AssertEqual(p.atomics, 0)
		})

		a.Alternative("old build", func(a *A) {
			options.BuildVersion = MinAtomicBuild - 1
			e, p := newEngine(fruits(options), Options{})
			AssertFalse(e.CanUseAtomicLookup(mask))
			_, err := e.FindByKeyExtended2(ctx, lookup.FirstEqual, mask, nil, summary.Text("cherry"))
			AssertTrue(errors.Is(err, ErrUnsupportedForArguments))
			AssertEqual(p.atomics, 0)
		})
	})
}

func TestLookupAllByKey(t *testing.T) {

	ctx := context.Background()

	Alternative("lookup", func(a *A) {

		options := collection.Options{}
		m := newMetrics()

		a.Alternative("in one call", func(a *A) {
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 1)
			AssertEqual(p.finds, 0)
			AssertEqual(p.reads, 0)
		})

		a.Alternative("continuing after a full buffer", func(a *A) {
			options.MaxBufferSize = 4
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 1)
			AssertEqual(p.reads, 1)
		})

		a.Alternative("misreported count", func(a *A) {
			options.Quirk = collection.QuirkUnknownCount
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.finds, 1)
			AssertEqual(counterValue(m.FallbacksTotal.WithLabelValues("unknown_count")), 1.0)
		})

		a.Alternative("empty buffer", func(a *A) {
			options.Quirk = collection.QuirkEmptyBuffer
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.finds, 1)
			AssertEqual(counterValue(m.FallbacksTotal.WithLabelValues("empty_buffer")), 1.0)
		})

		a.Alternative("mask out of reach", func(a *A) {
			e, p := newEngine(fruits(options), Options{Metrics: m})
			entries, err := e.LookupAllByKey(ctx, lookup.FirstEqual, lookup.ReadNoteID|lookup.ReadUNID, nil, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{12, 16})
			AssertTrue(entries[0].UNID != "")
			AssertEqual(p.atomics, 0)
			AssertEqual(counterValue(m.FallbacksTotal.WithLabelValues("unsupported")), 1.0)
		})

		a.Alternative("old build", func(a *A) {
			options.BuildVersion = MinAtomicBuild - 1
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 0)
			AssertEqual(p.finds, 1)
		})

		a.Alternative("not found", func(a *A) {
			e, _ := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("kiwi"))
			AssertNil(err)
			AssertEqual(len(found), 0)
		})

		a.Alternative("last equal", func(a *A) {
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.LastEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 1)
			AssertEqual(p.reads, 0)
		})

		a.Alternative("last equal at the end of the view", func(a *A) {
			c := fruits(options)
			c.Insert(map[string]interface{}{"name": "date", "price": 6})
			e, _ := newEngine(c, Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.LastEqual, summary.Text("date"))
			AssertNil(err)
			AssertEqual(found, []uint32{20, 24})
		})

		a.Alternative("last equal continuing after a full buffer", func(a *A) {
			options.MaxBufferSize = 4
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.LastEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 1)
			AssertEqual(p.reads, 1)
		})

		a.Alternative("last equal in two steps", func(a *A) {
			options.BuildVersion = MinAtomicBuild - 1
			c := fruits(options)
			c.Insert(map[string]interface{}{"name": "date", "price": 6})
			e, p := newEngine(c, Options{Metrics: m})

			found, err := e.IdsByKey(ctx, lookup.LastEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})

			found, err = e.IdsByKey(ctx, lookup.LastEqual, summary.Text("date"))
			AssertNil(err)
			AssertEqual(found, []uint32{20, 24})
			AssertEqual(p.atomics, 0)
			AssertEqual(p.finds, 2)
		})

		a.Alternative("last equal with misreported count", func(a *A) {
			options.Quirk = collection.QuirkUnknownCount
			e, p := newEngine(fruits(options), Options{Metrics: m})
			found, err := e.IdsByKey(ctx, lookup.LastEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.finds, 1)
		})

		a.Alternative("inequalities return one entry", func(a *A) {
			e, _ := newEngine(fruits(options), Options{Metrics: m})
			cases := map[lookup.FindFlags][]uint32{
				lookup.LessThan:                   {8},
				lookup.LessThan | lookup.Equal:    {16},
				lookup.GreaterThan:                {20},
				lookup.GreaterThan | lookup.Equal: {12},
			}
			for flags, expected := range cases {
				found, err := e.IdsByKey(ctx, flags, summary.Text("cherry"))
				AssertNil(err)
				AssertEqual(found, expected)
			}
		})

		a.Alternative("inequalities in two steps", func(a *A) {
			options.BuildVersion = MinAtomicBuild - 1
			e, _ := newEngine(fruits(options), Options{Metrics: m})

			found, err := e.IdsByKey(ctx, lookup.LessThan|lookup.Equal, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{16})

			found, err = e.IdsByKey(ctx, lookup.GreaterThan|lookup.Equal, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12})
		})

		a.Alternative("summary columns", func(a *A) {
			e, _ := newEngine(fruits(options), Options{Metrics: m})
			entries, err := e.LookupAllByKey(ctx, lookup.FirstEqual, lookup.AtomicMask, nil, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(len(entries), 2)
			AssertEqual(entries[1].Values()["color"], "dark red")
		})
	})
}

func TestLookupAllByKey_SameAsManualScan(t *testing.T) {

	ctx := context.Background()

	for _, quirk := range []collection.Quirk{collection.QuirkNone, collection.QuirkUnknownCount, collection.QuirkEmptyBuffer} {
		e, _ := newEngine(fruits(collection.Options{Quirk: quirk}), Options{})

		found, err := e.FindByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
		AssertNil(err)
		manual, err := e.Scan(ctx, ScanRequest{
			Start:     found.Position,
			Direction: navigate.NextNonCategory,
			Count:     found.Count,
			Mask:      lookup.ReadNoteID,
		})
		AssertNil(err)

		entries, err := e.LookupAllByKey(ctx, lookup.FirstEqual, lookup.ReadNoteID, nil, summary.Text("cherry"))
		AssertNil(err)
		AssertEqual(ids(entries), ids(manual))
	}
}

func TestLookupAllByKey_ManyDuplicates(t *testing.T) {

	// room for 5 note ids per read
	c, _ := collection.Open("", fruitsDefinition(), collection.Options{MaxBufferSize: 20})
	c.Insert(map[string]interface{}{"name": "apple"})
	expected := []uint32{}
	for i := 0; i < 30; i++ {
		doc, _ := c.Insert(map[string]interface{}{"name": "cherry", "price": i})
		expected = append(expected, doc.NoteID)
	}
	c.Insert(map[string]interface{}{"name": "date"})

	e, p := newEngine(c, Options{})

	found, err := e.IdsByKey(context.Background(), lookup.FirstEqual, summary.Text("cherry"))
	AssertNil(err)
	AssertEqual(found, expected)
	AssertEqual(p.atomics, 1)
	AssertEqual(p.reads, 5)
}

func TestLookupAllByKey_Conflicts(t *testing.T) {

	ctx := context.Background()

	Alternative("conflict", func(a *A) {

		options := collection.Options{MaxBufferSize: 4}

		a.Alternative("on the atomic call", func(a *A) {
			e, p := newEngine(fruits(options), Options{})
			p.conflict = func(call string, n int) bool {
				return call == "atomic" && n == 1
			}
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 2)
			AssertEqual(p.updates, 1)
		})

		a.Alternative("while continuing", func(a *A) {
			e, p := newEngine(fruits(options), Options{})
			p.conflict = func(call string, n int) bool {
				return call == "read" && n == 1
			}
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16})
			AssertEqual(p.atomics, 2)
			AssertEqual(p.reads, 2)
		})

		a.Alternative("a new match while continuing", func(a *A) {
			c := fruits(options)
			e, p := newEngine(c, Options{})
			p.onRead = func(n int) {
				if n == 1 {
					c.Insert(map[string]interface{}{"name": "cherry", "price": 9})
				}
			}
			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertNil(err)
			AssertEqual(found, []uint32{12, 16, 24})
			AssertEqual(p.atomics, 2)
		})

		a.Alternative("always", func(a *A) {
			e, p := newEngine(fruits(options), Options{MaxConflictRetries: 2})
			p.conflict = func(call string, n int) bool {
				return call == "atomic"
			}
			_, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Text("cherry"))
			AssertTrue(errors.Is(err, ErrTooManyConflicts))
			AssertEqual(p.atomics, 3)
		})
	})
}
