package cursor

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
)

func TestScan_BatchSizeDoesNotChangeTheResult(t *testing.T) {

	c := many(50, collection.Options{})
	ctx := context.Background()

	expected := []uint32{}
	for i := 1; i <= 50; i++ {
		expected = append(expected, uint32(4*i))
	}

	for _, batch := range []int{0, 1, 7, 50, 1000} {
		e, _ := newEngine(c, Options{})
		entries, err := e.Scan(ctx, ScanRequest{
			Direction: navigate.NextNonCategory,
			Count:     -1,
			BatchSize: batch,
			Mask:      lookup.ReadNoteID,
		})
		AssertNil(err)
		AssertEqual(ids(entries), expected)
	}
}

func TestScan_SmallBuffer(t *testing.T) {

	// room for 3 note ids per read
	c := many(10, collection.Options{MaxBufferSize: 12})
	e, p := newEngine(c, Options{})

	all, err := e.AllIds(context.Background(), false)
	AssertNil(err)
	AssertEqual(len(all), 10)
	AssertEqual(p.reads, 4)
}

func TestScan_PredicateAndCount(t *testing.T) {

	c := many(50, collection.Options{})
	zero := func(entry lookup.ViewEntry) bool {
		v, _ := entry.Column("price")
		n, _ := v.Number()
		return n == 0
	}

	for _, batch := range []int{1, 4, 0} {
		e, _ := newEngine(c, Options{})
		entries, err := e.Scan(context.Background(), ScanRequest{
			Direction: navigate.Next,
			Count:     3,
			BatchSize: batch,
			Mask:      lookup.ReadNoteID | lookup.ReadSummary,
			Predicate: zero,
		})
		AssertNil(err)
		AssertEqual(ids(entries), []uint32{4, 32, 60})
	}
}

func TestScan_CountZero(t *testing.T) {

	e, p := newEngine(fruits(collection.Options{}), Options{})

	entries, err := e.Scan(context.Background(), ScanRequest{Direction: navigate.Next, Count: 0})
	AssertNil(err)
	AssertEqual(len(entries), 0)
	AssertEqual(p.reads, 0)
}

func TestScan_FromPosition(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	Alternative("scan", func(a *A) {

		req := ScanRequest{
			Start:     "3",
			Direction: navigate.Next,
			Count:     -1,
			Mask:      lookup.ReadNoteID,
		}

		a.Alternative("from an entry", func(a *A) {
			entries, err := e.Scan(ctx, req)
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{12, 16, 20})
		})

		a.Alternative("skipping the start", func(a *A) {
			req.Skip = 1
			entries, err := e.Scan(ctx, req)
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{16, 20})
		})

		a.Alternative("backwards", func(a *A) {
			req.Direction = navigate.Prev
			entries, err := e.Scan(ctx, req)
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{12, 8, 4})
		})

		a.Alternative("backwards from the start", func(a *A) {
			req.Start = ""
			req.Direction = navigate.Prev
			entries, err := e.Scan(ctx, req)
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{20, 16, 12, 8, 4})
		})

		a.Alternative("past the end", func(a *A) {
			req.Skip = 10
			entries, err := e.Scan(ctx, req)
			AssertNil(err)
			AssertEqual(len(entries), 0)
		})
	})
}

func TestScan_InvalidArguments(t *testing.T) {

	e, p := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	_, err := e.Scan(ctx, ScanRequest{Start: "1.x", Direction: navigate.Next, Count: -1})
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = e.Scan(ctx, ScanRequest{Skip: -1, Direction: navigate.Next, Count: -1})
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	_, err = e.Scan(ctx, ScanRequest{Direction: navigate.Direction(999), Count: -1})
	AssertTrue(errors.Is(err, ErrInvalidArgument))

	AssertEqual(p.reads, 0)
}

func TestScan_RestartsWhenTheIndexChanges(t *testing.T) {

	c := fruits(collection.Options{})
	m := newMetrics()
	e, p := newEngine(c, Options{Metrics: m})

	p.onRead = func(n int) {
		if n == 2 {
			c.Insert(map[string]interface{}{"name": "blueberry", "price": 6, "color": "blue"})
		}
	}

	entries, err := e.Scan(context.Background(), ScanRequest{
		Direction: navigate.Next,
		Count:     -1,
		BatchSize: 2,
		Mask:      lookup.ReadNoteID,
	})
	AssertNil(err)
	AssertEqual(ids(entries), []uint32{4, 8, 24, 12, 16, 20})
	AssertEqual(p.updates, 1)
	AssertEqual(counterValue(m.ConflictRestartsTotal.WithLabelValues("scan")), 1.0)

	fresh, _ := newEngine(c, Options{})
	all, _ := fresh.AllIds(context.Background(), false)
	AssertEqual(ids(entries), all)
}

func TestScan_InjectedConflict(t *testing.T) {

	e, p := newEngine(fruits(collection.Options{}), Options{})
	p.conflict = func(call string, n int) bool {
		return call == "read" && n == 2
	}

	entries, err := e.Scan(context.Background(), ScanRequest{
		Direction: navigate.Next,
		Count:     -1,
		BatchSize: 2,
		Mask:      lookup.ReadNoteID,
	})
	AssertNil(err)
	AssertEqual(ids(entries), []uint32{4, 8, 12, 16, 20})
	AssertEqual(p.updates, 1)
}

func TestScan_TooManyConflicts(t *testing.T) {

	m := newMetrics()
	e, p := newEngine(fruits(collection.Options{}), Options{MaxConflictRetries: 3, Metrics: m})
	p.conflict = func(call string, n int) bool {
		return true
	}

	_, err := e.Scan(context.Background(), ScanRequest{Direction: navigate.Next, Count: -1})
	AssertTrue(errors.Is(err, ErrTooManyConflicts))
	AssertEqual(p.updates, 3)
	AssertEqual(p.reads, 4)
	AssertEqual(counterValue(m.ConflictExhaustedTotal.WithLabelValues("scan")), 1.0)
}

func TestScan_Cancelled(t *testing.T) {

	e, p := newEngine(fruits(collection.Options{}), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Scan(ctx, ScanRequest{Direction: navigate.Next, Count: -1})
	AssertTrue(errors.Is(err, context.Canceled))
	AssertEqual(p.reads, 0)
}

func TestScan_ReleasedHandle(t *testing.T) {

	e, p := newEngine(fruits(collection.Options{}), Options{})

	id := e.options.Registry.Register("collection", p)
	AssertNil(e.options.Registry.Release(id))

	_, err := e.Scan(context.Background(), ScanRequest{Direction: navigate.Next, Count: -1})
	AssertTrue(errors.Is(err, ErrHandleInvalid))
}

func TestAllIds_Categories(t *testing.T) {

	def := &collection.Definition{
		Name: "groceries",
		Columns: []collection.Column{
			{Name: "kind", Sorted: true, Categorized: true},
			{Name: "name", Sorted: true},
		},
	}
	c, _ := collection.Open("", def, collection.Options{})
	c.Insert(map[string]interface{}{"kind": "vegetable", "name": "carrot"})
	c.Insert(map[string]interface{}{"kind": "fruit", "name": "banana"})
	c.Insert(map[string]interface{}{"kind": "fruit", "name": "apple"})

	e, _ := newEngine(c, Options{})
	ctx := context.Background()

	docs, err := e.AllIds(ctx, false)
	AssertNil(err)
	AssertEqual(docs, []uint32{12, 8, 4})

	all, err := e.AllIds(ctx, true)
	AssertNil(err)
	AssertEqual(all, []uint32{lookup.CategoryBit | 1, 12, 8, lookup.CategoryBit | 2, 4})
}
