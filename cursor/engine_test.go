package cursor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/registry"
	"github.com/fulldump/inceptionview/summary"
)

// recorder wraps a collection handle counting the calls the engine makes and
// injecting structural conflicts on demand.
type recorder struct {
	*collection.Handle

	reads    int
	finds    int
	atomics  int
	updates  int
	onRead   func(n int)
	conflict func(call string, n int) bool
}

func (p *recorder) inject(call string, n int, buffer *lookup.ReadBuffer) {
	if buffer != nil && p.conflict != nil && p.conflict(call, n) {
		buffer.Signal |= lookup.SignalIndexModified
	}
}

func (p *recorder) ReadEntries(ctx context.Context, start position.Position, skipNav navigate.Direction, skip int,
	returnNav navigate.Direction, count int, mask lookup.ReadMask) (*lookup.ReadBuffer, error) {
	p.reads++
	if p.onRead != nil {
		p.onRead(p.reads)
	}
	buffer, err := p.Handle.ReadEntries(ctx, start, skipNav, skip, returnNav, count, mask)
	p.inject("read", p.reads, buffer)
	return buffer, err
}

func (p *recorder) FindByKey(ctx context.Context, keys []byte, flags lookup.FindFlags) (position.Position, int, error) {
	p.finds++
	return p.Handle.FindByKey(ctx, keys, flags)
}

func (p *recorder) FindByKeyExtended2(ctx context.Context, keys []byte, flags lookup.FindFlags, mask lookup.ReadMask) (*lookup.ReadBuffer, error) {
	p.atomics++
	buffer, err := p.Handle.FindByKeyExtended2(ctx, keys, flags, mask)
	p.inject("atomic", p.atomics, buffer)
	return buffer, err
}

func (p *recorder) Update(ctx context.Context) error {
	p.updates++
	return p.Handle.Update(ctx)
}

// bare hides every optional capability of the wrapped index.
type bare struct {
	Index
}

func fruitsDefinition() *collection.Definition {
	return &collection.Definition{
		Name: "fruits",
		Columns: []collection.Column{
			{Name: "name", Sorted: true},
			{Name: "price", Type: "number", ResortAscending: true},
			{Name: "color"},
		},
	}
}

func fruits(options collection.Options) *collection.Collection {
	c, err := collection.Open("", fruitsDefinition(), options)
	if err != nil {
		panic(err)
	}
	// note ids 4, 8, 12, 16 and 20
	c.Insert(map[string]interface{}{"name": "apple", "price": 3, "color": "red"})
	c.Insert(map[string]interface{}{"name": "banana", "price": 1, "color": "yellow"})
	c.Insert(map[string]interface{}{"name": "cherry", "price": 2, "color": "red"})
	c.Insert(map[string]interface{}{"name": "cherry", "price": 5, "color": "dark red"})
	c.Insert(map[string]interface{}{"name": "date", "price": 4, "color": "brown"})
	return c
}

// many returns a collection with n documents named item-000, item-001...
func many(n int, options collection.Options) *collection.Collection {
	c, err := collection.Open("", fruitsDefinition(), options)
	if err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		c.Insert(map[string]interface{}{"name": fmt.Sprintf("item-%03d", i), "price": i % 7})
	}
	return c
}

func newEngine(c *collection.Collection, options Options) (*Engine, *recorder) {
	p := &recorder{Handle: c.OpenHandle()}
	if options.Registry == nil {
		options.Registry = registry.New()
	}
	return New(p, options), p
}

func ids(entries []lookup.ViewEntry) []uint32 {
	return noteIDs(entries)
}

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	c.Write(m)
	return m.GetCounter().GetValue()
}

func TestNew_Capabilities(t *testing.T) {

	c := fruits(collection.Options{})
	ctx := context.Background()

	e, p := newEngine(c, Options{})
	AssertNotNil(e.searcher)
	AssertNotNil(e.documents)

	b := New(bare{p}, Options{Registry: registry.New()})

	_, err := b.Search(ctx, "red", 0)
	AssertTrue(errors.Is(err, ErrCapabilityUnavailable))

	_, err = b.Documents(ctx, nil)
	AssertTrue(errors.Is(err, ErrCapabilityUnavailable))

	found, err := b.IdsByKey(ctx, lookup.FirstEqual, summary.Text("date"))
	AssertNil(err)
	AssertEqual(found, []uint32{20})
}

func TestDocuments(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	entries, err := e.Scan(ctx, ScanRequest{Start: "4", Direction: navigate.Prev, Count: 2, Mask: lookup.ReadNoteID})
	AssertNil(err)

	docs, err := e.Documents(ctx, entries)
	AssertNil(err)
	AssertEqualJson(docs, []map[string]interface{}{
		{"name": "cherry", "price": 5, "color": "dark red"},
		{"name": "cherry", "price": 2, "color": "red"},
	})
}

func TestSequence(t *testing.T) {

	c := fruits(collection.Options{})
	e, _ := newEngine(c, Options{})
	ctx := context.Background()

	seq, err := e.Sequence(ctx)
	AssertNil(err)
	AssertEqual(seq, uint32(5))

	changed, err := e.Changed(ctx, seq)
	AssertNil(err)
	AssertFalse(changed)

	c.Patch(4, map[string]interface{}{"color": "green"})
	changed, _ = e.Changed(ctx, seq)
	AssertFalse(changed)

	c.Patch(4, map[string]interface{}{"name": "avocado"})
	changed, _ = e.Changed(ctx, seq)
	AssertTrue(changed)
}

func TestCollation(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	AssertEqual(len(e.Collations()), 1)

	Alternative("collation", func(a *A) {

		a.Alternative("by price", func(a *A) {
			AssertNil(e.SetCollationByColumn(ctx, "price", collation.Ascending))
			slot, _ := e.Collation(ctx)
			AssertEqual(slot, 1)

			all, err := e.AllIds(ctx, false)
			AssertNil(err)
			AssertEqual(all, []uint32{8, 12, 4, 20, 16})

			found, err := e.IdsByKey(ctx, lookup.FirstEqual, summary.Int(4))
			AssertNil(err)
			AssertEqual(found, []uint32{20})

			AssertNil(e.SetCollation(ctx, 0))
		})

		a.Alternative("unsorted column", func(a *A) {
			err := e.SetCollationByColumn(ctx, "color", collation.Ascending)
			AssertTrue(errors.Is(err, collation.ErrOutOfRange))
		})

		a.Alternative("unknown slot", func(a *A) {
			err := e.SetCollation(ctx, 7)
			AssertTrue(errors.Is(err, collation.ErrOutOfRange))
		})
	})
}

func TestLocateNote(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})

	p, err := e.LocateNote(context.Background(), 16)
	AssertNil(err)
	AssertEqual(p, "4")

	_, err = e.LocateNote(context.Background(), 17)
	backend := &BackendError{}
	AssertTrue(errors.As(err, &backend))
	AssertEqual(backend.Code, lookup.StatusNotFound)
}
