package cursor

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/registry"
)

func TestSearch(t *testing.T) {

	ctx := context.Background()

	Alternative("search", func(a *A) {

		r := registry.New()
		e, _ := newEngine(fruits(collection.Options{}), Options{Registry: r})

		n, err := e.Search(ctx, "red", 0)
		AssertNil(err)
		AssertEqual(n, 3)
		AssertTrue(e.Searching())
		AssertEqual(r.Len(), 1)

		a.Alternative("walk the hits", func(a *A) {
			entries, err := e.Scan(ctx, ScanRequest{Direction: navigate.NextHit, Count: -1, Mask: lookup.ReadNoteID})
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{4, 12, 16})

			entries, err = e.Scan(ctx, ScanRequest{Direction: navigate.PrevHit, Count: 1, Mask: lookup.ReadNoteID})
			AssertNil(err)
			AssertEqual(ids(entries), []uint32{16})
		})

		a.Alternative("search again", func(a *A) {
			n, err := e.Search(ctx, "yellow", 0)
			AssertNil(err)
			AssertEqual(n, 1)
			AssertEqual(r.Len(), 1)

			entries, _ := e.Scan(ctx, ScanRequest{Direction: navigate.NextHit, Count: -1, Mask: lookup.ReadNoteID})
			AssertEqual(ids(entries), []uint32{8})
		})

		a.Alternative("no match", func(a *A) {
			n, err := e.Search(ctx, "kiwi", 0)
			AssertNil(err)
			AssertEqual(n, 0)
			AssertFalse(e.Searching())
			AssertEqual(r.Len(), 0)
		})

		a.Alternative("clear", func(a *A) {
			AssertNil(e.ClearSearch(ctx))
			AssertFalse(e.Searching())
			AssertEqual(r.Len(), 0)

			entries, err := e.Scan(ctx, ScanRequest{Direction: navigate.NextHit, Count: -1, Mask: lookup.ReadNoteID})
			AssertNil(err)
			AssertEqual(len(entries), 0)

			AssertNil(e.ClearSearch(ctx))
		})

		a.Alternative("close the engine", func(a *A) {
			AssertNil(e.Close(ctx))
			AssertEqual(r.Len(), 0)
		})

		a.Alternative("released on shutdown", func(a *A) {
			AssertNil(r.CloseAll())
			entries, _ := e.Scan(ctx, ScanRequest{Direction: navigate.NextHit, Count: -1, Mask: lookup.ReadNoteID})
			AssertEqual(len(entries), 0)
		})
	})
}

func TestSearch_InvalidQuery(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})

	_, err := e.Search(context.Background(), "", 0)
	AssertTrue(errors.Is(err, ErrInvalidArgument))
	AssertFalse(e.Searching())
}

func TestSearch_Limit(t *testing.T) {

	e, _ := newEngine(fruits(collection.Options{}), Options{})
	ctx := context.Background()

	n, err := e.Search(ctx, "red", 2)
	AssertNil(err)
	AssertEqual(n, 2)

	entries, _ := e.Scan(ctx, ScanRequest{Direction: navigate.NextHit, Count: -1, Mask: lookup.ReadNoteID})
	AssertEqual(ids(entries), []uint32{4, 12})
}
