package cursor

import (
	"context"
	"fmt"
	"testing"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/summary"
)

func BenchmarkScan(b *testing.B) {
	c := many(10_000, collection.Options{})
	ctx := context.Background()

	for _, batch := range []int{0, 16, 256} {
		b.Run(fmt.Sprintf("batch-%d", batch), func(b *testing.B) {
			e, _ := newEngine(c, Options{})
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := e.Scan(ctx, ScanRequest{
					Direction: navigate.Next,
					Count:     -1,
					BatchSize: batch,
					Mask:      lookup.ReadNoteID | lookup.ReadSummary,
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLookupAllByKey(b *testing.B) {
	c := many(10_000, collection.Options{})
	ctx := context.Background()
	e, _ := newEngine(c, Options{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := summary.Text(fmt.Sprintf("item-%03d", i%10_000))
		_, err := e.LookupAllByKey(ctx, lookup.FirstEqual, lookup.AtomicMask, nil, key)
		if err != nil {
			b.Fatal(err)
		}
	}
}
