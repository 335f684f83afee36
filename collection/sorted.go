package collection

import (
	"fmt"

	"github.com/google/btree"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/summary"
)

type sortKey struct {
	column     int
	descending bool
}

// sortKeys lists the columns a collation orders by. Slot 0 uses the sorted
// columns of the definition; any other slot puts its resort column first and
// breaks ties with the default order.
func sortKeys(def *Definition, collations *collation.Map, slot int) ([]sortKey, error) {
	base := []sortKey{}
	for i, c := range def.Columns {
		if c.Sorted {
			base = append(base, sortKey{column: i, descending: c.Descending})
		}
	}
	if slot == 0 {
		return base, nil
	}

	item, err := collations.SortItem(slot)
	if err != nil {
		return nil, err
	}
	direction, err := collations.SortDirection(slot)
	if err != nil {
		return nil, err
	}
	column := def.columnIndex(item)
	if column < 0 {
		return nil, fmt.Errorf("collation %d sorts by unknown column '%s'", slot, item)
	}

	keys := []sortKey{{column: column, descending: direction == collation.Descending}}
	for _, k := range base {
		if k.column != column {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// compareDocument orders a document against key values, honoring descending
// columns. Only len(values) keys take part.
func compareDocument(keys []sortKey, doc []summary.Value, values []summary.Value) int {
	for i, v := range values {
		if i >= len(keys) {
			break
		}
		cmp := summary.Compare(doc[keys[i].column], v)
		if keys[i].descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

type sortedIndex struct {
	keys  []sortKey
	Btree *btree.BTreeG[*Document]
}

func newSortedIndex(keys []sortKey) *sortedIndex {
	index := btree.NewG(32, func(a, b *Document) bool {
		for _, k := range keys {
			cmp := summary.Compare(a.values[k.column], b.values[k.column])
			if cmp == 0 {
				continue
			}
			if k.descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return a.NoteID < b.NoteID
	})

	return &sortedIndex{
		keys:  keys,
		Btree: index,
	}
}

func (s *sortedIndex) AddDocument(doc *Document) {
	s.Btree.ReplaceOrInsert(doc)
}

func (s *sortedIndex) RemoveDocument(doc *Document) {
	s.Btree.Delete(doc)
}

func (s *sortedIndex) Traverse(f func(doc *Document) bool) {
	s.Btree.Ascend(f)
}

func (s *sortedIndex) Len() int {
	return s.Btree.Len()
}
