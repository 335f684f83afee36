package collection

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

// node is one row of the flattened view, in preorder.
type node struct {
	noteID   uint32
	doc      *Document // nil for categories
	category bool
	response bool
	columns  []summary.Value

	pos         position.Position
	depth       int
	parent      int // -1 at top level
	end         int // first index past the subtree
	children    int
	descendants int
	siblings    int
}

// layout is an immutable snapshot of the view under one collation.
type layout struct {
	sequence uint32
	keys     []sortKey
	nodes    []node
	byNoteID map[uint32]int
	// docs holds the node index of every main document, in key order.
	docs []int
}

type branch struct {
	noteID   uint32
	doc      *Document
	category bool
	response bool
	columns  []summary.Value
	kids     []*branch
}

func buildLayout(c *Collection, slot int) *layout {
	index := c.sorted[slot]
	showResponses := c.definition.ShowResponses

	responses := map[uuid.UUID][]*Document{}
	main := []*Document{}
	index.Traverse(func(doc *Document) bool {
		if showResponses && doc.IsResponse() {
			if _, ok := c.byUNID[doc.Parent]; ok {
				responses[doc.Parent] = append(responses[doc.Parent], doc)
				return true
			}
		}
		main = append(main, doc)
		return true
	})
	for _, list := range responses {
		sort.Slice(list, func(i, j int) bool {
			return list[i].NoteID < list[j].NoteID
		})
	}

	categorized := []int{}
	if slot == 0 {
		for i, col := range c.definition.Columns {
			if !col.Categorized {
				break
			}
			categorized = append(categorized, i)
		}
	}

	width := len(c.definition.Columns)
	var docBranch func(doc *Document, response bool) *branch
	docBranch = func(doc *Document, response bool) *branch {
		b := &branch{
			noteID:   doc.NoteID,
			doc:      doc,
			response: response,
			columns:  doc.values,
		}
		for _, r := range responses[doc.UNID] {
			b.kids = append(b.kids, docBranch(r, true))
		}
		return b
	}

	root := &branch{}
	path := []*branch{}
	categories := uint32(0)
	for _, doc := range main {
		level := 0
		for level < len(categorized) && level < len(path) &&
			summary.Compare(path[level].columns[categorized[level]], doc.values[categorized[level]]) == 0 {
			level++
		}
		path = path[:level]
		for ; level < len(categorized); level++ {
			parent := root
			if level > 0 {
				parent = path[level-1]
			}
			categories++
			columns := make([]summary.Value, width)
			columns[categorized[level]] = doc.values[categorized[level]]
			cat := &branch{
				noteID:   lookup.CategoryBit | categories,
				category: true,
				columns:  columns,
			}
			parent.kids = append(parent.kids, cat)
			path = append(path, cat)
		}
		parent := root
		if len(path) > 0 {
			parent = path[len(path)-1]
		}
		parent.kids = append(parent.kids, docBranch(doc, false))
	}

	l := &layout{
		sequence: c.sequence,
		keys:     index.keys,
		byNoteID: map[uint32]int{},
	}
	l.flatten(root.kids, position.Position{}, 0, -1)

	for i := range l.nodes {
		n := &l.nodes[i]
		l.byNoteID[n.noteID] = i
		if !n.category && !n.response {
			l.docs = append(l.docs, i)
		}
	}

	return l
}

func (l *layout) flatten(kids []*branch, parent position.Position, depth, parentIndex int) int {
	total := 0
	for i, b := range kids {
		index := len(l.nodes)
		l.nodes = append(l.nodes, node{
			noteID:   b.noteID,
			doc:      b.doc,
			category: b.category,
			response: b.response,
			columns:  b.columns,
			pos:      parent.Child(uint32(i + 1)),
			depth:    depth,
			parent:   parentIndex,
			children: len(b.kids),
			siblings: len(kids),
		})
		descendants := l.flatten(b.kids, l.nodes[index].pos, depth+1, index)
		l.nodes[index].descendants = descendants
		l.nodes[index].end = len(l.nodes)
		total += 1 + descendants
	}
	return total
}

// locate returns the index of the node at p, or the index where p would be
// inserted with exact == false. The start sentinel locates before everything.
func (l *layout) locate(p position.Position) (index int, exact bool) {
	if p.IsStart() {
		return 0, false
	}
	index = sort.Search(len(l.nodes), func(i int) bool {
		return l.nodes[i].pos.Compare(p) >= 0
	})
	exact = index < len(l.nodes) && l.nodes[index].pos.Equal(p)
	return index, exact
}

// matchRange finds the main documents equal to values: [lo, hi) over docs.
func (l *layout) matchRange(values []summary.Value) (lo, hi int) {
	lo = sort.Search(len(l.docs), func(i int) bool {
		return compareDocument(l.keys, l.nodes[l.docs[i]].columns, values) >= 0
	})
	hi = sort.Search(len(l.docs), func(i int) bool {
		return compareDocument(l.keys, l.nodes[l.docs[i]].columns, values) > 0
	})
	return lo, hi
}

func (l *layout) entry(i int, names []string, unread bool) *lookup.ViewEntry {
	n := &l.nodes[i]

	e := &lookup.ViewEntry{
		NoteID:          n.noteID,
		Position:        n.pos,
		Unread:          unread,
		ChildCount:      uint32(n.children),
		DescendantCount: uint32(n.descendants),
		SiblingCount:    uint32(n.siblings),
		Indent:          uint16(n.depth),
	}

	if n.category {
		e.Flags |= lookup.EntryCategory
	}
	if n.response {
		e.Flags |= lookup.EntryResponse
	}
	if n.children > 0 {
		e.Flags |= lookup.EntryHasChildren
	}
	if n.doc != nil {
		e.UNID = n.doc.UNID.String()
		e.Modified = n.doc.Modified
		if n.doc.conflict {
			e.Flags |= lookup.EntryConflict
		}
	}

	e.Columns = make([]lookup.Column, len(names))
	for c, name := range names {
		e.Columns[c] = lookup.Column{Name: name, Value: n.columns[c]}
	}

	return e
}
