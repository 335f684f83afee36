package collection

import (
	"github.com/fulldump/inceptionview/navigate"
)

// cursor points at a node, or between two nodes when between is true (index
// is then the node right after the gap).
type cursor struct {
	index   int
	between bool
}

// visibility answers the per handle questions the filters ask.
type visibility interface {
	isSelected(noteID uint32) bool
	isUnread(noteID uint32) bool
	isCollapsed(noteID uint32) bool
	isHit(noteID uint32) bool
}

func (l *layout) accepts(i int, filter navigate.Filter, v visibility) bool {
	n := &l.nodes[i]

	if filter.Has(navigate.OnlyCategories) && !n.category {
		return false
	}
	if filter.Has(navigate.NoCategories) && n.category {
		return false
	}
	if filter.Has(navigate.OnlyMain) && (n.category || n.response) {
		return false
	}
	if filter.Has(navigate.OnlySelected) && !v.isSelected(n.noteID) {
		return false
	}
	if filter.Has(navigate.OnlyUnread) && !v.isUnread(n.noteID) {
		return false
	}
	if filter.Has(navigate.OnlyHits) && !v.isHit(n.noteID) {
		return false
	}
	if filter.Has(navigate.OnlyExpanded) {
		for p := n.parent; p >= 0; p = l.nodes[p].parent {
			if v.isCollapsed(l.nodes[p].noteID) {
				return false
			}
		}
	}

	return true
}

// move applies one step of d. It returns false when there is nowhere to go,
// leaving the cursor untouched.
func (l *layout) move(c cursor, d navigate.Direction, v visibility) (cursor, bool) {
	scope := navigate.ScopeOf(d)

	if scope.Movement == navigate.Stay {
		if c.between {
			return c, false
		}
		return c, true
	}

	if scope.Movement == navigate.Linear {
		return l.walk(c, scope, v)
	}

	// Structural moves from a gap land on the closest node in their direction.
	if c.between {
		i := c.index
		if scope.Backward {
			i--
		}
		if i < 0 || i >= len(l.nodes) {
			return c, false
		}
		return cursor{index: i}, true
	}

	i, ok := l.structural(c.index, scope.Movement)
	if !ok {
		return c, false
	}
	return cursor{index: i}, true
}

func (l *layout) walk(c cursor, scope navigate.Scope, v visibility) (cursor, bool) {
	step := 1
	i := c.index + 1
	if c.between {
		i = c.index
	}
	if scope.Backward {
		step = -1
		i = c.index - 1
	}

	for ; i >= 0 && i < len(l.nodes); i += step {
		if l.accepts(i, scope.Filter, v) {
			return cursor{index: i}, true
		}
	}
	return c, false
}

func (l *layout) structural(i int, movement navigate.Movement) (int, bool) {
	n := &l.nodes[i]

	switch movement {
	case navigate.ToParent:
		return n.parent, n.parent >= 0

	case navigate.ToChild:
		return i + 1, n.children > 0

	case navigate.ToNextPeer:
		return l.nextPeer(i)

	case navigate.ToPrevPeer:
		return l.prevPeer(i)

	case navigate.ToFirstPeer:
		first := n.parent + 1
		if n.parent < 0 {
			first = 0
		}
		return first, first != i

	case navigate.ToLastPeer:
		last := i
		for next, ok := l.nextPeer(last); ok; next, ok = l.nextPeer(last) {
			last = next
		}
		return last, last != i

	case navigate.ToNextParent:
		if n.parent < 0 {
			return i, false
		}
		return l.nextPeer(n.parent)

	case navigate.ToPrevParent:
		if n.parent < 0 {
			return i, false
		}
		return l.prevPeer(n.parent)
	}

	return i, false
}

func (l *layout) nextPeer(i int) (int, bool) {
	next := l.nodes[i].end
	if next >= len(l.nodes) || l.nodes[next].parent != l.nodes[i].parent {
		return i, false
	}
	return next, true
}

func (l *layout) prevPeer(i int) (int, bool) {
	depth := l.nodes[i].depth
	for j := i - 1; j >= 0; j-- {
		if l.nodes[j].depth < depth {
			return i, false
		}
		if l.nodes[j].depth == depth {
			return j, true
		}
	}
	return i, false
}
