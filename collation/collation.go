// Package collation maps resortable view columns to the collation slots a
// collection can be switched to.
package collation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrOutOfRange = errors.New("collation out of range")

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction '%s'", s)
}

// Column is the part of a column definition relevant to collations.
type Column struct {
	Item             string
	ResortAscending  bool
	ResortDescending bool
}

type slot struct {
	item      string
	direction Direction
}

// Map is immutable once built. Slot 0 is the view's default collation and is
// never part of the map.
type Map struct {
	ascending  map[string]int
	descending map[string]int
	slots      []slot // slots[i] describes collation i+1
}

// Build assigns consecutive slots, starting at 1, walking columns in
// declaration order: the ascending slot of a column comes before its
// descending slot.
func Build(columns []Column) *Map {
	m := &Map{
		ascending:  map[string]int{},
		descending: map[string]int{},
	}

	for _, c := range columns {
		if c.ResortAscending {
			m.slots = append(m.slots, slot{item: c.Item, direction: Ascending})
			m.ascending[strings.ToLower(c.Item)] = len(m.slots)
		}
		if c.ResortDescending {
			m.slots = append(m.slots, slot{item: c.Item, direction: Descending})
			m.descending[strings.ToLower(c.Item)] = len(m.slots)
		}
	}

	return m
}

// Len is the highest assigned slot.
func (m *Map) Len() int {
	return len(m.slots)
}

// Find returns the slot sorting by item in the given direction.
func (m *Map) Find(item string, direction Direction) (int, bool) {
	lookup := m.ascending
	if direction == Descending {
		lookup = m.descending
	}
	n, ok := lookup[strings.ToLower(item)]
	return n, ok
}

func (m *Map) get(n int) (slot, error) {
	if n < 1 || n > len(m.slots) {
		return slot{}, fmt.Errorf("%w: %d (max value: %d)", ErrOutOfRange, n, len(m.slots))
	}
	return m.slots[n-1], nil
}

func (m *Map) SortItem(n int) (string, error) {
	s, err := m.get(n)
	return s.item, err
}

func (m *Map) SortDirection(n int) (Direction, error) {
	s, err := m.get(n)
	return s.direction, err
}

// Info describes one slot, used to list collations.
type Info struct {
	Slot      int    `json:"slot"`
	Item      string `json:"item"`
	Direction string `json:"direction"`
}

func (m *Map) List() []Info {
	result := make([]Info, 0, len(m.slots))
	for i, s := range m.slots {
		result = append(result, Info{
			Slot:      i + 1,
			Item:      s.item,
			Direction: s.direction.String(),
		})
	}
	return result
}
