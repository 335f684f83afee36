// Package navigate enumerates the traversal verbs a collection cursor can move
// with and the properties the engine needs from them.
package navigate

import (
	"fmt"
	"strings"
)

type Direction uint16

const (
	Current Direction = iota // no movement

	Parent
	Child
	NextPeer
	PrevPeer
	FirstPeer
	LastPeer
	NextMain
	PrevMain
	NextParent
	PrevParent

	Next
	Prev
	NextUnread
	PrevUnread
	NextUnreadMain
	PrevUnreadMain
	NextSelected
	PrevSelected
	NextSelectedMain
	PrevSelectedMain
	NextExpanded
	PrevExpanded
	NextExpandedUnread
	PrevExpandedUnread
	NextExpandedSelected
	PrevExpandedSelected
	NextExpandedCategory
	PrevExpandedCategory
	NextExpNonCategory
	PrevExpNonCategory
	NextHit
	PrevHit
	NextSelectedHit
	PrevSelectedHit
	NextUnreadHit
	PrevUnreadHit
	NextCategory
	PrevCategory
	NextNonCategory
	PrevNonCategory

	count
)

var names = [count]string{
	Current:              "current",
	Parent:               "parent",
	Child:                "child",
	NextPeer:             "nextPeer",
	PrevPeer:             "prevPeer",
	FirstPeer:            "firstPeer",
	LastPeer:             "lastPeer",
	NextMain:             "nextMain",
	PrevMain:             "prevMain",
	NextParent:           "nextParent",
	PrevParent:           "prevParent",
	Next:                 "next",
	Prev:                 "prev",
	NextUnread:           "nextUnread",
	PrevUnread:           "prevUnread",
	NextUnreadMain:       "nextUnreadMain",
	PrevUnreadMain:       "prevUnreadMain",
	NextSelected:         "nextSelected",
	PrevSelected:         "prevSelected",
	NextSelectedMain:     "nextSelectedMain",
	PrevSelectedMain:     "prevSelectedMain",
	NextExpanded:         "nextExpanded",
	PrevExpanded:         "prevExpanded",
	NextExpandedUnread:   "nextExpandedUnread",
	PrevExpandedUnread:   "prevExpandedUnread",
	NextExpandedSelected: "nextExpandedSelected",
	PrevExpandedSelected: "prevExpandedSelected",
	NextExpandedCategory: "nextExpandedCategory",
	PrevExpandedCategory: "prevExpandedCategory",
	NextExpNonCategory:   "nextExpNonCategory",
	PrevExpNonCategory:   "prevExpNonCategory",
	NextHit:              "nextHit",
	PrevHit:              "prevHit",
	NextSelectedHit:      "nextSelectedHit",
	PrevSelectedHit:      "prevSelectedHit",
	NextUnreadHit:        "nextUnreadHit",
	PrevUnreadHit:        "prevUnreadHit",
	NextCategory:         "nextCategory",
	PrevCategory:         "prevCategory",
	NextNonCategory:      "nextNonCategory",
	PrevNonCategory:      "prevNonCategory",
}

// pairs lists every direction together with its opposite. Reverse is derived
// from it so the mapping stays an involution.
var pairs = [][2]Direction{
	{Parent, Child},
	{NextPeer, PrevPeer},
	{FirstPeer, LastPeer},
	{NextMain, PrevMain},
	{NextParent, PrevParent},
	{Next, Prev},
	{NextUnread, PrevUnread},
	{NextUnreadMain, PrevUnreadMain},
	{NextSelected, PrevSelected},
	{NextSelectedMain, PrevSelectedMain},
	{NextExpanded, PrevExpanded},
	{NextExpandedUnread, PrevExpandedUnread},
	{NextExpandedSelected, PrevExpandedSelected},
	{NextExpandedCategory, PrevExpandedCategory},
	{NextExpNonCategory, PrevExpNonCategory},
	{NextHit, PrevHit},
	{NextSelectedHit, PrevSelectedHit},
	{NextUnreadHit, PrevUnreadHit},
	{NextCategory, PrevCategory},
	{NextNonCategory, PrevNonCategory},
}

var reverse [count]Direction

var descending [count]bool

func init() {
	for d := Direction(0); d < count; d++ {
		reverse[d] = d
	}
	for _, pair := range pairs {
		reverse[pair[0]] = pair[1]
		reverse[pair[1]] = pair[0]
		if pair[0] != Parent && pair[0] != FirstPeer {
			descending[pair[1]] = true
		}
	}
	descending[Parent] = true
}

// All returns every direction of the enumeration.
func All() []Direction {
	result := make([]Direction, 0, count)
	for d := Direction(0); d < count; d++ {
		result = append(result, d)
	}
	return result
}

func (d Direction) Valid() bool {
	return d < count
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", uint16(d))
	}
	return names[d]
}

// IsDescending reports whether moving with d goes from larger to smaller
// positions: every "prev" variant and Parent. FirstPeer and LastPeer jump, they
// are not descending.
func IsDescending(d Direction) bool {
	if !d.Valid() {
		return false
	}
	return descending[d]
}

// Reverse returns the opposite of d. Reverse(Reverse(d)) == d for every d.
func Reverse(d Direction) Direction {
	if !d.Valid() {
		return d
	}
	return reverse[d]
}

// Parse accepts the names returned by String, case insensitive.
func Parse(name string) (Direction, error) {
	for d, n := range names {
		if strings.EqualFold(n, name) {
			return Direction(d), nil
		}
	}
	return Current, fmt.Errorf("unknown direction '%s'", name)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
