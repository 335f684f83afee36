// Package position implements the hierarchical coordinate ("tumbler") used to
// address an entry inside a collection. A position is written as dot separated
// ordinals, root first: "3.1.7" is the 7th child of the 1st child of the 3rd
// top level entry. "0" is reserved and means "before the first entry".
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDepth is the maximum number of components a position can hold.
const MaxDepth = 32

// Start is the text form of the before-first sentinel.
const Start = "0"

var ErrMalformed = errors.New("malformed position")

type Position struct {
	Level   uint16
	Tumbler [MaxDepth]uint32
}

// New builds a position from its components, root first. With no components
// it returns the start sentinel.
func New(components ...uint32) Position {
	p := Position{}
	if len(components) == 0 {
		return p
	}
	if len(components) > MaxDepth {
		components = components[:MaxDepth]
	}
	copy(p.Tumbler[:], components)
	p.Level = uint16(len(components) - 1)
	return p
}

// Encode joins tumbler[0..=level] with dots.
func Encode(tumbler []uint32, level int) string {
	sb := strings.Builder{}
	for i := 0; i <= level && i < len(tumbler); i++ {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.FormatUint(uint64(tumbler[i]), 10))
	}
	return sb.String()
}

func Decode(text string) (Position, error) {
	p := Position{}

	if text == "" {
		return p, fmt.Errorf("%w: empty", ErrMalformed)
	}

	parts := strings.Split(text, ".")
	if len(parts) > MaxDepth {
		return p, fmt.Errorf("%w: %d components, max %d", ErrMalformed, len(parts), MaxDepth)
	}

	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return p, fmt.Errorf("%w: component %d '%s'", ErrMalformed, i, part)
		}
		p.Tumbler[i] = uint32(n)
	}
	p.Level = uint16(len(parts) - 1)

	return p, nil
}

// MustDecode is like Decode but panics on error. Intended for constants and tests.
func MustDecode(text string) Position {
	p, err := Decode(text)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Position) String() string {
	return Encode(p.Tumbler[:], int(p.Level))
}

// IsStart reports whether p is the before-first sentinel.
func (p Position) IsStart() bool {
	return p.Level == 0 && p.Tumbler[0] == 0
}

// Components returns a copy of the significant part of the tumbler.
func (p Position) Components() []uint32 {
	result := make([]uint32, int(p.Level)+1)
	copy(result, p.Tumbler[:p.Level+1])
	return result
}

// Depth is the number of components, Level+1.
func (p Position) Depth() int {
	return int(p.Level) + 1
}

// Child returns the position of the n-th child of p (1 based). A position
// at MaxDepth has no children and is returned unchanged; the collection
// rejects documents nested that deep.
func (p Position) Child(n uint32) Position {
	if p.IsStart() {
		return New(n)
	}
	c := p
	if int(c.Level)+1 >= MaxDepth {
		return c
	}
	c.Level++
	c.Tumbler[c.Level] = n
	return c
}

// Parent returns the position of the parent of p, or the start sentinel for
// top level positions.
func (p Position) Parent() Position {
	if p.Level == 0 {
		return Position{}
	}
	c := p
	c.Tumbler[c.Level] = 0
	c.Level--
	return c
}

func (p Position) Equal(other Position) bool {
	return p.Level == other.Level && p.Tumbler == other.Tumbler
}

// Compare orders positions in tree order (parents before children).
func (p Position) Compare(other Position) int {
	n := p.Depth()
	if other.Depth() < n {
		n = other.Depth()
	}
	for i := 0; i < n; i++ {
		if p.Tumbler[i] < other.Tumbler[i] {
			return -1
		}
		if p.Tumbler[i] > other.Tumbler[i] {
			return 1
		}
	}
	switch {
	case p.Depth() < other.Depth():
		return -1
	case p.Depth() > other.Depth():
		return 1
	}
	return 0
}

func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
