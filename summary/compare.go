package summary

import (
	"strings"
	"time"
)

// kind rank used when two values of unrelated kinds meet in the same column
var rank = map[Kind]int{
	KindNone:       0,
	KindInt:        1,
	KindFloat:      1,
	KindNumberList: 1,
	KindInstant:    2,
	KindRange:      2,
	KindText:       3,
	KindTextList:   3,
}

// Compare orders two column values the way the index collates them. Numbers
// compare numerically across Int and Float, text is case-insensitive, a range
// sorts by its lower bound and a list by its first item. None sorts first.
func Compare(a, b Value) int {
	ra, rb := rank[a.kind], rank[b.kind]
	if ra != rb {
		return compareInt(ra, rb)
	}

	switch ra {
	case 1:
		return compareFloat(firstNumber(a), firstNumber(b))
	case 2:
		return compareTime(a.from, b.from)
	case 3:
		return strings.Compare(strings.ToLower(firstText(a)), strings.ToLower(firstText(b)))
	}
	return 0
}

// CompareKeys returns the order of an entry's leading columns relative to a
// lookup key. Only len(keys) columns take part, so a partial key matches every
// entry that shares its prefix.
func CompareKeys(keys []Value, columns []Value) int {
	for i, key := range keys {
		column := None()
		if i < len(columns) {
			column = columns[i]
		}
		if c := Compare(column, key); c != 0 {
			return c
		}
	}
	return 0
}

func firstNumber(v Value) float64 {
	if v.kind == KindNumberList {
		if len(v.numbers) == 0 {
			return 0
		}
		return v.numbers[0]
	}
	n, _ := v.Number()
	return n
}

func firstText(v Value) string {
	if v.kind == KindTextList {
		if len(v.texts) == 0 {
			return ""
		}
		return v.texts[0]
	}
	return v.text
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}
