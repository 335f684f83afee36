// Package summary holds the typed values a collection stores in its columns and
// the positional binary layout ("summary buffer") used to exchange them: lookup
// keys sent to the index comparator and column values returned by reads.
package summary

import (
	"fmt"
	"strings"
	"time"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindText
	KindInt
	KindFloat
	KindInstant
	KindRange
	KindTextList
	KindNumberList
)

var kindNames = map[Kind]string{
	KindNone:       "none",
	KindText:       "text",
	KindInt:        "int",
	KindFloat:      "float",
	KindInstant:    "instant",
	KindRange:      "range",
	KindTextList:   "textList",
	KindNumberList: "numberList",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsKey reports whether values of this kind can be used as lookup keys.
func (k Kind) IsKey() bool {
	switch k {
	case KindText, KindInt, KindFloat, KindInstant, KindRange:
		return true
	}
	return false
}

// Value is a tagged union. Only the fields matching Kind are meaningful.
type Value struct {
	kind    Kind
	text    string
	integer int64
	number  float64
	from    time.Time
	to      time.Time
	texts   []string
	numbers []float64
}

func None() Value {
	return Value{}
}

func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

func Int(i int64) Value {
	return Value{kind: KindInt, integer: i}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, number: f}
}

func Instant(t time.Time) Value {
	return Value{kind: KindInstant, from: t.UTC()}
}

// Range is a closed interval of instants.
func Range(from, to time.Time) Value {
	return Value{kind: KindRange, from: from.UTC(), to: to.UTC()}
}

func TextList(items ...string) Value {
	return Value{kind: KindTextList, texts: append([]string{}, items...)}
}

func NumberList(items ...float64) Value {
	return Value{kind: KindNumberList, numbers: append([]float64{}, items...)}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNone() bool {
	return v.kind == KindNone
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Number returns the numeric value of Int and Float values.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.integer), true
	case KindFloat:
		return v.number, true
	}
	return 0, false
}

func (v Value) Int() (int64, bool) {
	return v.integer, v.kind == KindInt
}

func (v Value) Instant() (time.Time, bool) {
	return v.from, v.kind == KindInstant
}

func (v Value) Range() (from, to time.Time, ok bool) {
	return v.from, v.to, v.kind == KindRange
}

func (v Value) TextList() ([]string, bool) {
	return v.texts, v.kind == KindTextList
}

func (v Value) NumberList() ([]float64, bool) {
	return v.numbers, v.kind == KindNumberList
}

// Interface converts the value into plain Go types (string, float64,
// time.Time, []interface{}, nil), the shape JSON filters and encoders expect.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt:
		return float64(v.integer)
	case KindFloat:
		return v.number
	case KindInstant:
		return v.from
	case KindRange:
		return []interface{}{v.from, v.to}
	case KindTextList:
		result := make([]interface{}, len(v.texts))
		for i, t := range v.texts {
			result[i] = t
		}
		return result
	case KindNumberList:
		result := make([]interface{}, len(v.numbers))
		for i, n := range v.numbers {
			result[i] = n
		}
		return result
	}
	return nil
}

// FromInterface builds a value from decoded JSON/YAML data. Strings that parse
// as RFC3339 stay text; use Instant explicitly for dates.
func FromInterface(i interface{}) (Value, error) {
	switch v := i.(type) {
	case nil:
		return None(), nil
	case Value:
		return v, nil
	case string:
		return Text(v), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case time.Time:
		return Instant(v), nil
	case []string:
		return TextList(v...), nil
	case []float64:
		return NumberList(v...), nil
	case []interface{}:
		if len(v) == 0 {
			return TextList(), nil
		}
		switch v[0].(type) {
		case string:
			texts := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return None(), fmt.Errorf("mixed list: %T in text list", item)
				}
				texts = append(texts, s)
			}
			return TextList(texts...), nil
		case float64, int, int64:
			numbers := make([]float64, 0, len(v))
			for _, item := range v {
				n, err := FromInterface(item)
				if err != nil {
					return None(), err
				}
				f, ok := n.Number()
				if !ok {
					return None(), fmt.Errorf("mixed list: %T in number list", item)
				}
				numbers = append(numbers, f)
			}
			return NumberList(numbers...), nil
		}
		return None(), fmt.Errorf("list of %T not supported", v[0])
	}
	return None(), fmt.Errorf("type %T not supported", i)
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt:
		return fmt.Sprint(v.integer)
	case KindFloat:
		return fmt.Sprint(v.number)
	case KindInstant:
		return v.from.Format(time.RFC3339Nano)
	case KindRange:
		return v.from.Format(time.RFC3339Nano) + " - " + v.to.Format(time.RFC3339Nano)
	case KindTextList:
		return strings.Join(v.texts, ";")
	case KindNumberList:
		parts := make([]string, len(v.numbers))
		for i, n := range v.numbers {
			parts[i] = fmt.Sprint(n)
		}
		return strings.Join(parts, ";")
	}
	return ""
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindInt:
		return v.integer == other.integer
	case KindFloat:
		return v.number == other.number
	case KindInstant:
		return v.from.Equal(other.from)
	case KindRange:
		return v.from.Equal(other.from) && v.to.Equal(other.to)
	case KindTextList:
		if len(v.texts) != len(other.texts) {
			return false
		}
		for i := range v.texts {
			if v.texts[i] != other.texts[i] {
				return false
			}
		}
		return true
	case KindNumberList:
		if len(v.numbers) != len(other.numbers) {
			return false
		}
		for i := range v.numbers {
			if v.numbers[i] != other.numbers[i] {
				return false
			}
		}
		return true
	}
	return true
}
