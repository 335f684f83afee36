package summary

import (
	"errors"
	"testing"
	"time"

	. "github.com/fulldump/biff"
)

func TestValue_RoundTrip(t *testing.T) {

	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	values := []Value{
		None(),
		Text("apple"),
		Text(""),
		Int(-42),
		Float(3.25),
		Instant(now),
		Range(now, now.Add(time.Hour)),
		TextList("a", "bb", "ccc"),
		NumberList(1, 2.5, -3),
	}

	buf := []byte{}
	var err error
	for _, v := range values {
		buf, err = AppendValue(buf, v)
		AssertNil(err)
	}

	rest := buf
	for _, expected := range values {
		var v Value
		v, rest, err = ReadValue(rest)
		AssertNil(err)
		AssertTrue(v.Equal(expected))
	}
	AssertEqual(len(rest), 0)
}

func TestSkipValue(t *testing.T) {

	buf, _ := AppendValue(nil, TextList("x", "yz"))
	buf, _ = AppendValue(buf, Range(time.Unix(10, 0), time.Unix(20, 0)))
	buf, _ = AppendValue(buf, Text("last"))

	rest, err := SkipValue(buf)
	AssertNil(err)
	rest, err = SkipValue(rest)
	AssertNil(err)

	v, rest, err := ReadValue(rest)
	AssertNil(err)
	AssertEqual(v.String(), "last")
	AssertEqual(len(rest), 0)
}

func TestReadValue_Short(t *testing.T) {

	buf, _ := AppendValue(nil, Text("truncated"))

	_, _, err := ReadValue(buf[:4])
	AssertTrue(errors.Is(err, ErrShortBuffer))

	_, err = SkipValue(buf[:4])
	AssertTrue(errors.Is(err, ErrShortBuffer))

	_, _, err = ReadValue(nil)
	AssertTrue(errors.Is(err, ErrShortBuffer))
}

func TestEncodeKeys(t *testing.T) {

	t.Run("no keys", func(t *testing.T) {
		_, err := EncodeKeys()
		AssertTrue(errors.Is(err, ErrNoKeys))
	})

	t.Run("list is not a key", func(t *testing.T) {
		_, err := EncodeKeys(Text("a"), TextList("b"))
		AssertTrue(errors.Is(err, ErrInvalidKey))
	})

	t.Run("none is not a key", func(t *testing.T) {
		_, err := EncodeKeys(None())
		AssertTrue(errors.Is(err, ErrInvalidKey))
	})

	t.Run("positional", func(t *testing.T) {
		day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		keys := []Value{Text("cherry"), Int(7), Float(0.5), Instant(day), Range(day, day.AddDate(0, 1, 0))}

		buf, err := EncodeKeys(keys...)
		AssertNil(err)

		decoded, err := DecodeKeys(buf)
		AssertNil(err)
		AssertEqual(len(decoded), len(keys))
		for i := range keys {
			AssertTrue(decoded[i].Equal(keys[i]))
		}
	})
}

func TestCompare(t *testing.T) {

	AssertEqual(Compare(Int(2), Float(2.5)), -1)
	AssertEqual(Compare(Float(2), Int(2)), 0)
	AssertEqual(Compare(Text("Apple"), Text("apple")), 0)
	AssertEqual(Compare(Text("banana"), Text("Apple")), 1)
	AssertEqual(Compare(None(), Text("a")), -1)
	AssertEqual(Compare(Int(100), Text("1")), -1)

	early := time.Unix(100, 0)
	late := time.Unix(200, 0)
	AssertEqual(Compare(Instant(early), Instant(late)), -1)
	AssertEqual(Compare(Range(late, late), Instant(early)), 1)
	AssertEqual(Compare(Range(early, late), Instant(early)), 0)
}

func TestCompareKeys_Prefix(t *testing.T) {

	columns := []Value{Text("cherry"), Int(3)}

	AssertEqual(CompareKeys([]Value{Text("cherry")}, columns), 0)
	AssertEqual(CompareKeys([]Value{Text("cherry"), Int(3)}, columns), 0)
	AssertEqual(CompareKeys([]Value{Text("cherry"), Int(4)}, columns), -1)
	AssertEqual(CompareKeys([]Value{Text("banana")}, columns), 1)
}

func TestFromInterface(t *testing.T) {

	v, err := FromInterface([]interface{}{"a", "b"})
	AssertNil(err)
	AssertEqual(v.Kind(), KindTextList)

	v, err = FromInterface([]interface{}{1.0, 2})
	AssertNil(err)
	AssertEqual(v.Kind(), KindNumberList)

	_, err = FromInterface([]interface{}{"a", 1.0})
	AssertNotNil(err)

	_, err = FromInterface(map[string]interface{}{})
	AssertNotNil(err)

	v, err = FromInterface(nil)
	AssertNil(err)
	AssertTrue(v.IsNone())
}
