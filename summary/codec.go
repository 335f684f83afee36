package summary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoKeys       = errors.New("no search keys specified")
	ErrInvalidKey   = errors.New("invalid search key")
	ErrShortBuffer  = errors.New("short summary buffer")
	ErrValueTooLong = errors.New("summary value too long")
)

const maxItemLength = math.MaxUint16

// AppendValue writes v at the end of buf: one kind byte followed by the payload.
func AppendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, byte(v.kind))

	switch v.kind {
	case KindNone:
	case KindText:
		return appendText(buf, v.text)
	case KindInt:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.integer))
	case KindFloat:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.number))
	case KindInstant:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.from.UnixNano()))
	case KindRange:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.from.UnixNano()))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.to.UnixNano()))
	case KindTextList:
		if len(v.texts) > maxItemLength {
			return nil, fmt.Errorf("%w: %d list items", ErrValueTooLong, len(v.texts))
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.texts)))
		var err error
		for _, t := range v.texts {
			buf, err = appendText(buf, t)
			if err != nil {
				return nil, err
			}
		}
	case KindNumberList:
		if len(v.numbers) > maxItemLength {
			return nil, fmt.Errorf("%w: %d list items", ErrValueTooLong, len(v.numbers))
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.numbers)))
		for _, n := range v.numbers {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(n))
		}
	default:
		return nil, fmt.Errorf("unknown kind %d", v.kind)
	}

	return buf, nil
}

func appendText(buf []byte, s string) ([]byte, error) {
	if len(s) > maxItemLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLong, len(s))
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

// ReadValue decodes the value at the start of buf and returns the remaining bytes.
func ReadValue(buf []byte) (Value, []byte, error) {
	if len(buf) < 1 {
		return None(), nil, ErrShortBuffer
	}
	kind := Kind(buf[0])
	buf = buf[1:]

	switch kind {
	case KindNone:
		return None(), buf, nil
	case KindText:
		s, rest, err := readText(buf)
		if err != nil {
			return None(), nil, err
		}
		return Text(s), rest, nil
	case KindInt:
		u, rest, err := readUint64(buf)
		if err != nil {
			return None(), nil, err
		}
		return Int(int64(u)), rest, nil
	case KindFloat:
		u, rest, err := readUint64(buf)
		if err != nil {
			return None(), nil, err
		}
		return Float(math.Float64frombits(u)), rest, nil
	case KindInstant:
		u, rest, err := readUint64(buf)
		if err != nil {
			return None(), nil, err
		}
		return Instant(time.Unix(0, int64(u))), rest, nil
	case KindRange:
		from, rest, err := readUint64(buf)
		if err != nil {
			return None(), nil, err
		}
		to, rest, err := readUint64(rest)
		if err != nil {
			return None(), nil, err
		}
		return Range(time.Unix(0, int64(from)), time.Unix(0, int64(to))), rest, nil
	case KindTextList:
		n, rest, err := readUint16(buf)
		if err != nil {
			return None(), nil, err
		}
		texts := make([]string, 0, n)
		for i := 0; i < int(n); i++ {
			var s string
			s, rest, err = readText(rest)
			if err != nil {
				return None(), nil, err
			}
			texts = append(texts, s)
		}
		return Value{kind: KindTextList, texts: texts}, rest, nil
	case KindNumberList:
		n, rest, err := readUint16(buf)
		if err != nil {
			return None(), nil, err
		}
		numbers := make([]float64, 0, n)
		for i := 0; i < int(n); i++ {
			var u uint64
			u, rest, err = readUint64(rest)
			if err != nil {
				return None(), nil, err
			}
			numbers = append(numbers, math.Float64frombits(u))
		}
		return Value{kind: KindNumberList, numbers: numbers}, rest, nil
	}

	return None(), nil, fmt.Errorf("unknown kind %d", kind)
}

// SkipValue advances over the value at the start of buf without decoding it.
func SkipValue(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, ErrShortBuffer
	}
	kind := Kind(buf[0])
	buf = buf[1:]

	fixed := 0
	switch kind {
	case KindNone:
		return buf, nil
	case KindInt, KindFloat, KindInstant:
		fixed = 8
	case KindRange:
		fixed = 16
	case KindText:
		n, rest, err := readUint16(buf)
		if err != nil {
			return nil, err
		}
		return skip(rest, int(n))
	case KindTextList:
		n, rest, err := readUint16(buf)
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(n); i++ {
			var l uint16
			l, rest, err = readUint16(rest)
			if err != nil {
				return nil, err
			}
			rest, err = skip(rest, int(l))
			if err != nil {
				return nil, err
			}
		}
		return rest, nil
	case KindNumberList:
		n, rest, err := readUint16(buf)
		if err != nil {
			return nil, err
		}
		return skip(rest, int(n)*8)
	default:
		return nil, fmt.Errorf("unknown kind %d", kind)
	}

	return skip(buf, fixed)
}

func skip(buf []byte, n int) ([]byte, error) {
	if len(buf) < n {
		return nil, ErrShortBuffer
	}
	return buf[n:], nil
}

func readUint16(buf []byte) (uint16, []byte, error) {
	if len(buf) < 2 {
		return 0, nil, ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(buf), buf[2:], nil
}

func readUint64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(buf), buf[8:], nil
}

func readText(buf []byte) (string, []byte, error) {
	n, rest, err := readUint16(buf)
	if err != nil {
		return "", nil, err
	}
	if len(rest) < int(n) {
		return "", nil, ErrShortBuffer
	}
	return string(rest[:n]), rest[n:], nil
}

// EncodeKeys serializes lookup keys in the layout the index comparator
// expects: a uint16 item count followed by one value per key component.
func EncodeKeys(keys ...Value) ([]byte, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if len(keys) > maxItemLength {
		return nil, fmt.Errorf("%w: too many keys", ErrInvalidKey)
	}

	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(keys)))
	var err error
	for i, key := range keys {
		if !key.kind.IsKey() {
			return nil, fmt.Errorf("%w: key %d of kind %s", ErrInvalidKey, i, key.kind)
		}
		buf, err = AppendValue(buf, key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
	}

	return buf, nil
}

func DecodeKeys(buf []byte) ([]Value, error) {
	n, rest, err := readUint16(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoKeys
	}

	keys := make([]Value, 0, n)
	for i := 0; i < int(n); i++ {
		var key Value
		key, rest, err = ReadValue(rest)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		if !key.kind.IsKey() {
			return nil, fmt.Errorf("%w: key %d of kind %s", ErrInvalidKey, i, key.kind)
		}
		keys = append(keys, key)
	}

	return keys, nil
}
