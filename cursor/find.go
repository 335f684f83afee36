package cursor

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/summary"
)

func encodeKeys(keys []summary.Value) ([]byte, error) {
	encoded, err := summary.EncodeKeys(keys...)
	if errors.Is(err, summary.ErrNoKeys) || errors.Is(err, summary.ErrInvalidKey) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	return encoded, err
}

// findResult folds the "nothing matched" statuses into an empty result.
func (e *Engine) findResult(op string, p position.Position, count int, flags lookup.FindFlags, err error) (lookup.FindResult, error) {
	exact := flags.CanCountExactly()

	if lookup.IsNotFound(err) {
		e.metrics.Find("not_found")
		return lookup.FindResult{Count: 0, Exact: exact}, nil
	}
	if err != nil {
		e.metrics.Find("error")
		return lookup.FindResult{}, translate(op, err)
	}

	e.metrics.Find("found")
	return lookup.FindResult{
		Position: p.String(),
		Count:    count,
		Exact:    exact,
	}, nil
}

// FindByKey positions on the first entry matching keys. For LessThan and
// GreaterThan searches Count only tells that something matched and Exact is
// false.
func (e *Engine) FindByKey(ctx context.Context, flags lookup.FindFlags, keys ...summary.Value) (lookup.FindResult, error) {
	encoded, err := encodeKeys(keys)
	if err != nil {
		return lookup.FindResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return lookup.FindResult{}, err
	}

	p, count, err := e.index.FindByKey(ctx, encoded, flags)
	return e.findResult("find by key", p, count, flags, err)
}

// FindByName is FindByKey on the first sorted column with a text key.
func (e *Engine) FindByName(ctx context.Context, name string, flags lookup.FindFlags) (lookup.FindResult, error) {
	if name == "" {
		return lookup.FindResult{}, invalidArgument("empty name")
	}
	if err := ctx.Err(); err != nil {
		return lookup.FindResult{}, err
	}

	p, count, err := e.index.FindByName(ctx, name, flags)
	return e.findResult("find by name", p, count, flags, err)
}

// FindByKeyExtended2 positions and reads the matches in one call. Returned
// in the result is the number of matches, which may exceed len(Entries).
func (e *Engine) FindByKeyExtended2(ctx context.Context, flags lookup.FindFlags, mask lookup.ReadMask, decodeColumns []bool, keys ...summary.Value) (*lookup.LookupResult, error) {
	encoded, err := encodeKeys(keys)
	if err != nil {
		return nil, err
	}
	if !e.CanUseAtomicLookup(mask) {
		return nil, fmt.Errorf("%w: atomic lookup with mask %s on build %d", ErrUnsupportedForArguments, mask, e.index.BuildVersion())
	}

	result, _, err := e.findAndRead(ctx, encoded, flags, mask, decodeColumns)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findAndRead issues the atomic call. A nil buffer with a nil error means no
// match.
func (e *Engine) findAndRead(ctx context.Context, encoded []byte, flags lookup.FindFlags, mask lookup.ReadMask, decodeColumns []bool) (*lookup.LookupResult, *lookup.ReadBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	e.metrics.Read("lookup")
	buffer, err := e.index.FindByKeyExtended2(ctx, encoded, flags, mask)
	if lookup.IsNotFound(err) {
		e.metrics.Find("not_found")
		return &lookup.LookupResult{Entries: []lookup.ViewEntry{}}, nil, nil
	}
	if err != nil {
		e.metrics.Find("error")
		return nil, nil, translate("find and read", err)
	}
	e.metrics.Find("found")

	result, err := buffer.Decode(mask, decodeColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("find and read: %w", err)
	}
	return result, buffer, nil
}
