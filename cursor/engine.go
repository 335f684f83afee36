// Package cursor walks a remotely maintained, sorted and categorized index
// through the narrow primitives its handle exposes. It turns bounded reads
// into complete scans and key lookups, restarting whenever the index reports
// that its structure changed underneath.
package cursor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/logger"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/navigate"
	"github.com/fulldump/inceptionview/position"
	"github.com/fulldump/inceptionview/registry"
)

// Index is what the engine needs from an open collection handle.
type Index interface {
	ReadEntries(ctx context.Context, start position.Position, skipNav navigate.Direction, skip int,
		returnNav navigate.Direction, count int, mask lookup.ReadMask) (*lookup.ReadBuffer, error)
	FindByKey(ctx context.Context, keys []byte, flags lookup.FindFlags) (position.Position, int, error)
	FindByName(ctx context.Context, name string, flags lookup.FindFlags) (position.Position, int, error)
	FindByKeyExtended2(ctx context.Context, keys []byte, flags lookup.FindFlags, mask lookup.ReadMask) (*lookup.ReadBuffer, error)
	Update(ctx context.Context) error
	Sequence(ctx context.Context) (uint32, error)
	LocateNote(ctx context.Context, noteID uint32) (position.Position, error)
	Collations() *collation.Map
	Collation(ctx context.Context) (int, error)
	SetCollation(ctx context.Context, slot int) error
	BuildVersion() uint16
}

// Searcher is implemented by indexes supporting full text search.
type Searcher interface {
	FTSearch(ctx context.Context, query string, limit int) (int, error)
	CloseSearch(ctx context.Context) error
}

// DocumentSource is implemented by indexes giving access to the documents
// behind their entries.
type DocumentSource interface {
	LoadDocuments(ctx context.Context, ids []uint32) (map[uint32]map[string]interface{}, error)
}

// MinAtomicBuild is the first backend build able to find and read in one call.
const MinAtomicBuild = 400

const DefaultMaxConflictRetries = 16

type Options struct {
	// MaxConflictRetries bounds the restarts caused by index changes. Zero
	// means DefaultMaxConflictRetries.
	MaxConflictRetries int
	// BatchSize is the number of entries requested per read when a scan does
	// not say. Zero lets the backend fill its buffer.
	BatchSize int
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Registry  *registry.Registry
}

// Engine is bound to one index handle and, like it, must not be used from
// several goroutines at once.
type Engine struct {
	index     Index
	searcher  Searcher
	documents DocumentSource
	options   Options
	logger    *slog.Logger
	metrics   *metrics.Metrics

	search    uuid.UUID
	searching bool
}

func New(index Index, options Options) *Engine {
	if options.MaxConflictRetries <= 0 {
		options.MaxConflictRetries = DefaultMaxConflictRetries
	}
	if options.Logger == nil {
		options.Logger = logger.WithComponent("cursor")
	}
	if options.Registry == nil {
		options.Registry = registry.Default()
	}

	e := &Engine{
		index:   index,
		options: options,
		logger:  options.Logger,
		metrics: options.Metrics,
	}
	e.searcher, _ = index.(Searcher)
	e.documents, _ = index.(DocumentSource)

	return e
}

// CanUseAtomicLookup reports whether the backend can position and read the
// given mask in a single call.
func (e *Engine) CanUseAtomicLookup(mask lookup.ReadMask) bool {
	return mask.Within(lookup.AtomicMask) && e.index.BuildVersion() >= MinAtomicBuild
}

// retry runs attempt until it completes without a structural conflict,
// refreshing the index before every restart.
func retry[T any](ctx context.Context, e *Engine, op string, attempt func() (T, bool, error)) (T, error) {
	for restarts := 0; ; restarts++ {
		result, conflict, err := attempt()
		if err != nil || !conflict {
			return result, err
		}

		if restarts >= e.options.MaxConflictRetries {
			e.metrics.ConflictExhausted(op)
			e.logger.Warn("giving up after repeated index changes", "operation", op, "restarts", restarts)
			var zero T
			return zero, fmt.Errorf("%s: %w (%d restarts)", op, ErrTooManyConflicts, restarts)
		}

		e.metrics.ConflictRestart(op)
		e.logger.Debug("index changed, restarting", "operation", op, "restart", restarts+1)

		err = e.index.Update(ctx)
		if err != nil {
			var zero T
			return zero, translate("update", err)
		}
	}
}

// read performs one bounded read and decodes it.
func (e *Engine) read(ctx context.Context, op string, start position.Position, skipNav navigate.Direction, skip int,
	returnNav navigate.Direction, count int, mask lookup.ReadMask, decodeColumns []bool) (*lookup.LookupResult, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.metrics.Read(op)
	buffer, err := e.index.ReadEntries(ctx, start, skipNav, skip, returnNav, count, mask)
	if err != nil {
		return nil, translate(op, err)
	}

	result, err := buffer.Decode(mask, decodeColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (e *Engine) LocateNote(ctx context.Context, noteID uint32) (string, error) {
	p, err := e.index.LocateNote(ctx, noteID)
	if err != nil {
		return "", translate("locate note", err)
	}
	return p.String(), nil
}

func (e *Engine) Collation(ctx context.Context) (int, error) {
	slot, err := e.index.Collation(ctx)
	if err != nil {
		return 0, translate("collation", err)
	}
	return slot, nil
}

// SetCollation switches the handle to slot; 0 is the default order.
func (e *Engine) SetCollation(ctx context.Context, slot int) error {
	if slot != 0 {
		_, err := e.index.Collations().SortItem(slot)
		if err != nil {
			return err
		}
	}
	return translate("set collation", e.index.SetCollation(ctx, slot))
}

// SetCollationByColumn switches to the slot sorting by column in direction.
func (e *Engine) SetCollationByColumn(ctx context.Context, column string, direction collation.Direction) error {
	slot, ok := e.index.Collations().Find(column, direction)
	if !ok {
		return fmt.Errorf("%w: column '%s' cannot be sorted %s", collation.ErrOutOfRange, column, direction)
	}
	return e.SetCollation(ctx, slot)
}

func (e *Engine) Collations() []collation.Info {
	return e.index.Collations().List()
}

// Close ends any active search.
func (e *Engine) Close(ctx context.Context) error {
	return e.ClearSearch(ctx)
}
