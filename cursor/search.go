package cursor

import (
	"context"
	"fmt"

	"github.com/fulldump/inceptionview/lookup"
)

// searchHandle closes the backend search when released from the registry.
type searchHandle struct {
	searcher Searcher
}

func (s *searchHandle) Close() error {
	return s.searcher.CloseSearch(context.Background())
}

// Search runs a full text search whose hits the Hit directions then walk. Any
// previous search of this engine is closed first. No match is not an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) (int, error) {
	if e.searcher == nil {
		return 0, fmt.Errorf("search: %w", ErrCapabilityUnavailable)
	}
	if query == "" {
		return 0, invalidArgument("empty query")
	}

	err := e.ClearSearch(ctx)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := e.searcher.FTSearch(ctx, query, limit)
	if lookup.Code(err) == lookup.StatusNoFTMatches {
		return 0, nil
	}
	if err != nil {
		return 0, translate("search", err)
	}

	e.search = e.options.Registry.Register("search", &searchHandle{searcher: e.searcher})
	e.searching = true

	return n, nil
}

// ClearSearch closes the active search, if any.
func (e *Engine) ClearSearch(ctx context.Context) error {
	if !e.searching {
		return nil
	}
	e.searching = false

	err := e.options.Registry.Release(e.search)
	if err != nil {
		return translate("close search", err)
	}
	return nil
}

// Searching reports whether a search is active.
func (e *Engine) Searching() bool {
	return e.searching
}
