package apiviewv1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
)

type searchRequest struct {
	scanRequest `json:",inline"`

	Query string `json:"query"`
	// MaxHits bounds the hits kept by the search; 0 keeps them all.
	MaxHits int `json:"maxHits"`
}

// search runs a full text search and returns the hits walking Direction,
// which defaults to nextHit. The number of hits goes in X-Search-Hits.
func search(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &searchRequest{
		scanRequest: scanRequest{
			Direction: "nextHit",
			Limit:     -1,
		},
	}
	err := readInput(r, input)
	if err != nil {
		return err
	}
	if input.Query == "" {
		return fmt.Errorf("%w: empty query", cursor.ErrInvalidArgument)
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	return scanView(ctx, w, viewName, &input.scanRequest, func(ctx context.Context, e *cursor.Engine) (bool, error) {
		hits, err := e.Search(ctx, input.Query, input.MaxHits)
		if err != nil {
			return false, err
		}
		w.Header().Set("X-Search-Hits", strconv.Itoa(hits))
		return hits > 0, nil
	})
}
