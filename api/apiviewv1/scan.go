package apiviewv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/lookup"
	"github.com/fulldump/inceptionview/navigate"
)

type scanRequest struct {
	collationInput `json:",inline"`
	outputInput    `json:",inline"`
	filterInput    `json:",inline"`

	Start     string `json:"start"`
	Skip      int    `json:"skip"`
	Direction string `json:"direction"`
	// Limit < 0 reads to the end.
	Limit     int `json:"limit"`
	BatchSize int `json:"batchSize"`
}

func scan(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &scanRequest{
		Direction: "next",
		Limit:     -1,
	}
	err := readInput(r, input)
	if err != nil {
		return err
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	return scanView(ctx, w, viewName, input, nil)
}

// scanView runs input against the view. prepare, when given, runs on the
// engine before scanning.
func scanView(ctx context.Context, w http.ResponseWriter, viewName string, input *scanRequest, prepare func(ctx context.Context, e *cursor.Engine) (bool, error)) error {

	direction, err := navigate.Parse(input.Direction)
	if err != nil {
		return fmt.Errorf("%w: %s", cursor.ErrInvalidArgument, err)
	}

	mask, err := input.mask()
	if err != nil {
		return err
	}

	s := GetServicer(ctx)
	col, err := s.Collection(viewName)
	if err != nil {
		return err
	}

	decodeColumns := input.decodeColumns(col.Definition().ColumnNames())
	if len(input.Filter) > 0 {
		mask |= lookup.ReadSummary
		decodeColumns = nil
	}

	return s.WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {

		err := input.apply(ctx, e)
		if err != nil {
			return err
		}

		if prepare != nil {
			proceed, err := prepare(ctx, e)
			if err != nil || !proceed {
				return err
			}
		}

		var filterErr error
		entries, err := e.Scan(ctx, cursor.ScanRequest{
			Start:         input.Start,
			Skip:          input.Skip,
			Direction:     direction,
			Count:         input.Limit,
			BatchSize:     input.BatchSize,
			Mask:          mask,
			DecodeColumns: decodeColumns,
			Predicate:     input.predicate(&filterErr),
		})
		if err != nil {
			return err
		}
		if filterErr != nil {
			return filterErr
		}

		return writeEntries(ctx, w, e, entries, mask, input.Documents)
	})
}
