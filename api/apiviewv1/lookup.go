package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/lookup"
)

type lookupRequest struct {
	collationInput `json:",inline"`
	keysInput      `json:",inline"`
	outputInput    `json:",inline"`
}

// lookupByKey returns every entry matching the keys, one per line.
func lookupByKey(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	input := &lookupRequest{
		outputInput: outputInput{
			Fields: []string{"noteId", "summary"},
		},
	}
	err := readInput(r, input)
	if err != nil {
		return err
	}

	flags, err := input.flags()
	if err != nil {
		return err
	}
	keys, err := input.values()
	if err != nil {
		return err
	}
	mask, err := input.mask()
	if err != nil {
		return err
	}

	viewName := box.GetUrlParameter(ctx, "viewName")
	s := GetServicer(ctx)
	col, err := s.Collection(viewName)
	if err != nil {
		return err
	}
	decodeColumns := input.decodeColumns(col.Definition().ColumnNames())

	return s.WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {
		err := input.apply(ctx, e)
		if err != nil {
			return err
		}

		var entries []lookup.ViewEntry
		entries, err = e.LookupAllByKey(ctx, flags, mask, decodeColumns, keys...)
		if err != nil {
			return err
		}

		return writeEntries(ctx, w, e, entries, mask, input.Documents)
	})
}
