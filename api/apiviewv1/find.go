package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/lookup"
)

type findRequest struct {
	collationInput `json:",inline"`
	keysInput      `json:",inline"`

	// Name searches the first sorted column and takes precedence over Keys.
	Name string `json:"name"`
}

// find positions on the keys without reading. Nothing found answers a count
// of zero, not an error.
func find(ctx context.Context, r *http.Request) (*lookup.FindResult, error) {

	input := &findRequest{}
	err := readInput(r, input)
	if err != nil {
		return nil, err
	}

	flags, err := input.flags()
	if err != nil {
		return nil, err
	}
	keys, err := input.values()
	if err != nil {
		return nil, err
	}

	viewName := box.GetUrlParameter(ctx, "viewName")

	var result lookup.FindResult
	err = GetServicer(ctx).WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {
		err := input.apply(ctx, e)
		if err != nil {
			return err
		}
		if input.Name != "" {
			result, err = e.FindByName(ctx, input.Name, flags)
		} else {
			result, err = e.FindByKey(ctx, flags, keys...)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
