package apiviewv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/cursor"
)

func collations(ctx context.Context) ([]collation.Info, error) {

	viewName := box.GetUrlParameter(ctx, "viewName")

	var result []collation.Info
	err := GetServicer(ctx).WithEngine(ctx, viewName, func(ctx context.Context, e *cursor.Engine) error {
		result = e.Collations()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
