package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/service"
)

func listViews(ctx context.Context) ([]*service.View, error) {
	return GetServicer(ctx).ListViews()
}

func createView(ctx context.Context, w http.ResponseWriter, input *collection.Definition) (*service.View, error) {

	view, err := GetServicer(ctx).CreateView(input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return view, nil
}

func getView(ctx context.Context) (*service.View, error) {
	viewName := box.GetUrlParameter(ctx, "viewName")
	return GetServicer(ctx).GetView(viewName)
}

func dropView(ctx context.Context, w http.ResponseWriter) error {
	viewName := box.GetUrlParameter(ctx, "viewName")

	err := GetServicer(ctx).DropView(viewName)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
