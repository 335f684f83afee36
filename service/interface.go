package service

import (
	"context"

	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/cursor"
)

type Servicer interface {
	CreateView(def *collection.Definition) (*View, error)
	GetView(name string) (*View, error)
	ListViews() ([]*View, error)
	DropView(name string) error
	Collection(name string) (*collection.Collection, error)
	WithEngine(ctx context.Context, name string, fn func(ctx context.Context, e *cursor.Engine) error) error
}
