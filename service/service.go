package service

import (
	"context"

	"github.com/fulldump/inceptionview/collation"
	"github.com/fulldump/inceptionview/collection"
	"github.com/fulldump/inceptionview/cursor"
	"github.com/fulldump/inceptionview/database"
	"github.com/fulldump/inceptionview/metrics"
	"github.com/fulldump/inceptionview/registry"
)

type Options struct {
	Registry           *registry.Registry
	Metrics            *metrics.Metrics
	MaxConflictRetries int
	BatchSize          int
}

type Service struct {
	db      *database.Database
	options Options
}

func NewService(db *database.Database, options Options) *Service {
	if options.Registry == nil {
		options.Registry = registry.Default()
	}
	return &Service{
		db:      db,
		options: options,
	}
}

type View struct {
	Name       string              `json:"name"`
	Total      int                 `json:"total"`
	Sequence   uint32              `json:"sequence"`
	Columns    []collection.Column `json:"columns"`
	Collations []collation.Info    `json:"collations"`
}

func newView(c *collection.Collection) *View {
	def := c.Definition()
	return &View{
		Name:       def.Name,
		Total:      c.Len(),
		Sequence:   c.Sequence(),
		Columns:    def.Columns,
		Collations: c.Collations().List(),
	}
}

func (s *Service) CreateView(def *collection.Definition) (*View, error) {
	c, err := s.db.CreateView(def)
	if err != nil {
		return nil, err
	}
	return newView(c), nil
}

func (s *Service) GetView(name string) (*View, error) {
	c, err := s.db.GetView(name)
	if err != nil {
		return nil, err
	}
	return newView(c), nil
}

func (s *Service) ListViews() ([]*View, error) {
	result := []*View{}
	for _, name := range s.db.ListViews() {
		c, err := s.db.GetView(name)
		if err != nil {
			continue // dropped meanwhile
		}
		result = append(result, newView(c))
	}
	return result, nil
}

func (s *Service) DropView(name string) error {
	return s.db.DropView(name)
}

func (s *Service) Collection(name string) (*collection.Collection, error) {
	return s.db.GetView(name)
}

// WithEngine opens a handle on the view, registers it for the duration of fn
// and gives fn an engine bound to it. The handle and any search started by
// fn are released when fn returns.
func (s *Service) WithEngine(ctx context.Context, name string, fn func(ctx context.Context, e *cursor.Engine) error) error {

	c, err := s.db.GetView(name)
	if err != nil {
		return err
	}

	open := func(ctx context.Context) (*collection.Handle, error) {
		return c.OpenHandle(), nil
	}

	return registry.Scoped(ctx, s.options.Registry, "handle", open, func(ctx context.Context, h *collection.Handle) error {
		e := cursor.New(h, cursor.Options{
			MaxConflictRetries: s.options.MaxConflictRetries,
			BatchSize:          s.options.BatchSize,
			Metrics:            s.options.Metrics,
			Registry:           s.options.Registry,
		})
		defer e.Close(ctx)

		return fn(ctx, e)
	})
}
