package apiviewv1

import (
	"context"

	"github.com/fulldump/inceptionview/service"
)

type contextKey string

const ContextServicerKey contextKey = "ba8bd2b2-36e5-4a41-8b1d-bd41f3f29e8c"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	s, _ := ctx.Value(ContextServicerKey).(service.Servicer)
	return s
}
