package api

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/fulldump/box"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authenticate checks the X-Api-Key and X-Api-Secret headers. An empty key
// disables it.
func Authenticate(apiKey, apiSecret string) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			if apiKey == "" {
				next(ctx)
				return
			}

			r := box.GetRequest(ctx)
			key := r.Header.Get("X-Api-Key")
			secret := r.Header.Get("X-Api-Secret")
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 ||
				subtle.ConstantTimeCompare([]byte(secret), []byte(apiSecret)) != 1 {
				box.SetError(ctx, ErrUnauthorized)
				return
			}

			next(ctx)
		}
	}
}
