package api

import (
	"context"
	"errors"
	"sync"

	"github.com/fulldump/box"
	"golang.org/x/time/rate"
)

var ErrTooManyRequests = errors.New("too many requests")

// limiterPool keeps one token bucket per client, keyed by API key or
// remote address.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// RateLimit rejects clients going over rps requests per second. A burst
// below 1 defaults to rps rounded up.
func RateLimit(rps float64, burst int) box.I {
	if burst < 1 {
		burst = int(rps) + 1
	}
	pool := &limiterPool{
		m:     map[string]*rate.Limiter{},
		rps:   rps,
		burst: burst,
	}
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			key := r.Header.Get("X-Api-Key")
			if key == "" {
				key = formatRemoteAddr(r)
			}
			if !pool.get(key).Allow() {
				box.SetError(ctx, ErrTooManyRequests)
				return
			}
			next(ctx)
		}
	}
}
