package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited throttles calls to the wrapped provider. Waiting counts against the
// caller's context, so an attempt deadline also bounds time spent queued.
type Limited struct {
	Provider
	limiter *rate.Limiter
}

func NewLimited(p Provider, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{Provider: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.Provider.Generate(ctx, system, prompt)
}
