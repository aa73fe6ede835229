package tracking

import (
	"context"
	"time"
)

type nowKey struct{}

// WithNow pins the commit timestamp in ctx so every audit row written for
// the same commit carries the same time.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// NowFrom returns the timestamp pinned by WithNow.
func NowFrom(ctx context.Context) (time.Time, bool) {
	now, ok := ctx.Value(nowKey{}).(time.Time)
	return now, ok
}
