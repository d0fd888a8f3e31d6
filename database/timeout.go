package database

import (
	"context"
	"time"
)

// WithTimeout bounds a store call. A non-positive d only adds cancellation.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
