package session

import (
	"context"
	"errors"
)

// Lifecycle is a resource that must be released on every exit path.
type Lifecycle interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// Run opens l, calls fn, and closes l even when fn fails or panics. A close
// failure is joined with fn's error.
func Run(ctx context.Context, l Lifecycle, fn func(ctx context.Context) error) (err error) {
	if err := l.Open(ctx); err != nil {
		return err
	}

	defer func() {
		// Close with a context that survives cancellation of the caller's.
		closeErr := l.Close(context.WithoutCancel(ctx))
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(ctx)
}
