package transcript

import (
	"context"
	"runtime/trace"
)

// withTraceRegion runs fn inside a runtime/trace region so captures show up
// as named spans under `go tool trace`.
func withTraceRegion[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	var value T
	var err error
	trace.WithRegion(ctx, name, func() {
		value, err = fn()
	})
	return value, err
}
