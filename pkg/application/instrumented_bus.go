package application

import (
	"context"
	"time"

	"github.com/iamcore/iamcore/pkg/domain"
)

// NewInstrumentedCommandBus wraps a CommandBus so that every handler
// registered on it — regardless of which entity package calls Register —
// picks up a fixed baseline of logging, panic-safe error wrapping, metrics,
// and optimistic-concurrency retry, without every call site having to pass
// the same middleware list itself.
func NewInstrumentedCommandBus(inner CommandBus, metrics MetricsCollector) CommandBus {
	return &decoratingCommandBus{
		inner: inner,
		baseline: []Middleware[Command, struct{}]{
			ErrorHandlingMiddleware[Command, struct{}](),
			LoggingMiddleware[Command, struct{}](),
			MetricsMiddleware[Command, struct{}](metrics),
			RetryOnConcurrencyConflictMiddleware[Command, struct{}](3, 10*time.Millisecond),
		},
	}
}

// NewInstrumentedQueryBus is the query-side equivalent of
// NewInstrumentedCommandBus. It omits the concurrency retry (queries never
// conflict) and leaves caching to callers that explicitly want it, since a
// blanket cache would serve stale projections after a write.
func NewInstrumentedQueryBus(inner QueryBus, metrics MetricsCollector) QueryBus {
	return &decoratingQueryBus{
		inner: inner,
		baseline: []Middleware[Query, any]{
			ErrorHandlingMiddleware[Query, any](),
			LoggingMiddleware[Query, any](),
			MetricsMiddleware[Query, any](metrics),
		},
	}
}

type decoratingCommandBus struct {
	inner    CommandBus
	baseline []Middleware[Command, struct{}]
}

func (b *decoratingCommandBus) Handle(ctx context.Context, logger domain.Logger, cmd Command) error {
	return b.inner.Handle(ctx, logger, cmd)
}

func (b *decoratingCommandBus) Register(cmdType string, handler Handler[Command, struct{}], middleware ...Middleware[Command, struct{}]) {
	all := make([]Middleware[Command, struct{}], 0, len(b.baseline)+len(middleware))
	all = append(all, b.baseline...)
	all = append(all, middleware...)
	b.inner.Register(cmdType, handler, all...)
}

type decoratingQueryBus struct {
	inner    QueryBus
	baseline []Middleware[Query, any]
}

func (q *decoratingQueryBus) Handle(ctx context.Context, logger domain.Logger, query Query) (any, error) {
	return q.inner.Handle(ctx, logger, query)
}

func (q *decoratingQueryBus) Register(queryType string, handler Handler[Query, any], middleware ...Middleware[Query, any]) {
	all := make([]Middleware[Query, any], 0, len(q.baseline)+len(middleware))
	all = append(all, q.baseline...)
	all = append(all, middleware...)
	q.inner.Register(queryType, handler, all...)
}
