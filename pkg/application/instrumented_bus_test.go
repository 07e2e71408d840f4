package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/domain"
)

func TestInstrumentedCommandBus_RecordsMetricsAndWrapsUnexpectedErrors(t *testing.T) {
	metrics := NewInMemoryMetricsCollector()
	bus := NewInstrumentedCommandBus(NewCommandBus(), metrics)

	bus.Register(testCommand{}.CommandType(), func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
		return Response[struct{}]{}, errors.New("boom")
	})

	err := bus.Handle(context.Background(), noopLogger{}, testCommand{})
	require.Error(t, err)

	var appErr ApplicationError
	require.ErrorAs(t, err, &appErr)

	durations, errs := metrics.GetMetrics()
	assert.Len(t, durations[testCommand{}.CommandType()], 1)
	assert.Equal(t, int64(1), errs[testCommand{}.CommandType()])
}

func TestInstrumentedCommandBus_AppliesCallerMiddlewareAfterBaseline(t *testing.T) {
	metrics := NewInMemoryMetricsCollector()
	bus := NewInstrumentedCommandBus(NewCommandBus(), metrics)

	var order []string
	bus.Register(testCommand{}.CommandType(),
		func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
			order = append(order, "handler")
			return Response[struct{}]{}, nil
		},
		newTestMiddleware("caller", &order),
	)

	require.NoError(t, bus.Handle(context.Background(), noopLogger{}, testCommand{}))
	require.Equal(t, []string{"caller-before", "handler", "caller-after"}, order)
}

func TestInstrumentedQueryBus_RecordsMetrics(t *testing.T) {
	metrics := NewInMemoryMetricsCollector()
	bus := NewInstrumentedQueryBus(NewQueryBus(), metrics)

	bus.Register(testQuery{}.QueryType(), func(ctx context.Context, logger domain.Logger, p Payload[Query]) (Response[any], error) {
		return Response[any]{Data: "ok"}, nil
	})

	result, err := bus.Handle(context.Background(), noopLogger{}, testQuery{})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	durations, _ := metrics.GetMetrics()
	assert.Len(t, durations[testQuery{}.QueryType()], 1)
}
