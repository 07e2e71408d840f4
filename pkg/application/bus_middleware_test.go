package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/domain"
)

// noopLogger discards everything; it exists so bus/middleware tests don't
// need a real logging backend wired in.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})          {}
func (noopLogger) Info(string, ...interface{})           {}
func (noopLogger) Warn(string, ...interface{})           {}
func (noopLogger) Error(string, ...interface{})          {}
func (noopLogger) Fatal(string, ...interface{})          {}
func (noopLogger) Debugf(string, ...interface{})         {}
func (noopLogger) Infof(string, ...interface{})          {}
func (noopLogger) Warnf(string, ...interface{})          {}
func (noopLogger) Errorf(string, ...interface{})         {}
func (noopLogger) Fatalf(string, ...interface{})         {}

// newTestMiddleware tracks execution order so the tests below can assert that
// middleware wraps in registration order (first registered runs outermost).
func newTestMiddleware(name string, execOrder *[]string) Middleware[Command, struct{}] {
	return func(next Handler[Command, struct{}]) Handler[Command, struct{}] {
		return func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
			*execOrder = append(*execOrder, name+"-before")
			response, err := next(ctx, logger, p)
			*execOrder = append(*execOrder, name+"-after")
			return response, err
		}
	}
}

type testCommand struct{}

func (c testCommand) CommandType() string { return "TestCommand" }

type testQuery struct{}

func (q testQuery) QueryType() string { return "TestQuery" }

func createTestCommandHandler(execOrder *[]string) Handler[Command, struct{}] {
	return func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
		*execOrder = append(*execOrder, "handler")
		return Response[struct{}]{}, nil
	}
}

func TestCommandBus_MiddlewareExecutionOrder(t *testing.T) {
	bus := NewCommandBus()
	execOrder := make([]string, 0)
	logger := noopLogger{}

	bus.Register("TestCommand", createTestCommandHandler(&execOrder),
		newTestMiddleware("first", &execOrder),
		newTestMiddleware("second", &execOrder),
	)

	require.NoError(t, bus.Handle(context.Background(), logger, testCommand{}))

	assert.Equal(t, []string{
		"first-before", "second-before", "handler", "second-after", "first-after",
	}, execOrder)
}

func TestCommandBus_UnregisteredCommandReturnsHandlerNotFound(t *testing.T) {
	bus := NewCommandBus()
	err := bus.Handle(context.Background(), noopLogger{}, testCommand{})

	var notFound HandlerNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "command", notFound.Kind)
}

func TestQueryBus_ReturnsHandlerResponseData(t *testing.T) {
	bus := NewQueryBus()
	bus.Register("TestQuery", func(ctx context.Context, logger domain.Logger, p Payload[Query]) (Response[any], error) {
		return Response[any]{Data: "result"}, nil
	})

	result, err := bus.Handle(context.Background(), noopLogger{}, testQuery{})
	require.NoError(t, err)
	assert.Equal(t, "result", result)
}

func TestRetryOnConcurrencyConflictMiddleware_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	base := Handler[Command, struct{}](func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
		attempts++
		if attempts < 3 {
			return Response[struct{}]{}, domain.NewConcurrencyConflict("TEST-001", "stale version", nil)
		}
		return Response[struct{}]{}, nil
	})

	wrapped := RetryOnConcurrencyConflictMiddleware[Command, struct{}](3, 0)(base)
	_, err := wrapped(context.Background(), noopLogger{}, Payload[Command]{Data: testCommand{}})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryOnConcurrencyConflictMiddleware_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	base := Handler[Command, struct{}](func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
		attempts++
		return Response[struct{}]{}, domain.NewConcurrencyConflict("TEST-001", "stale version", nil)
	})

	wrapped := RetryOnConcurrencyConflictMiddleware[Command, struct{}](3, 0)(base)
	_, err := wrapped(context.Background(), noopLogger{}, Payload[Command]{Data: testCommand{}})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryOnConcurrencyConflictMiddleware_DoesNotRetryOtherErrors(t *testing.T) {
	attempts := 0
	base := Handler[Command, struct{}](func(ctx context.Context, logger domain.Logger, p Payload[Command]) (Response[struct{}], error) {
		attempts++
		return Response[struct{}]{}, domain.NewNotFound("TEST-002", "not found")
	})

	wrapped := RetryOnConcurrencyConflictMiddleware[Command, struct{}](3, 0)(base)
	_, err := wrapped(context.Background(), noopLogger{}, Payload[Command]{Data: testCommand{}})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
