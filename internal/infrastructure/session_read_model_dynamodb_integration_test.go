//go:build integration

package infrastructure

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// newTestDynamoDBSessionReadModel spins up amazon/dynamodb-local the same
// way postgres_store_integration_test.go spins up a real Postgres: gated
// behind the integration build tag since it needs a container runtime.
func newTestDynamoDBSessionReadModel(t *testing.T) *SessionReadModelDynamoDB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "amazon/dynamodb-local:2.5.2",
		ExposedPorts: []string{"8000/tcp"},
		WaitingFor:   wait.ForListeningPort("8000/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8000/tcp")
	require.NoError(t, err)
	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())

	client := dynamodb.New(dynamodb.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(endpoint),
	})

	rm := NewSessionReadModelDynamoDB(client, "iam_sessions_test", "user-index", "org-index")
	require.NoError(t, rm.CreateTableIfNotExists(ctx))
	return rm
}

func sessionAddedEventDynamo(instanceID, userID, orgID, sessionID string) esdomain.EventEnvelope[any] {
	return esdomain.EventEnvelope[any]{
		InstanceID: instanceID, AggregateType: "instance.session", AggregateID: sessionID,
		EventType: "session.added",
		Payload:   map[string]any{"userId": userID, "orgId": orgID},
	}
}

func TestIntegration_SessionReadModelDynamoDB_AddThenGet(t *testing.T) {
	rm := newTestDynamoDBSessionReadModel(t)
	ctx := context.Background()

	require.NoError(t, rm.Apply(ctx, []esdomain.EventEnvelope[any]{
		sessionAddedEventDynamo("inst-1", "user-1", "org-1", "sess-1"),
	}))

	got, err := rm.GetByID(ctx, "inst-1", "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "ACTIVE", got.State)
}

func TestIntegration_SessionReadModelDynamoDB_ListAndTerminate(t *testing.T) {
	rm := newTestDynamoDBSessionReadModel(t)
	ctx := context.Background()

	require.NoError(t, rm.Apply(ctx, []esdomain.EventEnvelope[any]{
		sessionAddedEventDynamo("inst-2", "user-2", "org-2", "sess-2"),
		sessionAddedEventDynamo("inst-2", "user-2", "org-2", "sess-3"),
	}))

	ids, err := rm.ListActiveIDsByUser(ctx, "inst-2", "user-2")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, rm.Apply(ctx, []esdomain.EventEnvelope[any]{{
		InstanceID: "inst-2", AggregateType: "instance.session", AggregateID: "sess-2",
		EventType: "session.terminated", Payload: map[string]any{},
	}}))

	ids, err = rm.ListActiveIDsByUser(ctx, "inst-2", "user-2")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, "sess-3", ids[0])
}
