package infrastructure

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func newTestClientAppProjection(t *testing.T) *ClientAppProjectionGORM {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	proj := NewClientAppProjectionGORM(db)
	require.NoError(t, proj.Migrate())
	return proj
}

func clientAppEnv(instanceID, appID, eventType string, payload any) esdomain.EventEnvelope[any] {
	return esdomain.EventEnvelope[any]{InstanceID: instanceID, AggregateType: "project.application", AggregateID: appID, EventType: eventType, Payload: payload}
}

func TestClientAppProjectionGORM_OIDCAddedThenConfigChanged(t *testing.T) {
	proj := newTestClientAppProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		clientAppEnv("inst-1", "a1", "project.application.oidc.added", map[string]any{
			"projectId": "p1", "clientId": "client-1", "appType": "web", "redirectUris": []string{"https://example.com/cb"}, "authMethod": "BASIC",
		}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "a1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "OIDC", row.Type)
	assert.Equal(t, "client-1", row.ClientID)
	assert.Equal(t, "web", row.AppType)
	assert.Equal(t, []string{"https://example.com/cb"}, row.RedirectURIs)

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		clientAppEnv("inst-1", "a1", "project.application.oidc.config.changed", map[string]any{
			"appType": "native", "redirectUris": []string{"myapp://cb"},
		}),
	}))
	row, err = proj.GetByID(ctx, "inst-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "native", row.AppType)
}

func TestClientAppProjectionGORM_SAMLAddedAndUniqueness(t *testing.T) {
	proj := newTestClientAppProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		clientAppEnv("inst-1", "a2", "project.application.saml.added", map[string]any{
			"projectId": "p1", "entityId": "urn:example:sp", "metadata": "<xml/>",
		}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "a2")
	require.NoError(t, err)
	assert.Equal(t, "SAML", row.Type)
	assert.Equal(t, "<xml/>", row.Metadata)

	taken, err := proj.EntityIDTaken(ctx, "inst-1", "urn:example:sp")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = proj.EntityIDTaken(ctx, "inst-1", "urn:example:other")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestClientAppProjectionGORM_RemovedDeletesRow(t *testing.T) {
	proj := newTestClientAppProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		clientAppEnv("inst-1", "a3", "project.application.api.added", map[string]any{
			"projectId": "p1", "clientId": "client-3", "authMethod": "BASIC",
		}),
		clientAppEnv("inst-1", "a3", "project.application.removed", struct{}{}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "a3")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestClientAppProjectionGORM_ListByProjectID(t *testing.T) {
	proj := newTestClientAppProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		clientAppEnv("inst-1", "a4", "project.application.api.added", map[string]any{
			"projectId": "p1", "clientId": "client-4", "authMethod": "BASIC",
		}),
		clientAppEnv("inst-1", "a5", "project.application.api.added", map[string]any{
			"projectId": "p1", "clientId": "client-5", "authMethod": "BASIC",
		}),
		clientAppEnv("inst-1", "a6", "project.application.api.added", map[string]any{
			"projectId": "p2", "clientId": "client-6", "authMethod": "BASIC",
		}),
	}))

	rows, err := proj.ListByProjectID(ctx, "inst-1", "p1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
