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

func newTestOrgProjection(t *testing.T) *OrgProjectionGORM {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	proj := NewOrgProjectionGORM(db)
	require.NoError(t, proj.Migrate())
	return proj
}

func env(instanceID, orgID, eventType string, payload any) esdomain.EventEnvelope[any] {
	return esdomain.EventEnvelope[any]{InstanceID: instanceID, AggregateType: "org", AggregateID: orgID, EventType: eventType, Payload: payload}
}

func TestOrgProjectionGORM_AddedThenChanged(t *testing.T) {
	proj := newTestOrgProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o1", "org.added", map[string]any{"name": "Acme"}),
	}))
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o1", "org.changed", map[string]any{"name": "Acme Corp"}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "o1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Acme Corp", row.Name)
	assert.Equal(t, "ACTIVE", row.State)
}

func TestOrgProjectionGORM_DomainLifecycle(t *testing.T) {
	proj := newTestOrgProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o2", "org.added", map[string]any{"name": "Acme"}),
		env("inst-1", "o2", "org.domain.added", map[string]any{"name": "acme.com", "verifyCode": "abc"}),
		env("inst-1", "o2", "org.domain.verified", map[string]any{"name": "acme.com"}),
		env("inst-1", "o2", "org.domain.primary.set", map[string]any{"name": "acme.com"}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "o2")
	require.NoError(t, err)
	require.Len(t, row.Domains, 1)
	assert.True(t, row.Domains[0].Verified)
	assert.True(t, row.Domains[0].Primary)
}

func TestOrgProjectionGORM_RemovedDeletesRowAndChildren(t *testing.T) {
	proj := newTestOrgProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o3", "org.added", map[string]any{"name": "Acme"}),
		env("inst-1", "o3", "org.member.added", map[string]any{"userId": "u1", "roles": []string{"admin"}}),
		env("inst-1", "o3", "org.removed", struct{}{}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "o3")
	require.NoError(t, err)
	assert.Nil(t, row)

	members, err := proj.ListMembers(ctx, "inst-1", "o3")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestOrgProjectionGORM_MemberLifecycle(t *testing.T) {
	proj := newTestOrgProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o4", "org.added", map[string]any{"name": "Acme"}),
		env("inst-1", "o4", "org.member.added", map[string]any{"userId": "u1", "roles": []string{"admin"}}),
		env("inst-1", "o4", "org.member.changed", map[string]any{"userId": "u1", "roles": []string{"editor", "viewer"}}),
	}))

	members, err := proj.ListMembers(ctx, "inst-1", "o4")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.ElementsMatch(t, []string{"editor", "viewer"}, members[0].Roles)

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		env("inst-1", "o4", "org.member.removed", map[string]any{"userId": "u1"}),
	}))
	members, err = proj.ListMembers(ctx, "inst-1", "o4")
	require.NoError(t, err)
	assert.Empty(t, members)
}
