package infrastructure

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iamcore/iamcore/internal/domain/enckey"
)

func newTestEncryptionKeyStore(t *testing.T) *EncryptionKeyGORMStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	store := NewEncryptionKeyGORMStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestEncryptionKeyGORMStore_AddGetRemove(t *testing.T) {
	store := newTestEncryptionKeyStore(t)
	ctx := context.Background()

	k := enckey.Key{InstanceID: "inst-1", Identifier: "kid-1", Algorithm: "AES-256-GCM", Material: "base64-material"}
	require.NoError(t, store.Add(ctx, k))

	got, err := store.Get(ctx, "inst-1", "kid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, k, *got)

	require.NoError(t, store.Remove(ctx, "inst-1", "kid-1"))
	got, err = store.Get(ctx, "inst-1", "kid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEncryptionKeyGORMStore_GetReturnsNilWhenMissing(t *testing.T) {
	store := newTestEncryptionKeyStore(t)
	got, err := store.Get(context.Background(), "inst-1", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEncryptionKeyGORMStore_AddRejectsDuplicateIdentifier(t *testing.T) {
	store := newTestEncryptionKeyStore(t)
	ctx := context.Background()
	k := enckey.Key{InstanceID: "inst-1", Identifier: "kid-1", Algorithm: "AES-256-GCM", Material: "m1"}
	require.NoError(t, store.Add(ctx, k))

	err := store.Add(ctx, k)
	assert.Error(t, err)
}

func TestEncryptionKeyGORMStore_ListIsScopedPerInstance(t *testing.T) {
	store := newTestEncryptionKeyStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, enckey.Key{InstanceID: "inst-1", Identifier: "a", Material: "m"}))
	require.NoError(t, store.Add(ctx, enckey.Key{InstanceID: "inst-1", Identifier: "b", Material: "m"}))
	require.NoError(t, store.Add(ctx, enckey.Key{InstanceID: "inst-2", Identifier: "c", Material: "m"}))

	keys, err := store.List(ctx, "inst-1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
