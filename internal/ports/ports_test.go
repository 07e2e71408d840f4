package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedClock_AlwaysReturnsSameInstant(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := FixedClock{At: at}

	assert.Equal(t, at, clock.Now())
	assert.Equal(t, at, clock.Now())
}

func TestKSUIDGen_ProducesUniqueSortableIDs(t *testing.T) {
	gen := KSUIDGen{}
	a := gen.NextID()
	time.Sleep(time.Millisecond)
	b := gen.NextID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 27)
}

func TestBcryptPasswordHasher_HashAndVerifyRoundTrip(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4) // low cost: fast tests

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	ok, err := hasher.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptPasswordHasher_RejectsOversizedPassword(t *testing.T) {
	hasher := NewBcryptPasswordHasher(4)
	oversized := make([]byte, 73)
	for i := range oversized {
		oversized[i] = 'a'
	}

	_, err := hasher.Hash(string(oversized))
	assert.Error(t, err)
}

func TestBasicPhoneNormalizer_AppliesDefaultRegionCode(t *testing.T) {
	n := BasicPhoneNormalizer{}

	got, err := n.Normalize("(555) 123-4567", "US")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", got)
}

func TestBasicPhoneNormalizer_PassesThroughExistingCountryCode(t *testing.T) {
	n := BasicPhoneNormalizer{}

	got, err := n.Normalize("+49 151 23456789", "DE")
	require.NoError(t, err)
	assert.Equal(t, "+4915123456789", got)
}

func TestBasicPhoneNormalizer_RejectsUnknownRegion(t *testing.T) {
	n := BasicPhoneNormalizer{}

	_, err := n.Normalize("5551234567", "ZZ")
	assert.Error(t, err)
}

func TestBasicPhoneNormalizer_RejectsEmptyInput(t *testing.T) {
	n := BasicPhoneNormalizer{}

	_, err := n.Normalize("   ", "US")
	assert.Error(t, err)
}
