package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodeGen() *CSPRNGCodeGen {
	return NewCSPRNGCodeGen(
		[]byte("01234567890123456789012345678901"),
		[]byte("0123456789012345"),
	)
}

func TestCSPRNGCodeGen_OTP6IsSixDigits(t *testing.T) {
	g := newTestCodeGen()
	otp, err := g.OTP6()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), otp)
}

func TestCSPRNGCodeGen_OTP6ValuesVary(t *testing.T) {
	g := newTestCodeGen()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		otp, err := g.OTP6()
		require.NoError(t, err)
		seen[otp] = true
	}
	assert.Greater(t, len(seen), 1, "20 draws from a CSPRNG should not collapse to one value")
}

func TestCSPRNGCodeGen_Token32MatchesDomainVerificationFormat(t *testing.T) {
	g := newTestCodeGen()
	token, err := g.Token32()
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{16,64}$`), token)
}

func TestCSPRNGCodeGen_SealAndOpenRoundTrip(t *testing.T) {
	g := newTestCodeGen()
	sealed, err := g.Seal("482913")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "482913")

	opened, err := g.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "482913", opened)
}

func TestCSPRNGCodeGen_OpenRejectsTamperedEnvelope(t *testing.T) {
	g := newTestCodeGen()
	sealed, err := g.Seal("482913")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-1] + "x"
	_, err = g.Open(tampered)
	assert.Error(t, err)
}
