package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/gorilla/securecookie"
)

// CodeGen is the injected capability behind verification-code generation
// (email/phone/SMS OTP, domain-verification tokens). The upstream system
// this module replaces generated codes with Math.random(), which is not
// cryptographically secure; every method here is CSPRNG-backed.
type CodeGen interface {
	// OTP6 returns a 6-digit decimal one-time code, zero-padded.
	OTP6() (string, error)

	// Token32 returns a 32-character alphanumeric token for domain
	// verification, matching the `^[A-Za-z0-9]{16,64}$` format.
	Token32() (string, error)

	// Seal produces a tamper-evident envelope for a code so it can be
	// stored at rest (e.g. embedded in an event payload) without exposing
	// it to casual inspection; Open reverses it and fails closed if the
	// envelope was altered.
	Seal(code string) (string, error)
	Open(sealed string) (string, error)
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CSPRNGCodeGen is the default CodeGen, backed by crypto/rand and
// gorilla/securecookie for envelope sealing.
type CSPRNGCodeGen struct {
	codec *securecookie.SecureCookie
}

// NewCSPRNGCodeGen creates a CodeGen. hashKey and blockKey follow
// securecookie's conventions (32 or 64 bytes recommended for hashKey, 16/24/32
// for blockKey); pass a nil blockKey to disable encryption and only
// authenticate the envelope.
func NewCSPRNGCodeGen(hashKey, blockKey []byte) *CSPRNGCodeGen {
	return &CSPRNGCodeGen{codec: securecookie.New(hashKey, blockKey)}
}

func (g *CSPRNGCodeGen) OTP6() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (g *CSPRNGCodeGen) Token32() (string, error) {
	return randomAlphanumeric(32)
}

func randomAlphanumeric(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}

func (g *CSPRNGCodeGen) Seal(code string) (string, error) {
	sealed, err := g.codec.Encode("verification-code", code)
	if err != nil {
		return "", fmt.Errorf("seal code: %w", err)
	}
	return sealed, nil
}

func (g *CSPRNGCodeGen) Open(sealed string) (string, error) {
	var code string
	if err := g.codec.Decode("verification-code", sealed, &code); err != nil {
		return "", fmt.Errorf("open sealed code: %w", err)
	}
	return code, nil
}
