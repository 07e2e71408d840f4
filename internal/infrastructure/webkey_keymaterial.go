package infrastructure

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	webkeydomain "github.com/iamcore/iamcore/internal/domain/webkey"
)

// KeyMaterial is the capability that turns a bare "generate an RS256/ES256
// web key" request into an actual keypair plus its public JWK representation.
// internal/domain/webkey never imports a crypto package itself (the Generate
// command carries an already-produced PublicJWK); this is the thing callers
// use to produce that value before issuing the command.
type KeyMaterial struct{}

func NewKeyMaterial() *KeyMaterial { return &KeyMaterial{} }

// GeneratedKey is the private/public pair produced for one web key. PrivateKey
// is held in memory only long enough to sign the self-test token below and to
// hand back to whatever secrets store the caller uses; it is never part of
// any event payload.
type GeneratedKey struct {
	Algorithm  webkeydomain.Algorithm
	PrivateKey any
	PublicJWK  string
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// Generate produces a fresh keypair for the given algorithm and a JWK
// encoding its public half, matching the shape internal/infrastructure's
// WebKeyProjectionGORM stores and a JWKS endpoint would serve verbatim.
func (m *KeyMaterial) Generate(kid string, alg webkeydomain.Algorithm) (*GeneratedKey, error) {
	switch alg {
	case webkeydomain.AlgorithmRS256:
		return m.generateRSA(kid)
	case webkeydomain.AlgorithmES256:
		return m.generateEC(kid)
	default:
		return nil, fmt.Errorf("unsupported web key algorithm: %s", alg)
	}
}

func (m *KeyMaterial) generateRSA(kid string) (*GeneratedKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	pub := jwk{
		Kty: "RSA", Use: "sig", Alg: string(webkeydomain.AlgorithmRS256), Kid: kid,
		N: base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E: base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}
	encoded, err := json.Marshal(pub)
	if err != nil {
		return nil, fmt.Errorf("encode jwk: %w", err)
	}
	gk := &GeneratedKey{Algorithm: webkeydomain.AlgorithmRS256, PrivateKey: key, PublicJWK: string(encoded)}
	if err := selfTestRSA(key); err != nil {
		return nil, fmt.Errorf("self-test generated key: %w", err)
	}
	return gk, nil
}

func (m *KeyMaterial) generateEC(kid string) (*GeneratedKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ec key: %w", err)
	}
	size := (key.PublicKey.Curve.Params().BitSize + 7) / 8
	x := key.PublicKey.X.Bytes()
	y := key.PublicKey.Y.Bytes()
	pub := jwk{
		Kty: "EC", Use: "sig", Alg: string(webkeydomain.AlgorithmES256), Kid: kid, Crv: "P-256",
		X: base64.RawURLEncoding.EncodeToString(leftPad(x, size)),
		Y: base64.RawURLEncoding.EncodeToString(leftPad(y, size)),
	}
	encoded, err := json.Marshal(pub)
	if err != nil {
		return nil, fmt.Errorf("encode jwk: %w", err)
	}
	gk := &GeneratedKey{Algorithm: webkeydomain.AlgorithmES256, PrivateKey: key, PublicJWK: string(encoded)}
	if err := selfTestEC(key); err != nil {
		return nil, fmt.Errorf("self-test generated key: %w", err)
	}
	return gk, nil
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// selfTestRSA signs and verifies one throwaway token with the freshly
// generated key, so a generation-time signing failure (e.g. a malformed key)
// surfaces immediately instead of on the first real token issued with it.
func selfTestRSA(key *rsa.PrivateKey) error {
	return selfTestSignVerify(jwt.SigningMethodRS256, key, &key.PublicKey)
}

func selfTestEC(key *ecdsa.PrivateKey) error {
	return selfTestSignVerify(jwt.SigningMethodES256, key, &key.PublicKey)
}

func selfTestSignVerify(method jwt.SigningMethod, signKey, verifyKey any) error {
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": "web-key-self-test",
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString(signKey)
	if err != nil {
		return fmt.Errorf("sign self-test token: %w", err)
	}
	_, err = jwt.Parse(signed, func(*jwt.Token) (any, error) { return verifyKey, nil })
	if err != nil {
		return fmt.Errorf("verify self-test token: %w", err)
	}
	return nil
}
