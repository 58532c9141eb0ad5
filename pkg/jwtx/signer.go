package jwtx

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer issues compact JWS tokens under a single key id.
type Signer interface {
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

type edSigner struct {
	kid  string
	priv ed25519.PrivateKey
}

// NewSignerEdDSA parses a PKCS8 PEM encoded Ed25519 private key.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	key, err := jwt.ParseEdPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: invalid PEM for Ed25519 key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("jwtx: key %q is not Ed25519", kid)
	}
	return NewSignerEd25519(kid, priv)
}

// NewSignerEd25519 wraps an in-memory private key.
func NewSignerEd25519(kid string, priv ed25519.PrivateKey) (Signer, error) {
	if kid == "" {
		return nil, fmt.Errorf("jwtx: empty key id")
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("jwtx: Ed25519 key %q has size %d", kid, len(priv))
	}
	return &edSigner{kid: kid, priv: priv}, nil
}

func (s *edSigner) KID() string { return s.kid }

func (s *edSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.priv)
}

func (s *edSigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", AlgorithmEdDSA, s.priv.Public().(ed25519.PublicKey))
}
