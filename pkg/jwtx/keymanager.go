package jwtx

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
)

// AlgorithmEdDSA is the only signing algorithm issued by the service.
const AlgorithmEdDSA = "EdDSA"

// Codec is the token boundary used by the auth flow: it turns claims into a
// signed string and back.
type Codec interface {
	Sign(Claims) (string, error)
	Verify(token string) (Claims, error)
}

// KeyManager manages JWT signing and verification keys for an instance.
// Signing picks one of the active keys at random; verification accepts any
// key in the KeySet.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	signers []Signer
	mu      sync.RWMutex
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// NumKeys specifies how many ephemeral signing keys to generate. Defaults
	// to 1, capped at 10. Ignored when KeyPEM is set.
	NumKeys int

	// KeyPEM is an optional PKCS8 Ed25519 private key. When present it is
	// the single signing key and tokens survive restarts.
	KeyPEM []byte

	// KeyID overrides the kid used with KeyPEM. Defaults to a fingerprint of
	// the public key so restarts keep the same kid.
	KeyID string

	// Clock used for expiry checks. Defaults to time.Now.
	Clock func() time.Time
}

// NewKeyManager builds a KeyManager from a configured private key, or
// from freshly generated ephemeral keys when opts.KeyPEM is empty.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if len(opts.KeyPEM) == 0 {
		return NewEphemeralKeyManager(opts)
	}
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	kid := opts.KeyID
	if kid == "" {
		probe, err := NewSignerEdDSA("probe", opts.KeyPEM)
		if err != nil {
			return nil, err
		}
		kid = "medoffice-" + cryptox.FingerprintToken(probe.PublicJWK().X)[:16]
	}

	signer, err := NewSignerEdDSA(kid, opts.KeyPEM)
	if err != nil {
		return nil, err
	}

	return newKeyManager(opts, []Signer{signer})
}

// NewEphemeralKeyManager creates a new KeyManager with ephemeral keys.
// The keys only exist in memory, so every outstanding token becomes invalid
// when the service restarts.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 1
	}
	if numKeys > 10 {
		numKeys = 10
	}

	signers := make([]Signer, 0, numKeys)
	for i := 0; i < numKeys; i++ {
		keyID, err := generateRandomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
		}

		_, priv, err := ed25519.GenerateKey(crand.Reader)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate EdDSA key %d: %w", i+1, err)
		}

		signer, err := NewSignerEd25519(keyID, priv)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to build signer %d: %w", i+1, err)
		}
		signers = append(signers, signer)
	}

	return newKeyManager(opts, signers)
}

func newKeyManager(opts KeyManagerOptions, signers []Signer) (*KeyManager, error) {
	keyset := NewKeySet()
	for i, s := range signers {
		if err := keyset.AddSigner(s); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %d to keyset: %w", i+1, err)
		}
	}

	return &KeyManager{
		Verifier: NewVerifierEdDSA(keyset, opts.Issuer, opts.Clock),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return AlgorithmEdDSA
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer from the active keys.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// Sign signs the claims with one of the active keys.
func (km *KeyManager) Sign(c Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", errors.New("jwtx: no signing key loaded")
	}
	return s.Sign(c)
}

// Verify checks signature, issuer and expiry of the token.
func (km *KeyManager) Verify(token string) (Claims, error) {
	return km.Verifier.Verify(token)
}

// generateRandomKeyID creates a random key identifier using cryptographic entropy.
// Format: "medoffice-{random-token}" where random-token is a 128-bit secure token.
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return fmt.Sprintf("medoffice-%s", token), nil
}
