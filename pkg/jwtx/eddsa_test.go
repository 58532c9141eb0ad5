package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "medoffice-auth"

func newTestSigner(t *testing.T, kid string) (jwtx.Signer, *jwtx.KeySet) {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))
	return signer, keyset
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer, keyset := newTestSigner(t, "test-key-eddsa")
	require.Equal(t, "test-key-eddsa", signer.KID())
	require.Equal(t, "EdDSA", signer.PublicJWK().Alg)

	now := time.Now().UTC()
	claims := jwtx.NewClaims(42, "doc@example.com", "doctor", true, 5*time.Minute, exampleIssuer, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Issuer, parsed.Issuer)
	require.Equal(t, "42", parsed.Subject)
	require.Equal(t, "doc@example.com", parsed.Email)
	require.Equal(t, "doctor", parsed.Role)
	require.True(t, parsed.Pending)
	require.NotEmpty(t, parsed.ID)

	id, err := parsed.AccountID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestEdDSAVerifyFailsForWrongIssuer(t *testing.T) {
	signer, keyset := newTestSigner(t, "k1")

	claims := jwtx.NewClaims(7, "", "patient", false, time.Minute, exampleIssuer, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset, "wrong-issuer", nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestEdDSAVerifyFailsForUnknownKey(t *testing.T) {
	signer1, _ := newTestSigner(t, "key1")
	_, keyset2 := newTestSigner(t, "key2")

	token, err := signer1.Sign(jwtx.NewClaims(1, "", "admin", false, time.Minute, exampleIssuer, time.Now()))
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset2, exampleIssuer, nil)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestEdDSAVerifyExpired(t *testing.T) {
	signer, keyset := newTestSigner(t, "exp")

	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	token, err := signer.Sign(jwtx.NewClaims(3, "", "doctor", true, 15*time.Minute, exampleIssuer, issued))
	require.NoError(t, err)

	t.Run("inside lifetime", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, func() time.Time { return issued.Add(10 * time.Minute) })
		_, err := v.Verify(token)
		require.NoError(t, err)
	})

	t.Run("past lifetime", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, func() time.Time { return issued.Add(16 * time.Minute) })
		_, err := v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestEdDSAVerifyRejectsTampering(t *testing.T) {
	signer, keyset := newTestSigner(t, "tamper")
	token, err := signer.Sign(jwtx.NewClaims(3, "", "doctor", false, time.Minute, exampleIssuer, time.Now()))
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("flipped signature", func(t *testing.T) {
		b := []byte(token)
		last := len(b) - 2
		if b[last] == 'A' {
			b[last] = 'B'
		} else {
			b[last] = 'A'
		}
		_, err := verifier.Verify(string(b))
		require.Error(t, err)
	})

	t.Run("HS256 token", func(t *testing.T) {
		hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.NewClaims(3, "", "doctor", false, time.Minute, exampleIssuer, time.Now()))
		hs.Header["kid"] = "tamper"
		s, err := hs.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = verifier.Verify(s)
		require.Error(t, err)
	})
}

func TestNewSignerEdDSARejectsInvalidPEM(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}

func TestEdDSAVerifierSatisfiesVerifier(t *testing.T) {
	signer, keyset := newTestSigner(t, "test-key")

	claims := jwtx.NewClaims(9, "s@example.com", "secretary", false, time.Minute, exampleIssuer, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	var verifier jwtx.Verifier = jwtx.NewVerifierEdDSA(keyset, exampleIssuer, nil)
	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.False(t, parsed.Pending)
}

func TestNewSignerEd25519RejectsBadInput(t *testing.T) {
	_, err := jwtx.NewSignerEd25519("k", make([]byte, 12))
	require.Error(t, err)

	_, err = jwtx.NewSignerEd25519("", make([]byte, 64))
	require.Error(t, err)
}
