package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestInitAuthKeysFromFileSurvivesRestart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{Issuer: "medoffice-test", SigningKeyFile: filepath.Join(t.TempDir(), "signing.pem")}

	first, err := InitAuthKeys(cfg, logger)
	require.NoError(t, err)

	token, err := first.Sign(jwtx.NewClaims(3, "doc@clinic.test", "doctor", false, time.Hour, cfg.Issuer, time.Now()))
	require.NoError(t, err)

	// A second start reads the same key file.
	second, err := InitAuthKeys(cfg, logger)
	require.NoError(t, err)

	claims, err := second.Verify(token)
	require.NoError(t, err)
	id, err := claims.AccountID()
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
}

func TestInitAuthKeysEphemeral(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	km, err := InitAuthKeys(Config{Issuer: "medoffice-test", NumKeys: 2}, logger)
	require.NoError(t, err)
	require.Equal(t, 2, km.NumSigners())
	require.True(t, km.IsReady())
}
