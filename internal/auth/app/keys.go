package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager that signs session and temporary tokens.
//
// Key modes:
//   - ephemeral (no AUTH_SIGNING_KEY_FILE): keys are generated on startup and
//     held in memory. All existing tokens become invalid on restart.
//   - file: a PKCS8 Ed25519 key is read from AUTH_SIGNING_KEY_FILE, or
//     generated and written there on first start. Tokens survive restarts.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	if cfg.SigningKeyFile != "" {
		pemKey, err := cryptox.LoadOrGenerateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}

		keyManager, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
			Issuer: cfg.Issuer,
			KeyPEM: pemKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize key manager: %w", err)
		}

		logger.Info("signing key loaded",
			"algorithm", keyManager.Algorithm(),
			"path", cfg.SigningKeyFile,
			"issuer", cfg.Issuer,
		)
		return keyManager, nil
	}

	logger.Info("initializing ephemeral key manager", "num_keys", cfg.NumKeys)

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"algorithm", keyManager.Algorithm(),
		"num_keys", keyManager.NumSigners(),
		"issuer", cfg.Issuer,
	)
	logger.Warn("all existing tokens are now invalid due to key rotation on startup")

	return keyManager, nil
}
