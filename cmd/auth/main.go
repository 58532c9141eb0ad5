// Command auth runs the medical office authentication service: password
// login, TOTP second factor and the JWKS that other services verify session
// tokens with. Configuration is read from the environment and an optional
// .env file; see internal/auth/app.Config.
package main

import (
	"log/slog"
	"os"

	"github.com/aussiebroadwan/medoffice/internal/auth/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
