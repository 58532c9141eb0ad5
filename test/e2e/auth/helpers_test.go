//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/totpx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "medoffice-auth-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	adminName      = "Office Administrator"
	adminEmail     = "admin@clinic.test"
	adminPassword  = "Admin123!"
	doctorPassword = "Doctor123!"
	bypassCode     = "424242"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	// Build the Docker image once before all tests
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	// Run all tests
	exitCode := m.Run()

	// Clean up the Docker image after all tests complete
	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image if it doesn't exist.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "." // Ensure we're in the test directory
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the container environment shared by every test.
func baseEnv() map[string]string {
	return map[string]string{
		"BOOTSTRAP_TOKEN":    bootstrapToken,
		"AUTH_DATABASE_FILE": "/auth.db",
		"AUTH_PEPPER_FILE":   "/pepper",
		"AUTH_ISSUER":        "medoffice-auth",
		"AUTH_NUM_KEYS":      "1",
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
}

// relaxedLimits raises rate limits so tests making many rapid requests do
// not trip the strict production profiles.
func relaxedLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// startContainer runs the auth image with env and returns the base URL.
func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	// Get the mapped port
	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// setupAuthContainer starts the auth service with relaxed rate limits.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()

	env := baseEnv()
	maps.Copy(env, relaxedLimits())
	return startContainer(t, env)
}

// setupAuthContainerWithBypass starts the auth service with a bypass code.
func setupAuthContainerWithBypass(t *testing.T) (string, func()) {
	t.Helper()

	env := baseEnv()
	maps.Copy(env, relaxedLimits())
	env["AUTH_2FA_BYPASS_CODE"] = bypassCode
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with DEFAULT rate limits.
// This is specifically for testing that rate limiting actually works.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

// bootstrapService creates the first admin and returns an admin session.
func bootstrapService(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()
	ctx := context.Background()

	resp, err := client.Bootstrap(ctx, bootstrapToken, authsdk.BootstrapRequest{
		AdminName:     adminName,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	require.NoError(t, err, "Bootstrap should succeed")
	require.Positive(t, resp.AdminAccountID, "Admin account ID should be set")

	session, err := client.Authenticate(ctx, adminEmail, adminPassword, nil)
	require.NoError(t, err, "Admin login should succeed")
	return session
}

// createDoctor registers a doctor through the admin session.
func createDoctor(t *testing.T, admin *authsdk.Session, email string) *authsdk.Profile {
	t.Helper()

	p, err := admin.CreateAccount(t.Context(), authsdk.CreateAccountRequest{
		Name:     "Dr " + email,
		Email:    email,
		Password: doctorPassword,
		Role:     "doctor",
	})
	require.NoError(t, err, "Creating doctor should succeed")
	return p
}

// enrolDoctor provisions and activates TOTP, returning the secret and backup codes.
func enrolDoctor(t *testing.T, client *authsdk.SDKClient, email string) (string, []string) {
	t.Helper()
	ctx := t.Context()

	setup, err := client.SetupSecondFactor(ctx, email, "")
	require.NoError(t, err)

	login, err := client.Login(ctx, email, doctorPassword)
	require.NoError(t, err)
	require.True(t, login.RequiresSecondFactor)

	res, err := client.VerifySecondFactor(ctx, login.TemporaryToken, generateTOTP(t, setup.Secret), true)
	require.NoError(t, err)
	require.True(t, res.TwoFAEnabled)
	return setup.Secret, res.BackupCodes
}

func generateTOTP(t *testing.T, secret string) string {
	t.Helper()

	code, err := totpx.Code(secret, time.Now())
	require.NoError(t, err)
	return code
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
