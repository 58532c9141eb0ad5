package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
)

// Pinger is any dependency readyz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func health(startTime time.Time, version, status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}

func checkResult(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, health(startTime, version, "ok", nil))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of database, signer, and attempt limiter components
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
	limiter Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := true

		dbErr := st.Ping(r.Context())
		ready = ready && dbErr == nil

		checks := &authsdk.HealthChecks{
			Database: checkResult(dbErr),
			Signer:   "ok",
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			ready = false
		}

		// In-process limiting has nothing to probe
		if limiter != nil {
			limErr := limiter.Ping(r.Context())
			checks.Limiter = checkResult(limErr)
			ready = ready && limErr == nil
		}

		if !ready {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, health(startTime, version, "degraded", checks))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, health(startTime, version, "ok", checks))
	}
}
