package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a subsystem can serve requests.
type ReadyCheck func(ctx context.Context) error

// HealthHandler serves liveness at /healthz. It always answers 200.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, healthStatusOK, "")
	})
}

// ReadyHandler serves readiness at /readyz. It answers 503 with the first
// failing check's error, 200 otherwise.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		for _, check := range checks {
			if err := check(hr.Context()); err != nil {
				writeHealth(rw, http.StatusServiceUnavailable, healthStatusUnavailable, err.Error())

				return
			}
		}

		writeHealth(rw, http.StatusOK, healthStatusOK, "")
	})
}

type healthBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func writeHealth(rw http.ResponseWriter, code int, status, detail string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status line is already out; a failed body write has no recourse.
	_ = json.NewEncoder(rw).Encode(healthBody{Status: status, Error: detail})
}
