package integration

import (
	"net/http"
	"testing"
	"time"
)

// TestServerHealthy checks the liveness and readiness endpoints. If the
// server is unreachable the subtests are skipped, so the suite can run in
// environments where the stack is not up.
func TestServerHealthy(t *testing.T) {
	client := &http.Client{Timeout: 3 * time.Second}

	for _, endpoint := range []string{"/health/live", "/health/ready"} {
		t.Run(endpoint, func(t *testing.T) {
			resp, err := client.Get(baseURL() + endpoint)
			if err != nil {
				t.Skipf("server on port %d not reachable: %v", serverPort, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("%s returned %d, want 200", endpoint, resp.StatusCode)
			}
		})
	}
}
