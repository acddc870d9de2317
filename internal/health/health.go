// Package health holds startup and liveness probes.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/addismusic/media-service/internal/store"
)

// CheckStore performs one cheap list call against each bucket. Returns nil
// if the store answers for all of them, the first failure otherwise.
func CheckStore(ctx context.Context, st store.Store, buckets ...string) error {
	for _, bucket := range buckets {
		if _, err := st.List(ctx, bucket, "health-probe-"); err != nil {
			return fmt.Errorf("bucket %s unreachable: %w", bucket, err)
		}
	}
	return nil
}

// CheckEndpoints hits the service's own health and metrics routes at baseURL
// and returns the first error or nil. Used by deploy smoke checks.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/health", "/metrics"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
