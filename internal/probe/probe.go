// Package probe polls a backend application until it answers a plain health
// request.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrBackendExited reports that the backend ended before answering.
var ErrBackendExited = errors.New("backend exited before becoming ready")

// WaitUntilReady issues GET requests against the backend's own address until
// one succeeds or the retry budget is exhausted. The backend is addressed
// directly rather than through the proxy: while the backend is still
// starting, the proxy answers every request with a generic bad gateway that
// is indistinguishable from a misconfigured proxy. A close of backendExit
// aborts the probe immediately.
func WaitUntilReady(ctx context.Context, client *http.Client, addr string, backendExit <-chan struct{}, budget time.Duration, logger *slog.Logger) error {
	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-backendExit:
			cancel()
		case <-probeCtx.Done():
		}
	}()

	operation := func() error {
		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, addr, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			logger.Debug("discard probe response failed", "error", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend returned %s", resp.Status)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(budget),
	), probeCtx)

	err := backoff.RetryNotify(operation, policy, func(err error, delay time.Duration) {
		logger.Warn("backend not ready", "error", err, "retry_in", delay.String())
	})
	if err != nil {
		select {
		case <-backendExit:
			return ErrBackendExited
		default:
		}
		return fmt.Errorf("backend never became ready at %s: %w", addr, err)
	}
	return nil
}
