//go:build integration

package containers

import (
	"context"
	"fmt"
	"net"
	"time"
)

// WaitForTCP polls address every 250ms until it accepts a connection or ctx
// expires.
func WaitForTCP(ctx context.Context, address string) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	dialer := net.Dialer{Timeout: 2 * time.Second}
	for {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s: %w", address, ctx.Err())
		case <-ticker.C:
		}
	}
}

// RetryWithBackoff calls fn until it succeeds, doubling the delay between
// attempts up to maxDelay. It returns the last error after maxAttempts.
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay, maxDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w (last error: %w)", ctx.Err(), lastErr)
		case <-time.After(delay):
			delay = min(delay*2, maxDelay)
		}
	}
	return fmt.Errorf("max attempts (%d) reached: %w", maxAttempts, lastErr)
}
