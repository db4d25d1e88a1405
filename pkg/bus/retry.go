package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
)

// connectWithRetry calls connect until it succeeds, backing off exponentially
// between attempts. Gives up after maxRetries attempts or when ctx ends.
func connectWithRetry(ctx context.Context, name string, maxRetries int, connect func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			retryDelay := time.Duration(1<<(attempt-1)) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			log.Printf("Retrying %s connection in %v... (attempt %d/%d)", name, retryDelay, attempt+1, maxRetries)

			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return errors.Join(ErrConnectFailed, ctx.Err(), lastErr)
			}
		}

		err := connect()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		log.WithError(err).Warnf("Connecting to %s failed", name)
	}

	return errors.Join(ErrConnectFailed, lastErr)
}
