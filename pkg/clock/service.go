// Package clock provides the local time used to stamp published telegrams.
package clock

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrNotSynchronized = errors.New("wall clock not synchronized")

// Anything before this is a board that booted without RTC and has no NTP yet.
var plausibleSince = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

type Clock struct {
	location *time.Location
	now      func() time.Time
}

// New returns a clock in the given IANA zone, or the system zone when empty.
func New(timezone string) (*Clock, error) {
	location := time.Local
	if timezone != "" {
		var err error
		location, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	return &Clock{location: location, now: time.Now}, nil
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.location)
}

func (c *Clock) Synchronized() bool {
	return c.now().After(plausibleSince)
}

// WaitForSync polls until the clock looks synchronized or timeout expires.
func (c *Clock) WaitForSync(ctx context.Context, timeout, poll time.Duration) error {
	if c.Synchronized() {
		return nil
	}
	log.Info("Waiting for the wall clock to be synchronized")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %v", ErrNotSynchronized, timeout)
		case <-ticker.C:
			if c.Synchronized() {
				log.WithField("time", c.Now().Format(time.RFC3339)).Info("Wall clock synchronized")
				return nil
			}
		}
	}
}
