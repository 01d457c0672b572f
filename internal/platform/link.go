package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/components/logging"
)

// Probe reports nil once the network link is usable.
type Probe func(ctx context.Context) error

// LinkWaitError is returned when the link did not come up within the bound.
// The boot continues degraded.
type LinkWaitError struct {
	Timeout  time.Duration
	Attempts int
	Last     error
}

func (e *LinkWaitError) Error() string {
	return fmt.Sprintf("link not ready after %s (%d probes): %v", e.Timeout, e.Attempts, e.Last)
}

func (e *LinkWaitError) Unwrap() error { return e.Last }

type LinkOptions struct {
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (o *LinkOptions) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 100 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 2 * time.Second
	}
	if o.MaxInterval < o.InitialInterval {
		o.MaxInterval = o.InitialInterval
	}
}

var errNoProbe = errors.New("no link probe configured")

// WaitForLink probes with exponential backoff until the probe succeeds or
// opts.Timeout passes. It never waits longer than the timeout.
func WaitForLink(ctx context.Context, probe Probe, opts LinkOptions) error {
	opts.applyDefaults()
	if probe == nil {
		return &LinkWaitError{Timeout: opts.Timeout, Last: errNoProbe}
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opts.InitialInterval
	bo.MaxInterval = opts.MaxInterval

	attempts := 0
	var last error
	start := time.Now()
	_, err := backoff.Retry(waitCtx, func() (struct{}, error) {
		attempts++
		if err := probe(waitCtx); err != nil {
			last = err
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(opts.Timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.Debug(ctx, "link not ready",
				zap.Int("attempt", attempts), zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	if err == nil {
		logging.Info(ctx, "link ready",
			zap.Int("attempts", attempts), zap.Duration("elapsed", time.Since(start)))
		return nil
	}
	if last == nil {
		last = err
	}
	return &LinkWaitError{Timeout: opts.Timeout, Attempts: attempts, Last: last}
}

// TCPProbe succeeds once addr accepts a connection.
func TCPProbe(addr string) Probe {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// RedisProbe succeeds once the redis server answers PING.
func RedisProbe(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis client not configured")
		}
		return client.Ping(ctx).Err()
	}
}

// AlwaysUp is used when no link check is configured.
func AlwaysUp(context.Context) error { return nil }
