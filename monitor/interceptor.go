// Package monitor implements a load-balanced status-sweep client: it
// discovers instances of a logical server name via registry, picks one
// via loadbalance, drives a session through Handshake+Status over a
// pooled connection, and reports the parsed ping.
package monitor

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ProbeFunc visits one server address and reports the result.
type ProbeFunc func(ctx context.Context, addr string) (Report, error)

// Interceptor wraps a ProbeFunc to add a cross-cutting concern, using
// the onion model: Chain(A, B)(probe) runs A.before, B.before, probe,
// B.after, A.after.
type Interceptor func(next ProbeFunc) ProbeFunc

// Chain composes interceptors so the first one listed is outermost:
// executed first on the way in, last on the way out.
func Chain(interceptors ...Interceptor) Interceptor {
	return func(next ProbeFunc) ProbeFunc {
		for i := len(interceptors) - 1; i >= 0; i-- {
			next = interceptors[i](next)
		}
		return next
	}
}

// LoggingInterceptor records the target address, duration, and any error
// for each sweep.
func LoggingInterceptor() Interceptor {
	return func(next ProbeFunc) ProbeFunc {
		return func(ctx context.Context, addr string) (Report, error) {
			start := time.Now()
			report, err := next(ctx, addr)
			log.Printf("monitor: addr=%s duration=%s err=%v", addr, time.Since(start), err)
			return report, err
		}
	}
}

// TimeoutInterceptor bounds how long one sweep may run, racing next
// against a derived context deadline in a background goroutine. The
// goroutine is not killed if the timeout wins; its eventual result is
// discarded.
func TimeoutInterceptor(timeout time.Duration) Interceptor {
	return func(next ProbeFunc) ProbeFunc {
		return func(ctx context.Context, addr string) (Report, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				report Report
				err    error
			}
			done := make(chan result, 1)
			go func() {
				report, err := next(ctx, addr)
				done <- result{report, err}
			}()

			select {
			case res := <-done:
				return res.report, res.err
			case <-ctx.Done():
				return Report{Addr: addr, Err: ctx.Err()}, ctx.Err()
			}
		}
	}
}

// RateLimitInterceptor rejects sweeps once the shared token bucket is
// empty, rather than letting callers hammer a server address. The
// limiter is created once, in the outer closure, and shared across every
// sweep — creating it per-call would give each call a fresh full bucket
// and defeat the point.
func RateLimitInterceptor(r float64, burst int) Interceptor {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next ProbeFunc) ProbeFunc {
		return func(ctx context.Context, addr string) (Report, error) {
			if !limiter.Allow() {
				err := errRateLimited
				return Report{Addr: addr, Err: err}, err
			}
			return next(ctx, addr)
		}
	}
}

// RetryInterceptor retries a sweep up to maxRetries times, with
// exponential backoff, but only for the class of transient errors
// (timeout, connection refused) treated as retryable.
func RetryInterceptor(maxRetries int, baseDelay time.Duration) Interceptor {
	return func(next ProbeFunc) ProbeFunc {
		return func(ctx context.Context, addr string) (Report, error) {
			report, err := next(ctx, addr)
			for i := 0; i < maxRetries; i++ {
				if err == nil {
					return report, nil
				}
				if !isRetryable(err) {
					return report, err
				}
				time.Sleep(baseDelay * time.Duration(1<<i))
				report, err = next(ctx, addr)
			}
			return report, err
		}
	}
}

func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "deadline exceeded")
}
