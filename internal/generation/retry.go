package generation

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Sleeper abstracts time.Sleep so retry behavior can be tested without
// real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepWithContext waits for d or until ctx is done, whichever comes
// first. It is the default Sleeper used by Retry.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy controls how Retry spaces repeated attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt. Each
	// subsequent wait doubles, up to MaxDelay.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Jitter is the fraction of random spread applied to each delay
	// (0.1 means the delay varies by up to plus or minus ten percent).
	Jitter float64
	// Sleep is the wait function. Nil means SleepWithContext.
	Sleep Sleeper
}

// DefaultRetryPolicy is the policy used for provider rate limits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Jitter:       0.1,
	}
}

// Delay returns the backoff before the given retry (0-based), without
// jitter applied.
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p RetryPolicy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}

// Retry runs fn until it succeeds, fails permanently, or the policy's
// attempts are exhausted. Only errors classified as rate limits
// (ErrRateLimited) trigger a retry; any other error returns
// immediately. Context cancellation aborts the wait between attempts.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}

	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if serr := sleep(ctx, policy.jittered(policy.Delay(attempt-1))); serr != nil {
				return serr
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) {
			return err
		}
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", policy.MaxAttempts, err)
}
