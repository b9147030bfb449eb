package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lock")

var (
	// ErrTimeout is returned when the context deadline passes before the lock is acquired.
	ErrTimeout = errors.New("lock: timeout")

	// ErrCanceled is returned when the context is canceled before the lock is acquired.
	ErrCanceled = errors.New("lock: canceled")
)

const (
	minPollInterval = time.Microsecond
	maxPollInterval = time.Millisecond
)

// Acquire takes l exclusively, giving up when ctx is done. Policies have
// no native deadline support, so Acquire polls TryLock with an exponential
// backoff between 1µs and 1ms.
//
// On success the caller owns the lock and must Unlock it. On failure the
// lock is not held and the returned error wraps ErrTimeout or ErrCanceled
// together with ctx.Err().
func Acquire(ctx context.Context, l Locker) error {
	return poll(ctx, l.TryLock)
}

// AcquireShared takes l in shared mode, giving up when ctx is done.
// It behaves like Acquire otherwise.
func AcquireShared(ctx context.Context, l RWLocker) error {
	return poll(ctx, l.TryRLock)
}

func poll(ctx context.Context, try func() bool) error {
	if try() {
		return nil
	}

	delay := minPollInterval
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// last chance, the lock may have been released while we waited
			if try() {
				return nil
			}
			err := ctx.Err()
			Logger.Debugf("giving up lock acquisition: %v", err)
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return fmt.Errorf("%w: %w", ErrCanceled, err)
		case <-timer.C:
		}

		if try() {
			return nil
		}

		delay = min(delay*2, maxPollInterval)
		timer.Reset(delay)
	}
}
