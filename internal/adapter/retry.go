package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"sprintlens/internal/tracker"
)

// withRetry runs fn under the per-call timeout, retrying transient
// provider failures with bounded exponential backoff. Fatal kinds
// (not-found, invalid query) are surfaced immediately, and caller
// cancellation aborts both the in-flight call and the backoff wait.
func (a *Adapter) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	delay := a.backoffBase
	for attempt := 1; ; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		err := fn(cctx)
		cancel()

		if err == nil {
			return nil
		}
		if !tracker.Retryable(err) || attempt >= a.maxAttempts {
			return err
		}

		log.Warn().
			Str("provider", a.providerID).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("Transient provider failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// taxonomy kinds in classification order; context errors map to
// unavailable as well.
var kinds = []error{
	tracker.ErrProjectNotFound,
	tracker.ErrSprintNotFound,
	tracker.ErrInvalidQuery,
	tracker.ErrMalformedData,
	tracker.ErrUnknownProvider,
	tracker.ErrProviderUnavailable,
}

// unwrapKind classifies an arbitrary client error into the taxonomy.
// Anything unrecognized reads as a provider availability problem.
func unwrapKind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return tracker.ErrProviderUnavailable
}
