package retry

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines bounded retry behavior for calls to external services.
type Config struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Multiplier is applied to the backoff on each retry.
	Multiplier float64
}

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
	DefaultMultiplier     = 2.0
)

func DefaultConfig() Config {
	return Config{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultMultiplier,
	}
}

// IsTransient reports whether err looks like a rate limit, an overloaded or
// failing upstream, or a per-attempt deadline.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"429", "500", "502", "503", "504", "529", "RESOURCE_EXHAUSTED", "overloaded", "quota", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs".
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay returns the server-suggested delay from an error message,
// or 0 if there is none.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the wait before retry number attempt (0-based).
// A positive apiDelay replaces InitialBackoff as the base. The result is
// capped at MaxBackoff.
func (c Config) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.Multiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if c.MaxBackoff > 0 && backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// Do calls fn until it succeeds, returns a non-retryable error, the retries
// are exhausted, or ctx is done. The last error is returned.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func(context.Context) error) error {
	if retryable == nil {
		retryable = IsTransient
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries || !retryable(err) || ctx.Err() != nil {
			return err
		}

		wait := cfg.CalculateBackoff(attempt, ExtractRetryDelay(err))
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("Transient failure, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
