package x402

import (
	"fmt"
	"time"
)

// TimeoutConfig bounds the facilitator round trips made while gating a
// request. Verification is a read, settlement waits on a transaction, so the
// settle bound is expected to dominate.
type TimeoutConfig struct {
	// VerifyTimeout bounds a single verification pre-check.
	VerifyTimeout time.Duration

	// SettleTimeout bounds a single settlement attempt.
	SettleTimeout time.Duration

	// RequestTimeout bounds the underlying HTTP client as a whole.
	RequestTimeout time.Duration
}

// DefaultTimeouts is used when the middleware configuration leaves timeouts
// unset.
var DefaultTimeouts = TimeoutConfig{
	VerifyTimeout:  5 * time.Second,
	SettleTimeout:  60 * time.Second,
	RequestTimeout: 120 * time.Second,
}

// WithVerifyTimeout returns a copy with the verify bound replaced.
func (tc TimeoutConfig) WithVerifyTimeout(d time.Duration) TimeoutConfig {
	tc.VerifyTimeout = d
	return tc
}

// WithSettleTimeout returns a copy with the settle bound replaced.
func (tc TimeoutConfig) WithSettleTimeout(d time.Duration) TimeoutConfig {
	tc.SettleTimeout = d
	return tc
}

// WithRequestTimeout returns a copy with the client bound replaced.
func (tc TimeoutConfig) WithRequestTimeout(d time.Duration) TimeoutConfig {
	tc.RequestTimeout = d
	return tc
}

// Validate checks that every bound is positive and that the settle bound is
// not tighter than the verify bound. Checked at middleware construction, so a
// bad bound never reaches request time.
func (tc TimeoutConfig) Validate() error {
	if tc.VerifyTimeout <= 0 {
		return fmt.Errorf("verify timeout must be positive, got %v", tc.VerifyTimeout)
	}
	if tc.SettleTimeout <= 0 {
		return fmt.Errorf("settle timeout must be positive, got %v", tc.SettleTimeout)
	}
	if tc.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", tc.RequestTimeout)
	}
	if tc.SettleTimeout < tc.VerifyTimeout {
		return fmt.Errorf("settle timeout %v is tighter than verify timeout %v",
			tc.SettleTimeout, tc.VerifyTimeout)
	}
	return nil
}
