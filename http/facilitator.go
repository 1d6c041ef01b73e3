// Package http provides the HTTP facilitator client and the payment-gating
// middleware for the x402 protocol.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	x402 "github.com/dclancy13/eco-x402"
	"github.com/dclancy13/eco-x402/facilitator"
	"github.com/dclancy13/eco-x402/retry"
)

// AuthorizationProvider is a function that returns an Authorization header value.
// This is useful for dynamic tokens (e.g., JWT refresh) where the value may change.
//
// Thread-safety: the provider is called on each HTTP request, including retry
// attempts. If it accesses shared state or performs I/O, it must be safe for
// concurrent use; the FacilitatorClient does not serialize calls to it.
type AuthorizationProvider func(*http.Request) string

// OnBeforeFunc is a callback invoked before a verify or settle operation.
// Return an error to abort the operation.
type OnBeforeFunc func(context.Context, x402.PaymentPayload, x402.PaymentRequirement) error

// OnAfterVerifyFunc is invoked after a Verify operation completes,
// with the result (success or failure) for logging, metrics, etc.
type OnAfterVerifyFunc func(context.Context, x402.PaymentPayload, x402.PaymentRequirement, *x402.VerifyResponse, error)

// OnAfterSettleFunc is invoked after a Settle operation completes,
// with the result (success or failure) for logging, metrics, etc.
type OnAfterSettleFunc func(context.Context, x402.PaymentPayload, x402.PaymentRequirement, *x402.SettlementResponse, error)

// FacilitatorClient is a client for x402 facilitator services.
// The zero value of MaxRetries means each operation is issued exactly once,
// which is what the gating pipeline requires.
type FacilitatorClient struct {
	// BaseURL is the facilitator service URL.
	BaseURL string

	// Client is the HTTP client to use. If nil, http.DefaultClient is used.
	Client *http.Client

	// Timeouts contains timeout configuration for payment operations.
	Timeouts x402.TimeoutConfig

	// MaxRetries is the number of retry attempts for transport-level
	// failures (default 0: at most one call per operation).
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts (default 100ms).
	// Exponential backoff is applied with a multiplier of 2.0.
	RetryDelay time.Duration

	// Authorization is a static Authorization header value.
	// If AuthorizationProvider is also set, the provider takes precedence.
	Authorization string

	// AuthorizationProvider returns an Authorization header value per request.
	AuthorizationProvider AuthorizationProvider

	// OnBeforeVerify is called before the Verify operation starts.
	// If it returns an error, the operation is aborted immediately.
	OnBeforeVerify OnBeforeFunc

	// OnAfterVerify is called after the Verify operation completes.
	OnAfterVerify OnAfterVerifyFunc

	// OnBeforeSettle is called before the Settle operation starts.
	// If it returns an error, the operation is aborted immediately.
	OnBeforeSettle OnBeforeFunc

	// OnAfterSettle is called after the Settle operation completes.
	OnAfterSettle OnAfterSettleFunc
}

// Verify that FacilitatorClient implements facilitator.Interface.
var _ facilitator.Interface = (*FacilitatorClient)(nil)

// httpClient returns the HTTP client to use, defaulting to http.DefaultClient.
func (c *FacilitatorClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// setAuthorizationHeader sets the Authorization header on the request if
// configured. The provider takes precedence over the static value.
func (c *FacilitatorClient) setAuthorizationHeader(req *http.Request) {
	var authValue string
	if c.AuthorizationProvider != nil {
		authValue = c.AuthorizationProvider(req)
	} else if c.Authorization != "" {
		authValue = c.Authorization
	}
	if authValue != "" {
		req.Header.Set("Authorization", authValue)
	}
}

// retryConfig returns the retry configuration based on client settings.
func (c *FacilitatorClient) retryConfig() retry.Config {
	retryDelay := c.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}

	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return retry.Config{
		MaxAttempts:  maxRetries + 1, // +1 because MaxRetries is retry count, not attempt count
		InitialDelay: retryDelay,
		MaxDelay:     retryDelay * 4,
		Multiplier:   2.0,
	}
}

// Verify checks a payment authorization without executing the transfer.
func (c *FacilitatorClient) Verify(ctx context.Context, payment x402.PaymentPayload, requirement x402.PaymentRequirement) (*x402.VerifyResponse, error) {
	if c.OnBeforeVerify != nil {
		if err := c.OnBeforeVerify(ctx, payment, requirement); err != nil {
			return nil, err
		}
	}

	req := facilitator.Request{
		X402Version:         x402.X402Version,
		PaymentPayload:      payment,
		PaymentRequirements: requirement,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, resultErr := retry.WithRetry(ctx, c.retryConfig(), isFacilitatorUnavailableError, func() (*x402.VerifyResponse, error) {
		// Use provided context, apply timeout only if not already set
		reqCtx := ctx
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.Timeouts.VerifyTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.Timeouts.VerifyTimeout)
			defer cancel()
		}

		httpReq, err := http.NewRequestWithContext(reqCtx, "POST", c.BaseURL+"/verify", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.setAuthorizationHeader(httpReq)

		httpResp, err := c.httpClient().Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			return nil, parseErrorResponse(httpResp, x402.ErrVerificationFailed)
		}

		var verifyResp x402.VerifyResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&verifyResp); err != nil {
			return nil, fmt.Errorf("%w: malformed verify response: %v", x402.ErrVerificationFailed, err)
		}

		// Fall back to the authorization's payer when the facilitator omits it
		if verifyResp.Payer == "" {
			verifyResp.Payer = payment.Payload.Authorization.From
		}

		return &verifyResp, nil
	})

	if c.OnAfterVerify != nil {
		c.OnAfterVerify(ctx, payment, requirement, resp, resultErr)
	}

	return resp, resultErr
}

// Settle executes a verified payment on the blockchain.
// Transport failures, non-2xx statuses, and malformed bodies all surface as
// settlement errors carrying the most specific reason available.
func (c *FacilitatorClient) Settle(ctx context.Context, payment x402.PaymentPayload, requirement x402.PaymentRequirement) (*x402.SettlementResponse, error) {
	if c.OnBeforeSettle != nil {
		if err := c.OnBeforeSettle(ctx, payment, requirement); err != nil {
			return nil, err
		}
	}

	req := facilitator.Request{
		X402Version:         x402.X402Version,
		PaymentPayload:      payment,
		PaymentRequirements: requirement,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, resultErr := retry.WithRetry(ctx, c.retryConfig(), isFacilitatorUnavailableError, func() (*x402.SettlementResponse, error) {
		// Use provided context, apply timeout only if not already set
		reqCtx := ctx
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.Timeouts.SettleTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.Timeouts.SettleTimeout)
			defer cancel()
		}

		httpReq, err := http.NewRequestWithContext(reqCtx, "POST", c.BaseURL+"/settle", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.setAuthorizationHeader(httpReq)

		httpResp, err := c.httpClient().Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			return nil, parseErrorResponse(httpResp, x402.ErrSettlementFailed)
		}

		var settlementResp x402.SettlementResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&settlementResp); err != nil {
			return nil, fmt.Errorf("%w: malformed settlement response: %v", x402.ErrSettlementFailed, err)
		}

		// Fall back to the authorization's payer when the facilitator omits it
		if settlementResp.Payer == "" {
			settlementResp.Payer = payment.Payload.Authorization.From
		}

		return &settlementResp, nil
	})

	if c.OnAfterSettle != nil {
		c.OnAfterSettle(ctx, payment, requirement, resp, resultErr)
	}

	return resp, resultErr
}

// Supported queries the facilitator for supported payment types.
func (c *FacilitatorClient) Supported(ctx context.Context) (*facilitator.SupportedResponse, error) {
	reqCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.Timeouts.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.Timeouts.VerifyTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, "GET", c.BaseURL+"/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuthorizationHeader(httpReq)

	httpResp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supported endpoint failed: status %d", httpResp.StatusCode)
	}

	var supportedResp facilitator.SupportedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&supportedResp); err != nil {
		return nil, fmt.Errorf("failed to decode supported response: %w", err)
	}

	return &supportedResp, nil
}

// parseErrorResponse extracts error details from a non-200 HTTP response.
func parseErrorResponse(resp *http.Response, baseErr error) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	// Try to parse as JSON with invalidReason or errorReason
	var errBody map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &errBody); err == nil {
		if reason, ok := errBody["invalidReason"].(string); ok && reason != "" {
			return fmt.Errorf("%w: status %d, reason: %s", baseErr, resp.StatusCode, reason)
		}
		if reason, ok := errBody["errorReason"].(string); ok && reason != "" {
			return fmt.Errorf("%w: status %d, reason: %s", baseErr, resp.StatusCode, reason)
		}
	}

	// If we couldn't parse as JSON, include raw body (truncated)
	if len(bodyBytes) > 0 && len(bodyBytes) < 500 {
		return fmt.Errorf("%w: status %d, body: %s", baseErr, resp.StatusCode, string(bodyBytes))
	}

	return fmt.Errorf("%w: status %d", baseErr, resp.StatusCode)
}

// isFacilitatorUnavailableError checks if an error is a facilitator
// unavailable error, through any wrapping.
func isFacilitatorUnavailableError(err error) bool {
	return errors.Is(err, x402.ErrFacilitatorUnavailable)
}
