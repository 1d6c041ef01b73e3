package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	x402 "github.com/dclancy13/eco-x402"
	"github.com/dclancy13/eco-x402/facilitator"
	"github.com/dclancy13/eco-x402/http/internal/helpers"
)

// Header names for the three wire values, re-exported for callers.
const (
	HeaderPayment         = helpers.HeaderPayment
	HeaderPaymentRequired = helpers.HeaderPaymentRequired
	HeaderPaymentResponse = helpers.HeaderPaymentResponse
)

// Config holds the configuration for the payment-gating middleware.
type Config struct {
	// Facilitator is the settlement collaborator. When nil, an HTTP client
	// is built from FacilitatorURL.
	Facilitator facilitator.Interface

	// FacilitatorURL is the facilitator endpoint, used when Facilitator is nil.
	FacilitatorURL string

	// FacilitatorAuthorization is a static Authorization header value for
	// the facilitator (e.g. "Bearer your-api-key").
	FacilitatorAuthorization string

	// FacilitatorAuthorizationProvider returns an Authorization header value
	// per request. Takes precedence over FacilitatorAuthorization.
	FacilitatorAuthorizationProvider AuthorizationProvider

	// Timeouts bounds facilitator operations. Zero means DefaultTimeouts.
	Timeouts x402.TimeoutConfig

	// Network is the CAIP-2 identifier of the chain payments settle on.
	// Must be one of the registered chains.
	Network string

	// Asset overrides the chain's default USDC contract address.
	Asset string

	// PayTo is the recipient address for all payments. Required.
	PayTo string

	// Routes is the ordered list of pricing rules. First match wins.
	Routes []x402.RouteRule

	// Price is the blanket USD price applied to every request when Routes
	// is empty.
	Price string

	// Description is used for blanket-priced requests.
	Description string

	// MimeType is the content type advertised in payment requirements.
	MimeType string

	// MaxTimeoutSeconds overrides the advertised authorization validity window.
	MaxTimeoutSeconds int

	// VerifyFirst calls the facilitator's Verify before Settle, trading an
	// extra round trip for failing early without spending gas.
	VerifyFirst bool

	// OnPayment is invoked with the receipt after each settled payment.
	OnPayment x402.PaymentCallback

	// OnError is invoked when a protected request terminates unpaid.
	OnError x402.ErrorCallback

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now supplies timestamps for validity checks and receipts. Tests use it.
	Now func() time.Time
}

// Validate checks the configuration. Failures here are fatal and must
// prevent the pipeline from starting; they are never deferred to request time.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.PayTo) {
		return fmt.Errorf("%w: payTo must be a hex address, got %q", x402.ErrInvalidConfig, c.PayTo)
	}
	if _, err := x402.GetChainConfig(c.Network); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidConfig, err)
	}
	if c.Asset != "" && !common.IsHexAddress(c.Asset) {
		return fmt.Errorf("%w: asset must be a hex address, got %q", x402.ErrInvalidConfig, c.Asset)
	}
	if len(c.Routes) == 0 && c.Price == "" {
		return fmt.Errorf("%w: either a blanket price or pricing routes are required", x402.ErrInvalidConfig)
	}
	if c.Timeouts != (x402.TimeoutConfig{}) {
		if err := c.Timeouts.Validate(); err != nil {
			return fmt.Errorf("%w: %v", x402.ErrInvalidConfig, err)
		}
	}
	if c.Facilitator == nil && c.FacilitatorURL == "" {
		return fmt.Errorf("%w: facilitator URL is required", x402.ErrInvalidConfig)
	}
	return nil
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ReceiptContextKey is the context key for the payment receipt attached to
// requests that passed the gate.
const ReceiptContextKey = contextKey("x402_receipt")

// ReceiptFromContext extracts the payment receipt from a request context.
// Returns nil when the request was not payment-gated.
func ReceiptFromContext(ctx context.Context) *x402.PaymentReceipt {
	receipt, ok := ctx.Value(ReceiptContextKey).(*x402.PaymentReceipt)
	if !ok {
		return nil
	}
	return receipt
}

// gate is the request-scoped control flow: resolve the route, decode and
// validate any presented payment, drive settlement, and produce the outward
// response. Shared by the net/http and gin front ends.
type gate struct {
	chain       x402.ChainConfig
	payTo       string
	routes      *x402.RouteTable
	blanket     *x402.RouteRule
	mimeType    string
	maxTimeout  int
	verifyFirst bool
	fac         facilitator.Interface
	validator   *x402.Validator
	onPayment   x402.PaymentCallback
	onError     x402.ErrorCallback
	logger      *slog.Logger
	now         func() time.Time
}

// newGate validates the configuration and builds the shared, read-only gate.
func newGate(config Config) (*gate, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	chain, err := x402.GetChainConfig(config.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrInvalidConfig, err)
	}
	if config.Asset != "" {
		chain.USDCAddress = config.Asset
	}

	routes, err := x402.NewRouteTable(config.Routes, chain.Decimals)
	if err != nil {
		return nil, err
	}

	var blanket *x402.RouteRule
	if len(config.Routes) == 0 {
		if _, err := x402.USDToBaseUnits(config.Price, chain.Decimals); err != nil {
			return nil, fmt.Errorf("%w: %v", x402.ErrInvalidConfig, err)
		}
		blanket = &x402.RouteRule{Pattern: "/*", Price: config.Price, Description: config.Description}
	}

	timeouts := config.Timeouts
	if timeouts == (x402.TimeoutConfig{}) {
		timeouts = x402.DefaultTimeouts
	}

	fac := config.Facilitator
	if fac == nil {
		fac = &FacilitatorClient{
			BaseURL:               config.FacilitatorURL,
			Client:                &http.Client{Timeout: timeouts.RequestTimeout},
			Timeouts:              timeouts,
			Authorization:         config.FacilitatorAuthorization,
			AuthorizationProvider: config.FacilitatorAuthorizationProvider,
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &gate{
		chain:       chain,
		payTo:       config.PayTo,
		routes:      routes,
		blanket:     blanket,
		mimeType:    config.MimeType,
		maxTimeout:  config.MaxTimeoutSeconds,
		verifyFirst: config.VerifyFirst,
		fac:         fac,
		validator:   &x402.Validator{Now: config.Now},
		onPayment:   config.OnPayment,
		onError:     config.OnError,
		logger:      logger,
		now:         now,
	}, nil
}

// NewMiddleware creates the payment-gating middleware for net/http handlers.
// Configuration errors are returned here, at startup, never at request time.
func NewMiddleware(config Config) (func(http.Handler) http.Handler, error) {
	g, err := newGate(config)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gated := g.serve(w, r); gated != nil {
				next.ServeHTTP(w, gated)
			}
		})
	}, nil
}

// resolve matches the request against the pricing rules, or the blanket
// price when no rules are configured.
func (g *gate) resolve(path, method string) (*x402.RouteRule, bool) {
	if g.blanket != nil {
		return g.blanket, true
	}
	return g.routes.Resolve(path, method)
}

// serve runs the gate for one request. It returns the (possibly
// receipt-carrying) request when the protected handler should run, or nil
// when a terminal response has already been written. The pipeline is a
// strict forward sequence; no state is re-entered within one request.
func (g *gate) serve(w http.ResponseWriter, r *http.Request) (gated *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("unexpected fault in payment gate",
				"panic", rec, "path", r.URL.Path, "method", r.Method)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			g.notifyError(x402.NewPaymentError(x402.ErrCodeInternal, "unexpected fault",
				fmt.Errorf("x402: unexpected fault: %v", rec)))
			gated = nil
		}
	}()

	rule, ok := g.resolve(r.URL.Path, r.Method)
	if !ok {
		// Unprotected: pass through untouched.
		return r
	}

	resource := helpers.BuildResourceURL(r)
	requirement, err := x402.BuildRequirement(g.chain, *rule, resource, g.payTo)
	if err != nil {
		// Prices are validated at startup, so this cannot happen for a
		// well-constructed gate.
		panic(err)
	}
	if g.mimeType != "" {
		requirement.MimeType = g.mimeType
	}
	if g.maxTimeout > 0 {
		requirement.MaxTimeoutSeconds = g.maxTimeout
	}

	paymentHeader := r.Header.Get(helpers.HeaderPayment)
	if paymentHeader == "" {
		g.logger.Info("no payment presented", "path", r.URL.Path)
		g.sendPaymentRequired(w, requirement, "Payment required")
		return nil
	}

	payment, err := helpers.ParsePaymentHeader(r)
	if err != nil {
		g.logger.Warn("undecodable payment header", "path", r.URL.Path, "error", err)
		g.reject(w, requirement, "Invalid payment: "+err.Error(), err)
		return nil
	}

	if err := g.validator.Check(&payment, &requirement); err != nil {
		g.logger.Warn("payment does not satisfy requirement", "path", r.URL.Path, "error", err)
		g.reject(w, requirement, err.Error(), err)
		return nil
	}

	if g.verifyFirst {
		verifyResp, err := g.fac.Verify(r.Context(), payment, requirement)
		if err != nil {
			g.logger.Error("facilitator verification failed", "error", err)
			g.reject(w, requirement, err.Error(), err)
			return nil
		}
		if !verifyResp.IsValid {
			g.logger.Warn("payment verification declined", "reason", verifyResp.InvalidReason)
			g.reject(w, requirement, verifyResp.InvalidReason,
				fmt.Errorf("%w: %s", x402.ErrVerificationFailed, verifyResp.InvalidReason))
			return nil
		}
	}

	settlement, err := g.fac.Settle(r.Context(), payment, requirement)
	if err != nil {
		// Logged distinctly: repeated settlement errors may indicate a
		// facilitator outage rather than a bad payment.
		g.logger.Error("settlement failed", "path", r.URL.Path, "error", err)
		g.reject(w, requirement, err.Error(), err)
		return nil
	}
	if !settlement.Success {
		g.logger.Warn("settlement declined", "reason", settlement.ErrorReason)
		g.reject(w, requirement, settlement.ErrorReason,
			fmt.Errorf("%w: %s", x402.ErrSettlementFailed, settlement.ErrorReason))
		return nil
	}

	g.logger.Info("payment settled",
		"payer", settlement.Payer, "transaction", settlement.Transaction, "resource", resource)

	if err := helpers.AddPaymentResponseHeader(w, settlement); err != nil {
		g.logger.Warn("failed to add payment response header", "error", err)
		// Continue anyway - payment was successful
	}

	receipt := x402.NewPaymentReceipt(settlement, rule.Price, resource, g.now())
	g.notifyPayment(receipt)

	ctx := context.WithValue(r.Context(), ReceiptContextKey, &receipt)
	return r.WithContext(ctx)
}

// sendPaymentRequired emits the 402 response for the given requirement.
func (g *gate) sendPaymentRequired(w http.ResponseWriter, requirement x402.PaymentRequirement, errMsg string) {
	if err := helpers.SendPaymentRequired(w, []x402.PaymentRequirement{requirement}, errMsg); err != nil {
		g.logger.Error("failed to send payment required response", "error", err)
	}
}

// reject terminates an unpaid request: the 402 response carries the message,
// and the error callback receives the failure as a structured PaymentError.
func (g *gate) reject(w http.ResponseWriter, requirement x402.PaymentRequirement, message string, err error) {
	g.sendPaymentRequired(w, requirement, message)
	g.notifyError(x402.NewPaymentError(x402.CodeFor(err), message, err))
}

// notifyPayment invokes the payment callback inside a failure-isolating
// boundary: a panicking callback is logged and never fails the request.
func (g *gate) notifyPayment(receipt x402.PaymentReceipt) {
	if g.onPayment == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("payment callback panicked", "panic", rec)
		}
	}()
	g.onPayment(receipt)
}

// notifyError invokes the error callback inside the same boundary.
func (g *gate) notifyError(err error) {
	if g.onError == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("error callback panicked", "panic", rec)
		}
	}()
	g.onError(err)
}
