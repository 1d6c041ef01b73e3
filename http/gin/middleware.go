// Package gin provides payment-gating middleware for the Gin web framework.
// It is a thin adapter over the net/http middleware; all payment logic lives
// in the http package.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	x402 "github.com/dclancy13/eco-x402"
	x402http "github.com/dclancy13/eco-x402/http"
)

// ReceiptKey is the gin context key under which the payment receipt is stored.
const ReceiptKey = "x402_receipt"

// Config is the middleware configuration, shared with the net/http variant.
type Config = x402http.Config

// NewMiddleware creates payment-gating middleware for Gin. Configuration
// errors are returned at startup, never deferred to request time.
func NewMiddleware(config Config) (gin.HandlerFunc, error) {
	mw, err := x402http.NewMiddleware(config)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		gated := false
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gated = true
			c.Request = r
			if receipt := x402http.ReceiptFromContext(r.Context()); receipt != nil {
				c.Set(ReceiptKey, receipt)
			}
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !gated {
			c.Abort()
		}
	}, nil
}

// ReceiptFromContext extracts the payment receipt from a gin context.
// Returns nil when the request was not payment-gated.
func ReceiptFromContext(c *gin.Context) *x402.PaymentReceipt {
	value, exists := c.Get(ReceiptKey)
	if !exists {
		return nil
	}
	receipt, ok := value.(*x402.PaymentReceipt)
	if !ok {
		return nil
	}
	return receipt
}
