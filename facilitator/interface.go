// Package facilitator defines the contract for the external settlement
// collaborator: the service that verifies payment authorizations and settles
// them on-chain. The gating pipeline consumes it as a black box and issues
// each operation at most once per request.
package facilitator

import (
	"context"

	x402 "github.com/dclancy13/eco-x402"
)

// Interface is the settlement collaborator contract.
type Interface interface {
	// Verify checks a payment authorization without executing the transfer.
	// Optional pre-check; lets callers short-circuit before spending gas.
	Verify(ctx context.Context, payment x402.PaymentPayload, requirement x402.PaymentRequirement) (*x402.VerifyResponse, error)

	// Settle attempts on-chain settlement and returns success or failure
	// plus transaction identity. Terminal from the pipeline's point of view.
	Settle(ctx context.Context, payment x402.PaymentPayload, requirement x402.PaymentRequirement) (*x402.SettlementResponse, error)

	// Supported queries the facilitator for the payment kinds it can settle.
	Supported(ctx context.Context) (*SupportedResponse, error)
}

// Request is the payload sent to POST /verify and POST /settle.
type Request struct {
	X402Version         int                     `json:"x402Version"`
	PaymentPayload      x402.PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements x402.PaymentRequirement `json:"paymentRequirements"`
}

// SupportedKind describes a payment type supported by a facilitator.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse is returned by the facilitator /supported endpoint.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}
