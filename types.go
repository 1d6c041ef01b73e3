// Package x402 implements the resource-server side of the x402 payment
// protocol: a request-gating pipeline that prices HTTP endpoints, emits
// payment requirements for unpaid requests, validates header-carried payment
// payloads, and drives settlement through an external facilitator.
//
// The exact scheme is the only payment scheme defined: a signed, time-bounded
// EIP-3009 transfer authorization whose value must meet or exceed a fixed
// required amount.
package x402

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// X402Version is the protocol version emitted in payment-required responses.
const X402Version = 1

// SchemeExact is the only payment scheme defined by the protocol.
const SchemeExact = "exact"

// Version is the protocol version carried in a payment payload. Clients send
// it as either a JSON number or a JSON string; both normalize to the same
// string form on decode.
type Version string

// Protocol versions accepted in payment payloads.
const (
	VersionV1 Version = "1"
	VersionV2 Version = "2.0"
)

// Supported reports whether the version is one this pipeline accepts.
func (v Version) Supported() bool {
	return v == VersionV1 || v == VersionV2
}

// UnmarshalJSON accepts both number and string forms of the version.
func (v *Version) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*v = ""
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("x402Version: %w", err)
		}
		*v = Version(str)
		return nil
	}
	if s[0] == '{' || s[0] == '[' {
		return fmt.Errorf("%w: x402Version must be a string or number", ErrInvalidPayload)
	}
	*v = Version(s)
	return nil
}

// MarshalJSON emits numeric versions unquoted so the wire form round-trips
// byte-for-byte with what clients send.
func (v Version) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(v), 64); err == nil {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

// PaymentRequirement defines a single acceptable payment option for a
// protected resource. It is recomputed for every 402 response and never
// mutated after construction.
type PaymentRequirement struct {
	// Scheme is the payment scheme identifier. Always "exact".
	Scheme string `json:"scheme"`

	// Network is the blockchain network in CAIP-2 format (e.g., "eip155:8453").
	Network string `json:"network"`

	// MaxAmountRequired is the required amount in base units of the asset,
	// as an unsigned decimal integer string.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Asset is the token contract address.
	Asset string `json:"asset"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo"`

	// Resource is the URL of the protected resource.
	Resource string `json:"resource,omitempty"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// MimeType is the content type of the protected resource.
	MimeType string `json:"mimeType,omitempty"`

	// OutputSchema is a JSON schema describing the response format.
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`

	// MaxTimeoutSeconds is the validity period advertised for the payment
	// authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds,omitempty"`

	// Extra contains scheme-specific additional data, such as the EIP-3009
	// domain name and version for EVM assets.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// PaymentPayload is the header-carried payment a client presents against a
// requirement. Decoded once per request, never mutated.
type PaymentPayload struct {
	// X402Version is the protocol version ("1" or "2.0").
	X402Version Version `json:"x402Version"`

	// Scheme is the payment scheme identifier. Always "exact".
	Scheme string `json:"scheme"`

	// Network is the blockchain network in CAIP-2 format.
	Network string `json:"network"`

	// Payload contains the signed transfer authorization.
	Payload ExactPayload `json:"payload"`
}

// ExactPayload contains the signature and EIP-3009 authorization for an
// exact-scheme payment.
type ExactPayload struct {
	// Signature is the 65-byte hex-encoded ECDSA signature.
	Signature string `json:"signature"`

	// Authorization contains the transferWithAuthorization parameters.
	Authorization ExactAuthorization `json:"authorization"`
}

// ExactAuthorization is a signed, time-bounded statement permitting a value
// transfer from payer to recipient. Nonce uniqueness and the ordering of the
// validity bounds are enforced by the settlement facilitator, not here.
type ExactAuthorization struct {
	// From is the payer's address.
	From string `json:"from"`

	// To is the recipient's address.
	To string `json:"to"`

	// Value is the authorized amount in base units.
	Value string `json:"value"`

	// ValidAfter is the unix timestamp after which the authorization is valid.
	ValidAfter string `json:"validAfter"`

	// ValidBefore is the unix timestamp before which the authorization is valid.
	ValidBefore string `json:"validBefore"`

	// Nonce is a unique 32-byte hex string to prevent replay.
	Nonce string `json:"nonce"`
}

// PaymentRequirementsResponse is the 402 response body sent to unpaid clients.
// Accepts is an array for forward compatibility; only one element is
// populated today.
type PaymentRequirementsResponse struct {
	X402Version int                  `json:"x402Version"`
	Error       string               `json:"error,omitempty"`
	Accepts     []PaymentRequirement `json:"accepts"`
}

// SettlementResponse is the facilitator's terminal answer to a settlement
// attempt. Produced exactly once per attempt; the pipeline never retries.
type SettlementResponse struct {
	// Success indicates whether the payment was settled on-chain.
	Success bool `json:"success"`

	// ErrorReason provides a short error code if settlement failed.
	ErrorReason string `json:"errorReason,omitempty"`

	// Transaction is the blockchain transaction hash.
	Transaction string `json:"transaction,omitempty"`

	// Network is the network the payment was settled on (CAIP-2 format).
	Network string `json:"network"`

	// Payer is the address that made the payment.
	Payer string `json:"payer,omitempty"`

	// Timestamp is the unix time of settlement, when the facilitator reports it.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// VerifyResponse is the facilitator's answer to a verification pre-check.
type VerifyResponse struct {
	// IsValid indicates whether the payment would settle.
	IsValid bool `json:"isValid"`

	// InvalidReason provides a short error code if the payment is invalid.
	InvalidReason string `json:"invalidReason,omitempty"`

	// Payer is the address that made the payment.
	Payer string `json:"payer,omitempty"`
}
