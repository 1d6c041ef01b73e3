// Package validation provides field-level schema validation for x402 wire
// records. Decoding is the only place untrusted input enters the pipeline, so
// these checks are exhaustive and fail fast: the first offending field is
// reported and no partially-valid record escapes the codec.
package validation

import (
	"fmt"
	"regexp"

	x402 "github.com/dclancy13/eco-x402"
)

var (
	// addressRegex matches 20-byte hex addresses (0x followed by 40 hex chars).
	addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	// signatureRegex matches 65-byte hex signatures (0x followed by 130 hex chars).
	signatureRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{130}$`)

	// nonceRegex matches 32-byte hex nonces (0x followed by 64 hex chars).
	nonceRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

	// uintRegex matches unsigned base-10 integer strings: no sign, no decimal
	// point, no leading +.
	uintRegex = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateAddress checks that the named field is a 20-byte hex address.
func ValidateAddress(field, address string) error {
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("%s must be a 20-byte hex address, got %q", field, address)
	}
	return nil
}

// ValidateAmount checks that the named field is an unsigned integer string.
func ValidateAmount(field, amount string) error {
	if !uintRegex.MatchString(amount) {
		return fmt.Errorf("%s must be an unsigned integer, got %q", field, amount)
	}
	return nil
}

// ValidateRequirement validates a payment requirement record.
// The network field only needs to be non-empty here; whether the network is
// one this deployment supports is a startup concern, not a wire concern.
func ValidateRequirement(req x402.PaymentRequirement) error {
	if req.Scheme != x402.SchemeExact {
		return fmt.Errorf(`%w: scheme must be "exact", got %q`, x402.ErrUnsupportedScheme, req.Scheme)
	}
	if req.Network == "" {
		return fmt.Errorf("%w: network cannot be empty", x402.ErrInvalidRequirements)
	}
	if err := ValidateAddress("asset", req.Asset); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidRequirements, err)
	}
	if err := ValidateAddress("payTo", req.PayTo); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidRequirements, err)
	}
	if err := ValidateAmount("maxAmountRequired", req.MaxAmountRequired); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidRequirements, err)
	}
	return nil
}

// ValidatePayload validates a payment payload record.
func ValidatePayload(payment x402.PaymentPayload) error {
	if !payment.X402Version.Supported() {
		return fmt.Errorf("%w: x402Version %q", x402.ErrUnsupportedVersion, string(payment.X402Version))
	}
	if payment.Scheme != x402.SchemeExact {
		return fmt.Errorf(`%w: scheme must be "exact", got %q`, x402.ErrUnsupportedScheme, payment.Scheme)
	}
	if payment.Network == "" {
		return fmt.Errorf("%w: network cannot be empty", x402.ErrInvalidPayload)
	}

	if !signatureRegex.MatchString(payment.Payload.Signature) {
		return fmt.Errorf("%w: payload.signature must be a 65-byte hex signature, got %q",
			x402.ErrInvalidPayload, payment.Payload.Signature)
	}

	auth := payment.Payload.Authorization
	if err := ValidateAddress("authorization.from", auth.From); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if err := ValidateAddress("authorization.to", auth.To); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if err := ValidateAmount("authorization.value", auth.Value); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if err := ValidateAmount("authorization.validAfter", auth.ValidAfter); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if err := ValidateAmount("authorization.validBefore", auth.ValidBefore); err != nil {
		return fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if !nonceRegex.MatchString(auth.Nonce) {
		return fmt.Errorf("%w: authorization.nonce must be a 32-byte hex value, got %q",
			x402.ErrInvalidPayload, auth.Nonce)
	}
	return nil
}

// ValidateSettlement validates a settlement response record.
func ValidateSettlement(settlement x402.SettlementResponse) error {
	if settlement.Network == "" {
		return fmt.Errorf("%w: network cannot be empty", x402.ErrInvalidSettlement)
	}
	if settlement.Payer != "" {
		if err := ValidateAddress("payer", settlement.Payer); err != nil {
			return fmt.Errorf("%w: %v", x402.ErrInvalidSettlement, err)
		}
	}
	return nil
}
