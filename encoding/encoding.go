// Package encoding is the wire codec for x402 records: payment requirements,
// payment payloads, and settlement responses all travel as base64-encoded
// JSON in dedicated headers. Encoding trusts the producer; decoding runs full
// schema validation and is the only place untrusted input enters the system.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	x402 "github.com/dclancy13/eco-x402"
	"github.com/dclancy13/eco-x402/validation"
)

// decodeWire reverses the base64 layer and checks JSON well-formedness.
// Both failures wrap ErrMalformedHeader so callers can distinguish transport
// corruption from semantic validation errors.
func decodeWire(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding: %v", x402.ErrMalformedHeader, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", x402.ErrMalformedHeader)
	}
	return raw, nil
}

// EncodeRequirements converts a requirement array to its wire form.
// The array form is retained for forward compatibility even though only one
// element is populated today.
func EncodeRequirements(requirements []x402.PaymentRequirement) (string, error) {
	data, err := json.Marshal(requirements)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirements: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeRequirements converts a wire string back to a requirement array,
// validating every element.
func DecodeRequirements(encoded string) ([]x402.PaymentRequirement, error) {
	raw, err := decodeWire(encoded)
	if err != nil {
		return nil, err
	}

	if first := firstByte(raw); first != '[' {
		return nil, fmt.Errorf("%w: payment requirements must be an array", x402.ErrInvalidRequirements)
	}

	var requirements []x402.PaymentRequirement
	if err := json.Unmarshal(raw, &requirements); err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrInvalidRequirements, err)
	}

	for i := range requirements {
		if err := validation.ValidateRequirement(requirements[i]); err != nil {
			return nil, fmt.Errorf("requirements[%d]: %w", i, err)
		}
	}
	return requirements, nil
}

// EncodePayment converts a PaymentPayload to its wire form.
func EncodePayment(payment x402.PaymentPayload) (string, error) {
	data, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayment converts a wire string back to a PaymentPayload, running
// full schema validation so no partially-valid payload escapes the codec.
func DecodePayment(encoded string) (x402.PaymentPayload, error) {
	var payment x402.PaymentPayload

	raw, err := decodeWire(encoded)
	if err != nil {
		return payment, err
	}
	if err := json.Unmarshal(raw, &payment); err != nil {
		return payment, fmt.Errorf("%w: %v", x402.ErrInvalidPayload, err)
	}
	if err := validation.ValidatePayload(payment); err != nil {
		return x402.PaymentPayload{}, err
	}
	return payment, nil
}

// EncodeSettlement converts a SettlementResponse to its wire form.
func EncodeSettlement(settlement x402.SettlementResponse) (string, error) {
	data, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeSettlement converts a wire string back to a SettlementResponse.
func DecodeSettlement(encoded string) (x402.SettlementResponse, error) {
	var settlement x402.SettlementResponse

	raw, err := decodeWire(encoded)
	if err != nil {
		return settlement, err
	}
	if err := json.Unmarshal(raw, &settlement); err != nil {
		return settlement, fmt.Errorf("%w: %v", x402.ErrInvalidSettlement, err)
	}
	if err := validation.ValidateSettlement(settlement); err != nil {
		return x402.SettlementResponse{}, err
	}
	return settlement, nil
}

// firstByte returns the first non-whitespace byte of raw, or 0.
func firstByte(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
