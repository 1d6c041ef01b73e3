// Package helpers provides internal HTTP utilities for x402 protocol handling.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"

	x402 "github.com/dclancy13/eco-x402"
	"github.com/dclancy13/eco-x402/encoding"
)

// Header names for the three wire values.
const (
	// HeaderPayment carries the client's payment payload (client-to-server).
	HeaderPayment = "X-Payment"

	// HeaderPaymentRequired carries the encoded requirement array on 402
	// responses (server-to-client).
	HeaderPaymentRequired = "X-Payment-Required"

	// HeaderPaymentResponse carries the encoded settlement result on
	// successful responses (server-to-client).
	HeaderPaymentResponse = "X-Payment-Response"
)

// ParsePaymentHeader extracts and decodes a PaymentPayload from the X-Payment
// header. Returns ErrMalformedHeader when the header is absent.
func ParsePaymentHeader(r *http.Request) (x402.PaymentPayload, error) {
	headerValue := r.Header.Get(HeaderPayment)
	if headerValue == "" {
		return x402.PaymentPayload{}, x402.ErrMalformedHeader
	}
	return encoding.DecodePayment(headerValue)
}

// SendPaymentRequired writes a 402 Payment Required response: the encoded
// requirement array in the X-Payment-Required header and a human-readable
// JSON body. Returns an error if encoding fails.
func SendPaymentRequired(w http.ResponseWriter, requirements []x402.PaymentRequirement, errMsg string) error {
	encoded, err := encoding.EncodeRequirements(requirements)
	if err != nil {
		return fmt.Errorf("encoding payment requirements: %w", err)
	}
	w.Header().Set(HeaderPaymentRequired, encoded)

	response := x402.PaymentRequirementsResponse{
		X402Version: x402.X402Version,
		Error:       errMsg,
		Accepts:     requirements,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("encoding payment required body: %w", err)
	}
	return nil
}

// AddPaymentResponseHeader adds the X-Payment-Response header with settlement
// information. Must be called before the response is committed.
func AddPaymentResponseHeader(w http.ResponseWriter, settlement *x402.SettlementResponse) error {
	if settlement == nil {
		return fmt.Errorf("AddPaymentResponseHeader: settlement is nil")
	}
	encoded, err := encoding.EncodeSettlement(*settlement)
	if err != nil {
		return fmt.Errorf("AddPaymentResponseHeader: encode settlement: %w", err)
	}
	w.Header().Set(HeaderPaymentResponse, encoded)
	return nil
}

// BuildResourceURL constructs the full URL for the protected resource from the request.
func BuildResourceURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.RequestURI
}
