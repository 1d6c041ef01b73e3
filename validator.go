package x402

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Validator checks a decoded payment payload against the requirement it is
// presented against, before any settlement attempt. Checks run in a fixed
// order (cheapest first) and the first failure short-circuits.
//
// The validator deliberately does not enforce validAfter < validBefore nor
// nonce uniqueness; replay protection belongs to the settlement facilitator.
type Validator struct {
	// Now supplies the timestamp for window checks. Defaults to time.Now.
	Now func() time.Time
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Check verifies that the payment satisfies the requirement:
// network equality, recipient equality (case-insensitive address compare),
// amount sufficiency as arbitrary-precision integers, then the validity
// window. Returns the sentinel for the first failed check.
func (v *Validator) Check(payment *PaymentPayload, requirement *PaymentRequirement) error {
	if payment.Network != requirement.Network {
		return fmt.Errorf("%w: payment is for %s, required %s",
			ErrNetworkMismatch, payment.Network, requirement.Network)
	}

	auth := payment.Payload.Authorization
	if common.HexToAddress(auth.To) != common.HexToAddress(requirement.PayTo) {
		return fmt.Errorf("%w: authorized recipient %s, required %s",
			ErrRecipientMismatch, auth.To, requirement.PayTo)
	}

	value, ok := new(big.Int).SetString(auth.Value, 10)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, auth.Value)
	}
	required, ok := new(big.Int).SetString(requirement.MaxAmountRequired, 10)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, requirement.MaxAmountRequired)
	}
	if value.Cmp(required) < 0 {
		return fmt.Errorf("%w: authorized %s, required %s",
			ErrInsufficientAmount, auth.Value, requirement.MaxAmountRequired)
	}

	now := v.now().Unix()
	validAfter, err := strconv.ParseInt(auth.ValidAfter, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: validAfter %q", ErrInvalidPayload, auth.ValidAfter)
	}
	if now < validAfter {
		return fmt.Errorf("%w: valid from %d, now %d", ErrPaymentNotYetValid, validAfter, now)
	}
	validBefore, err := strconv.ParseInt(auth.ValidBefore, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: validBefore %q", ErrInvalidPayload, auth.ValidBefore)
	}
	if now > validBefore {
		return fmt.Errorf("%w: valid until %d, now %d", ErrPaymentExpired, validBefore, now)
	}

	return nil
}
