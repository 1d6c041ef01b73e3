package x402

import "time"

// PaymentReceipt records a settled payment for the lifetime of one request.
// It is attached to the request context for downstream handlers and passed to
// the payment callback.
type PaymentReceipt struct {
	// Payer is the address that made the payment.
	Payer string

	// Amount is the human-facing USD price that was charged.
	Amount string

	// TransactionHash is the on-chain settlement transaction.
	TransactionHash string

	// Network is the CAIP-2 network the payment settled on.
	Network string

	// Timestamp is when the payment settled.
	Timestamp time.Time

	// Resource is the URL of the resource the payment unlocked.
	Resource string
}

// NewPaymentReceipt derives a receipt from a successful settlement and the
// matched rule's price. The facilitator's timestamp is preferred when present.
func NewPaymentReceipt(settlement *SettlementResponse, amountUSD, resource string, now time.Time) PaymentReceipt {
	ts := now
	if settlement.Timestamp > 0 {
		ts = time.Unix(settlement.Timestamp, 0).UTC()
	}
	return PaymentReceipt{
		Payer:           settlement.Payer,
		Amount:          amountUSD,
		TransactionHash: settlement.Transaction,
		Network:         settlement.Network,
		Timestamp:       ts,
		Resource:        resource,
	}
}

// PaymentCallback is invoked after a payment settles, with the receipt.
// Callbacks run synchronously on the request path but are failure-isolated:
// a panic is logged and never fails the response.
type PaymentCallback func(PaymentReceipt)

// ErrorCallback is invoked when a protected request terminates without
// payment: undecodable or invalid payloads, failed settlement, or an
// unexpected fault. Failure-isolated like PaymentCallback.
type ErrorCallback func(error)
