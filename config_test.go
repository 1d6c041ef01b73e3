package x402

import (
	"testing"
	"time"
)

func TestTimeoutConfigValidate(t *testing.T) {
	if err := DefaultTimeouts.Validate(); err != nil {
		t.Errorf("DefaultTimeouts.Validate() error = %v", err)
	}

	tests := []struct {
		name    string
		config  TimeoutConfig
		wantErr bool
	}{
		{
			name:    "all positive in order",
			config:  TimeoutConfig{VerifyTimeout: time.Second, SettleTimeout: time.Minute, RequestTimeout: 2 * time.Minute},
			wantErr: false,
		},
		{
			name:    "zero verify",
			config:  TimeoutConfig{SettleTimeout: time.Minute, RequestTimeout: time.Minute},
			wantErr: true,
		},
		{
			name:    "settle shorter than verify",
			config:  TimeoutConfig{VerifyTimeout: time.Minute, SettleTimeout: time.Second, RequestTimeout: time.Minute},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutConfigBuilders(t *testing.T) {
	tc := DefaultTimeouts.
		WithVerifyTimeout(2 * time.Second).
		WithSettleTimeout(30 * time.Second).
		WithRequestTimeout(90 * time.Second)

	if tc.VerifyTimeout != 2*time.Second || tc.SettleTimeout != 30*time.Second || tc.RequestTimeout != 90*time.Second {
		t.Errorf("builders produced %+v", tc)
	}
	// The original must be untouched.
	if DefaultTimeouts.VerifyTimeout != 5*time.Second {
		t.Error("WithVerifyTimeout mutated DefaultTimeouts")
	}
}

func TestNewPaymentReceipt(t *testing.T) {
	now := time.Unix(1700000300, 0)
	settlement := &SettlementResponse{
		Success:     true,
		Transaction: "0xtxhash",
		Network:     NetworkBase,
		Payer:       "0x857b06519E91e3A54538791bDbb0E22373e36b66",
	}

	receipt := NewPaymentReceipt(settlement, "0.01", "https://example.com/api", now)
	if receipt.Timestamp != now {
		t.Errorf("Timestamp = %v; want fallback clock %v", receipt.Timestamp, now)
	}
	if receipt.Amount != "0.01" || receipt.TransactionHash != "0xtxhash" {
		t.Errorf("receipt = %+v", receipt)
	}

	settlement.Timestamp = 1700000250
	receipt = NewPaymentReceipt(settlement, "0.01", "https://example.com/api", now)
	if receipt.Timestamp != time.Unix(1700000250, 0).UTC() {
		t.Errorf("Timestamp = %v; facilitator timestamp must win", receipt.Timestamp)
	}
}
