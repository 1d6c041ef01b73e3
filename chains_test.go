package x402

import (
	"errors"
	"testing"
)

func TestGetChainConfig(t *testing.T) {
	config, err := GetChainConfig(NetworkBase)
	if err != nil {
		t.Fatalf("GetChainConfig(%q) error = %v", NetworkBase, err)
	}
	if config.USDCAddress != "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913" {
		t.Errorf("USDCAddress = %s", config.USDCAddress)
	}
	if config.Decimals != 6 {
		t.Errorf("Decimals = %d; want 6", config.Decimals)
	}

	_, err = GetChainConfig("eip155:999999")
	if !errors.Is(err, ErrInvalidNetwork) {
		t.Errorf("GetChainConfig(unknown) error = %v; want ErrInvalidNetwork", err)
	}
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		name    string
		network string
		wantErr bool
	}{
		{name: "base mainnet", network: "eip155:8453", wantErr: false},
		{name: "unregistered but well-formed", network: "eip155:42161", wantErr: false},
		{name: "empty", network: "", wantErr: true},
		{name: "no namespace", network: "8453", wantErr: true},
		{name: "non-evm namespace", network: "solana:mainnet", wantErr: true},
		{name: "non-numeric chain id", network: "eip155:base", wantErr: true},
		{name: "missing reference", network: "eip155:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNetwork(tt.network)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNetwork(%q) error = %v, wantErr %v", tt.network, err, tt.wantErr)
			}
		})
	}
}

func TestGetChainID(t *testing.T) {
	id, err := GetChainID(NetworkBase)
	if err != nil {
		t.Fatalf("GetChainID() error = %v", err)
	}
	if id != 8453 {
		t.Errorf("GetChainID() = %d; want 8453", id)
	}

	if _, err := GetChainID("cosmos:cosmoshub-4"); err == nil {
		t.Error("GetChainID() expected error for non-EVM network")
	}
}

func TestRegisteredChainsAreValid(t *testing.T) {
	for network, config := range chainConfigByNetwork {
		if err := ValidateNetwork(network); err != nil {
			t.Errorf("registered network %q invalid: %v", network, err)
		}
		if config.Network != network {
			t.Errorf("config for %q carries network %q", network, config.Network)
		}
		if config.Decimals != 6 {
			t.Errorf("config for %q has %d decimals; want 6", network, config.Decimals)
		}
	}
}
