package x402

import (
	"fmt"
	"strconv"
	"strings"
)

// CAIP-2 network identifiers for the EVM chains the pipeline knows about.
const (
	// Mainnets
	NetworkBase      = "eip155:8453"
	NetworkPolygon   = "eip155:137"
	NetworkAvalanche = "eip155:43114"
	NetworkEthereum  = "eip155:1"

	// Testnets
	NetworkBaseSepolia   = "eip155:84532"
	NetworkPolygonAmoy   = "eip155:80002"
	NetworkAvalancheFuji = "eip155:43113"
	NetworkSepolia       = "eip155:11155111"
)

// ChainConfig holds configuration for a specific blockchain.
type ChainConfig struct {
	// Network is the CAIP-2 network identifier.
	Network string

	// USDCAddress is the official Circle USDC contract address.
	USDCAddress string

	// Decimals is the number of decimal places for USDC (always 6).
	Decimals int32

	// EIP3009Name is the EIP-3009 domain parameter "name".
	EIP3009Name string

	// EIP3009Version is the EIP-3009 domain parameter "version".
	EIP3009Version string
}

// Predefined chain configurations - mainnets
var (
	// BaseMainnet is the configuration for Base mainnet.
	BaseMainnet = ChainConfig{
		Network:        NetworkBase,
		USDCAddress:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// PolygonMainnet is the configuration for Polygon PoS mainnet.
	PolygonMainnet = ChainConfig{
		Network:        NetworkPolygon,
		USDCAddress:    "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// AvalancheMainnet is the configuration for Avalanche C-Chain mainnet.
	AvalancheMainnet = ChainConfig{
		Network:        NetworkAvalanche,
		USDCAddress:    "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// EthereumMainnet is the configuration for Ethereum mainnet.
	EthereumMainnet = ChainConfig{
		Network:        NetworkEthereum,
		USDCAddress:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}
)

// Predefined chain configurations - testnets
var (
	// BaseSepolia is the configuration for Base Sepolia testnet.
	BaseSepolia = ChainConfig{
		Network:        NetworkBaseSepolia,
		USDCAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	// PolygonAmoy is the configuration for Polygon Amoy testnet.
	PolygonAmoy = ChainConfig{
		Network:        NetworkPolygonAmoy,
		USDCAddress:    "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	// AvalancheFuji is the configuration for Avalanche Fuji testnet.
	AvalancheFuji = ChainConfig{
		Network:        NetworkAvalancheFuji,
		USDCAddress:    "0x5425890298aed601595a70AB815c96711a31Bc65",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	// Sepolia is the configuration for Ethereum Sepolia testnet.
	Sepolia = ChainConfig{
		Network:        NetworkSepolia,
		USDCAddress:    "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}
)

// chainConfigByNetwork maps CAIP-2 network identifiers to chain configurations.
var chainConfigByNetwork = map[string]ChainConfig{
	NetworkBase:          BaseMainnet,
	NetworkPolygon:       PolygonMainnet,
	NetworkAvalanche:     AvalancheMainnet,
	NetworkEthereum:      EthereumMainnet,
	NetworkBaseSepolia:   BaseSepolia,
	NetworkPolygonAmoy:   PolygonAmoy,
	NetworkAvalancheFuji: AvalancheFuji,
	NetworkSepolia:       Sepolia,
}

// GetChainConfig returns the chain configuration for a CAIP-2 network identifier.
// Returns an error if the network is not recognized.
func GetChainConfig(network string) (ChainConfig, error) {
	config, ok := chainConfigByNetwork[network]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: %s", ErrInvalidNetwork, network)
	}
	return config, nil
}

// ValidateNetwork validates a CAIP-2 EVM network identifier. The pipeline's
// wire format carries 20-byte hex addresses and EIP-3009 authorizations, so
// only eip155 networks are accepted.
func ValidateNetwork(network string) error {
	if network == "" {
		return fmt.Errorf("%w: network cannot be empty", ErrInvalidNetwork)
	}

	parts := strings.SplitN(network, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return fmt.Errorf("%w: invalid CAIP-2 format: %s", ErrInvalidNetwork, network)
	}

	if parts[0] != "eip155" {
		return fmt.Errorf("%w: unsupported namespace: %s", ErrInvalidNetwork, parts[0])
	}

	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return fmt.Errorf("%w: invalid EIP-155 chain ID: %s", ErrInvalidNetwork, parts[1])
	}

	return nil
}

// GetChainID extracts the chain ID from a CAIP-2 EVM network identifier.
func GetChainID(network string) (int64, error) {
	if err := ValidateNetwork(network); err != nil {
		return 0, err
	}

	parts := strings.SplitN(network, ":", 2)
	chainID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid chain ID: %s", ErrInvalidNetwork, parts[1])
	}

	return chainID, nil
}
