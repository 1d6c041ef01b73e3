package x402

// DefaultMaxTimeoutSeconds is the authorization validity window advertised in
// payment requirements when the configuration does not override it.
const DefaultMaxTimeoutSeconds = 300

// BuildRequirement derives the canonical payment requirement for a priced
// route: the rule's USD price converted to base units of the chain's USDC
// asset, payable to the configured recipient for the given resource URL.
// Pure and deterministic; a fresh requirement is built for every 402 emitted.
func BuildRequirement(chain ChainConfig, rule RouteRule, resource, payTo string) (PaymentRequirement, error) {
	amount, err := USDToBaseUnits(rule.Price, chain.Decimals)
	if err != nil {
		return PaymentRequirement{}, err
	}

	req := PaymentRequirement{
		Scheme:            SchemeExact,
		Network:           chain.Network,
		MaxAmountRequired: amount,
		Asset:             chain.USDCAddress,
		PayTo:             payTo,
		Resource:          resource,
		Description:       rule.Description,
		MaxTimeoutSeconds: DefaultMaxTimeoutSeconds,
	}
	if chain.EIP3009Name != "" {
		req.Extra = map[string]interface{}{
			"name":    chain.EIP3009Name,
			"version": chain.EIP3009Version,
		}
	}
	return req, nil
}
