package evm

import (
	"math/big"

	chain_selectors "github.com/smartcontractkit/chain-selectors"
)

// ChainName returns the canonical name of the EVM chain with the given chain ID, falling back
// to the decimal chain ID when the chain is not known.
func ChainName(chainID *big.Int) string {
	if chainID == nil {
		return ""
	}

	details, err := chain_selectors.GetChainDetailsByChainIDAndFamily(chainID.String(), chain_selectors.FamilyEVM)
	if err != nil || details.ChainName == "" {
		return chainID.String()
	}

	return details.ChainName
}
