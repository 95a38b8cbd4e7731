package provider

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerGenerator is an interface for generating geth's *bind.TransactOpts instances. These
// instances sign transactions locally for a given chain ID.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

var _ SignerGenerator = (*transactorFromRaw)(nil)

// TransactorFromRaw returns a generator which creates a transactor from a raw hex encoded
// private key, with or without the 0x prefix.
func TransactorFromRaw(privKey string) SignerGenerator {
	return &transactorFromRaw{
		privKey: strings.TrimPrefix(strings.TrimSpace(privKey), "0x"),
	}
}

// transactorFromRaw is a SignerGenerator that creates a transactor from a private key.
type transactorFromRaw struct {
	privKey string
}

// Generate parses the hex encoded private key and returns the bind transactor options.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return bind.NewKeyedTransactorWithChainID(privKey, chainID)
}
