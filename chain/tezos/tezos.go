// Package tezos adapts tzgo keys, signers and addresses to the inputs the provider receives as
// plain strings.
package tezos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trilitech/tzgo/signer"
	"github.com/trilitech/tzgo/tezos"
)

// Account is an implicit account whose secret key is held in memory.
type Account struct {
	Address   tezos.Address
	PublicKey tezos.Key
	Signer    signer.Signer
}

// NewAccount parses an unencrypted base58check secret key (edsk, spsk or p2sk) and returns the
// account it controls.
func NewAccount(secretKey string) (Account, error) {
	secretKey = strings.TrimSpace(secretKey)
	if tezos.IsEncryptedKey(secretKey) {
		return Account{}, errors.New("encrypted secret keys are not supported")
	}

	sk, err := tezos.ParsePrivateKey(secretKey)
	if err != nil {
		return Account{}, fmt.Errorf("unsupported secret key format: %w", err)
	}

	return Account{
		Address:   sk.Address(),
		PublicKey: sk.Public(),
		Signer:    signer.NewFromKey(sk),
	}, nil
}
