package evm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates an EVM address string and returns it as a common.Address.
// EVM addresses are hex strings (with or without 0x prefix) representing 20 bytes.
func ParseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid EVM address format: %s", address)
	}

	return common.HexToAddress(address), nil
}

// AddressToBytes converts an EVM address string to bytes.
func AddressToBytes(address string) ([]byte, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	return addr.Bytes(), nil
}
