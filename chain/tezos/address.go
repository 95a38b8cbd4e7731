package tezos

import (
	"fmt"
	"strings"

	"github.com/trilitech/tzgo/tezos"
)

// ParseAddress parses an implicit (tz1, tz2, tz3, tz4) or originated (KT1) address. An
// entrypoint suffix such as "KT1...%transfer" is accepted and returned separately.
func ParseAddress(s string) (tezos.Address, string, error) {
	raw, entrypoint, _ := strings.Cut(s, "%")

	addr, err := tezos.ParseAddress(raw)
	if err != nil {
		return tezos.InvalidAddress, "", fmt.Errorf("invalid Tezos address format: %s: %w", s, err)
	}
	if !addr.IsEOA() && !addr.IsContract() {
		return tezos.InvalidAddress, "", fmt.Errorf("invalid Tezos address format: %s", s)
	}
	// tzgo truncates oversized payloads, the re-encoding catches them.
	if addr.String() != raw {
		return tezos.InvalidAddress, "", fmt.Errorf("invalid Tezos address format: %s: unexpected hash length", s)
	}

	return addr, entrypoint, nil
}

// ValidateAddress checks that s is an address accepted by ParseAddress.
func ValidateAddress(s string) error {
	_, _, err := ParseAddress(s)

	return err
}

// IsOriginated reports whether s is a KT1 contract address.
func IsOriginated(s string) bool {
	addr, _, err := ParseAddress(s)

	return err == nil && addr.IsContract()
}
