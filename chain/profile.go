package chain

import "strings"

// Blockchain is the discriminator tag carried by a profile.
type Blockchain string

const (
	BlockchainEthereum Blockchain = "ethereum"
	BlockchainTezos    Blockchain = "tezos"
)

// String returns the capitalized display name of the blockchain, e.g. "Ethereum".
func (b Blockchain) String() string {
	if b == "" {
		return ""
	}

	return strings.ToUpper(string(b[:1])) + string(b[1:])
}

// Profile identifies a target chain and the endpoint of its node.
type Profile struct {
	Blockchain Blockchain `json:"blockchain" yaml:"blockchain" toml:"blockchain"`
	URL        string     `json:"url" yaml:"url" toml:"url"`
}

// IsEthereumProfile reports whether v is an Ethereum profile: a non-nil object whose
// blockchain is "ethereum" and whose url is a string.
func IsEthereumProfile(v any) bool {
	return matchProfile(v, BlockchainEthereum)
}

// IsTezosProfile reports whether v is a Tezos profile: a non-nil object whose blockchain is
// "tezos" and whose url is a string.
func IsTezosProfile(v any) bool {
	return matchProfile(v, BlockchainTezos)
}

// AsProfile converts v into a Profile if it satisfies one of the profile predicates.
func AsProfile(v any) (Profile, bool) {
	for _, b := range []Blockchain{BlockchainEthereum, BlockchainTezos} {
		if p, ok := toProfile(v, b); ok {
			return p, true
		}
	}

	return Profile{}, false
}

func matchProfile(v any, want Blockchain) bool {
	_, ok := toProfile(v, want)

	return ok
}

// toProfile accepts the shapes a profile can arrive in: the typed struct, a pointer to it, or a
// decoded JSON/YAML/TOML object.
func toProfile(v any, want Blockchain) (Profile, bool) {
	switch p := v.(type) {
	case Profile:
		if p.Blockchain != want {
			return Profile{}, false
		}

		return p, true
	case *Profile:
		if p == nil {
			return Profile{}, false
		}

		return toProfile(*p, want)
	case map[string]any:
		if p == nil {
			return Profile{}, false
		}
		tag, ok := p["blockchain"].(string)
		if !ok || Blockchain(tag) != want {
			return Profile{}, false
		}
		url, ok := p["url"].(string)
		if !ok {
			return Profile{}, false
		}

		return Profile{Blockchain: want, URL: url}, true
	case map[string]string:
		if p == nil {
			return Profile{}, false
		}
		url, ok := p["url"]
		if !ok || Blockchain(p["blockchain"]) != want {
			return Profile{}, false
		}

		return Profile{Blockchain: want, URL: url}, true
	default:
		return Profile{}, false
	}
}
