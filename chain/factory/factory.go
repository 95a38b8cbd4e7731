// Package factory builds the chain.Provider selected by a connection profile.
package factory

import (
	"fmt"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	evmprov "github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/provider"
	tezosprov "github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/provider"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

// Option configures the providers built by FromProfile.
type Option func(*options)

type options struct {
	lggr      logger.Logger
	evmOpts   []evmprov.Option
	tezosOpts []tezosprov.Option
}

// WithLogger sets the logger handed to the provider.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithEVMOptions sets options applied when the profile selects Ethereum.
func WithEVMOptions(opts ...evmprov.Option) Option {
	return func(o *options) {
		o.evmOpts = append(o.evmOpts, opts...)
	}
}

// WithTezosOptions sets options applied when the profile selects Tezos.
func WithTezosOptions(opts ...tezosprov.Option) Option {
	return func(o *options) {
		o.tezosOpts = append(o.tezosOpts, opts...)
	}
}

// FromProfile returns the provider for profile, which may be a chain.Profile, a *chain.Profile
// or a decoded JSON/YAML object. Any other value fails with chain.ErrUnrecognizedProfile.
//
// Building a provider does not contact the node.
func FromProfile(profile any, opts ...Option) (chain.Provider, error) {
	o := &options{lggr: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case chain.IsEthereumProfile(profile):
		p, _ := chain.AsProfile(profile)
		evmOpts := append([]evmprov.Option{evmprov.WithLogger(o.lggr)}, o.evmOpts...)

		provider, err := evmprov.New(p.URL, evmOpts...)
		if err != nil {
			return nil, err
		}

		return provider, nil
	case chain.IsTezosProfile(profile):
		p, _ := chain.AsProfile(profile)
		tezosOpts := append([]tezosprov.Option{tezosprov.WithLogger(o.lggr)}, o.tezosOpts...)

		provider, err := tezosprov.New(p.URL, tezosOpts...)
		if err != nil {
			return nil, err
		}

		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", chain.ErrUnrecognizedProfile, describe(profile))
	}
}

func describe(v any) string {
	if v == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%T", v)
}
