/*
Package chain provides the uniform contract abstraction layer shared by every supported ledger.

# Overview

The chain package defines the Provider interface that each ledger implementation must satisfy,
the chain-agnostic models exchanged through it, and the profile predicates used to decide which
implementation a connection profile selects.

Two families are supported:

  - Ethereum (EVM bytecode, Solidity sources), implemented in chain/evm/provider
  - Tezos (Michelson scripts), implemented in chain/tezos/provider

# Architecture

 1. Provider Interface (provider.go) - GetBalance, Deploy, Send and Call
 2. Models (types.go) - balances, receipts, contract sources and ContractInfo
 3. Profiles (profile.go) - tagged {blockchain, url} records and their predicates
 4. Errors (errors.go) - sentinel error kinds surfaced by every implementation

Providers are built through chain/factory, which is the only place that dispatches on the
blockchain tag of a profile. LazyProviders in the same package builds and caches one provider
per named profile on first use.

# Basic Usage

	import (
		"github.com/smartcontractkit/chainlink-multichain-provider/chain"
		"github.com/smartcontractkit/chainlink-multichain-provider/chain/factory"
	)

	p, err := factory.FromProfile(chain.Profile{Blockchain: chain.BlockchainTezos, URL: "http://localhost:20000"})
	if err != nil {
		return err
	}

	bal, err := p.GetBalance(ctx, "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb")
	if err != nil {
		return err
	}

	fmt.Println(bal.Balance, bal.Unit) // 2000000000000 µꜩ

# Normalization

Amounts are always decimal integer strings. Ethereum balances are reported in wei and Tezos
balances in µꜩ (1 ꜩ = 1,000,000 µꜩ). Consumed gas is always reported in gas units; chains that
account in milligas are divided down (rounding up) before the value leaves the provider.

# Concurrency

Provider methods perform a sequence of RPC round trips with no internal parallelism. Ethereum
signing is stateless per call. The Tezos provider installs the signing identity on the shared
client for the duration of a signed call, so concurrent Deploy/Send calls against one Tezos
provider must be serialized by the caller.
*/
package chain
