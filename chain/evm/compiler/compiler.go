// Package compiler turns Solidity source text into ABI and bytecode artifacts.
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gocache "github.com/patrickmn/go-cache"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

// Artifact is a single compiled contract of a compilation unit.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	RawABI   []byte
	Bytecode []byte
}

// Compiler compiles a single-file Solidity source into one artifact per contract, sorted by
// contract name.
type Compiler interface {
	Compile(ctx context.Context, code string) ([]Artifact, error)
}

// Select returns the artifact the source selects.
//
// A named contract must exist in the artifacts. Without a name, the source must define exactly
// one contract.
func Select(artifacts []Artifact, name string) (Artifact, error) {
	if name != "" {
		for _, a := range artifacts {
			if a.Name == name {
				return a, nil
			}
		}

		return Artifact{}, fmt.Errorf("%w: %q", chain.ErrContractNotFound, name)
	}

	switch len(artifacts) {
	case 0:
		return Artifact{}, fmt.Errorf("%w: source defines no contract", chain.ErrContractNotFound)
	case 1:
		return artifacts[0], nil
	default:
		return Artifact{}, fmt.Errorf("%w: found %d contracts, a contract name is required",
			chain.ErrAmbiguousContractSelection, len(artifacts),
		)
	}
}

// CompileAndSelect compiles the source and selects the contract it names.
func CompileAndSelect(ctx context.Context, c Compiler, src chain.ContractSource) (Artifact, error) {
	artifacts, err := c.Compile(ctx, src.Code)
	if err != nil {
		return Artifact{}, err
	}

	return Select(artifacts, src.Contract)
}

// cachedCompiler memoizes compilation results by source hash.
type cachedCompiler struct {
	inner Compiler
	cache *gocache.Cache
}

// Cached wraps c so that identical sources are compiled once per ttl. Failed compilations are
// not cached.
func Cached(c Compiler, ttl time.Duration) Compiler {
	return &cachedCompiler{
		inner: c,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *cachedCompiler) Compile(ctx context.Context, code string) ([]Artifact, error) {
	sum := sha256.Sum256([]byte(code))
	key := hex.EncodeToString(sum[:])

	if v, ok := c.cache.Get(key); ok {
		if artifacts, ok := v.([]Artifact); ok {
			return artifacts, nil
		}
	}

	artifacts, err := c.inner.Compile(ctx, code)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, artifacts)

	return artifacts, nil
}
