package provider

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"
)

// SimClient is a wrapper struct around a simulated backend which implements evm.OnchainClient
// but also exposes backend methods.
//
// When auto commit is enabled, a block is committed after every submitted transaction so that
// the receipt poll of the provider can observe it.
type SimClient struct {
	mu sync.Mutex

	// Embed the simulated.Client to provide access to its methods and adhere to the OnchainClient interface.
	simulated.Client
	// sim is the underlying simulated backend that this client wraps.
	sim *simulated.Backend
	// autoCommit commits a block after each SendTransaction.
	autoCommit bool
}

// NewSimClient creates a new SimClient instance from a simulated backend.
func NewSimClient(t *testing.T, sim *simulated.Backend, autoCommit bool) *SimClient {
	t.Helper()

	require.NotNil(t, sim, "simulated backend must not be nil")

	return &SimClient{
		sim:        sim,
		Client:     sim.Client(),
		autoCommit: autoCommit,
	}
}

// SendTransaction submits the transaction to the simulated backend and commits a block when auto
// commit is enabled.
func (b *SimClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}

	if b.autoCommit {
		b.Commit()
	}

	return nil
}

// NetworkID returns the net_version of the simulated node, falling back to the chain id when the
// embedded client does not expose it.
func (b *SimClient) NetworkID(ctx context.Context) (*big.Int, error) {
	if c, ok := b.Client.(interface {
		NetworkID(ctx context.Context) (*big.Int, error)
	}); ok {
		return c.NetworkID(ctx)
	}

	return b.Client.ChainID(ctx)
}

// Commit mines a new block.
func (b *SimClient) Commit() common.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.sim.Commit()
}
