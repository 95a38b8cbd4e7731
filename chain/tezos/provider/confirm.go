package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/trilitech/tzgo/rpc"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/provider/rpcclient"
)

var errNotIncluded = errors.New("operation not included yet")

// waitIncluded scans the blocks following fromLevel until one of them contains the operation
// and returns the operation with its receipts. It waits for exactly one block and only stops
// early when ctx is done or the node can not be queried.
func (p *Provider) waitIncluded(ctx context.Context, hash tz.OpHash, fromLevel int64) (*rpc.Operation, error) {
	next := fromLevel + 1

	return retry.DoWithData(func() (*rpc.Operation, error) {
		for {
			block, err := p.client.GetBlockHeight(ctx, next)
			if rpcclient.IsNotFound(err) {
				return nil, errNotIncluded
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get block %d: %w", next, err)
			}

			if op, ok := findOperation(block, hash); ok {
				p.lggr.Infow("Operation included", "opHash", hash, "level", next, "block", block.Hash)
				return op, nil
			}
			next++
		}
	},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(p.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errNotIncluded)
		}),
		retry.OnRetry(func(attempt uint, _ error) {
			p.lggr.Debugw("Waiting for operation inclusion", "opHash", hash, "attempt", attempt+1, "level", next)
		}),
	)
}

func findOperation(block *rpc.Block, hash tz.OpHash) (*rpc.Operation, bool) {
	for _, list := range block.Operations {
		for _, op := range list {
			if op != nil && op.Hash.Equal(hash) {
				return op, true
			}
		}
	}

	return nil, false
}
