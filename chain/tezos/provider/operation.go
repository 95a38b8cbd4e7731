package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trilitech/tzgo/codec"
	"github.com/trilitech/tzgo/rpc"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos"
)

// submit runs a manager operation through the whole injection pipeline, prepending a reveal
// when the key of the account is not revealed yet. It blocks until the operation is included
// and returns its hash with the receipt of the last content, the one the caller built.
func (p *Provider) submit(ctx context.Context, acc tezos.Account, op *codec.Op) (tz.OpHash, rpc.TypedOperation, error) {
	if err := p.init(ctx); err != nil {
		return tz.OpHash{}, nil, err
	}
	lggr := p.lggr.With("source", acc.Address, "kind", op.Contents[len(op.Contents)-1].Kind())

	head, err := p.client.GetTipHeader(ctx)
	if err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("failed to get head block: %w", err)
	}
	op.WithParams(p.client.Params).WithBranch(head.Hash)

	if err = p.client.Complete(ctx, op, acc.PublicKey); err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("failed to complete operation: %w", err)
	}
	if op.Contents[0].Kind() == tz.OpTypeReveal {
		lggr.Infow("Revealing public key", "publicKey", acc.PublicKey)
	}
	lggr.Debugw("Completed operation", "branch", head.Hash, "level", head.Level, "contents", len(op.Contents))

	sim, err := p.client.Simulate(ctx, op, nil)
	if err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("operation rejected by simulation: %w", err)
	}
	if err = checkResults(sim.Op); err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("operation rejected by simulation: %w", err)
	}
	if len(sim.Op.Contents) != len(op.Contents) {
		return tz.OpHash{}, nil, fmt.Errorf("simulation returned %d contents, expected %d",
			len(sim.Op.Contents), len(op.Contents))
	}
	op.WithLimits(sim.MinLimits(), rpc.ExtraSafetyMargin)
	limits := op.Limits()
	lggr.Debugw("Simulated operation", "fee", limits.Fee, "gasLimit", limits.GasLimit, "storageLimit", limits.StorageLimit)

	sig, err := acc.Signer.SignOperation(ctx, acc.Address, op)
	if err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("failed to sign operation: %w", err)
	}
	op.WithSignature(sig)

	hash, err := p.client.Broadcast(ctx, op)
	if err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("failed to inject operation: %w", err)
	}
	if local := op.Hash(); !local.Equal(hash) {
		lggr.Warnw("Node reported a different operation hash", "local", local, "node", hash)
	}
	lggr.Infow("Operation injected", "opHash", hash)

	included, err := p.waitIncluded(ctx, hash, head.Level)
	if err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("failed to confirm operation %s: %w", hash, err)
	}
	if err = checkResults(included); err != nil {
		return tz.OpHash{}, nil, fmt.Errorf("operation %s failed: %w", hash, err)
	}
	if len(included.Contents) == 0 {
		return tz.OpHash{}, nil, fmt.Errorf("operation %s has no contents in its block", hash)
	}

	return hash, included.Contents.N(-1), nil
}

// checkResults fails when any content or internal operation of op was not applied. Contents
// without a status are accepted.
func checkResults(op *rpc.Operation) error {
	var failures []string
	for _, c := range op.Contents {
		results := []rpc.OperationResult{c.Result()}
		for _, internal := range c.Meta().InternalResults {
			results = append(results, internal.Result)
		}
		for _, r := range results {
			if !r.Status.IsValid() || r.Status.IsSuccess() {
				continue
			}
			msg := c.Kind().String() + " " + r.Status.String()
			if len(r.Errors) > 0 {
				ids := make([]string, len(r.Errors))
				for i, e := range r.Errors {
					ids[i] = e.ID
				}
				msg += " (" + strings.Join(ids, ", ") + ")"
			}
			failures = append(failures, msg)
		}
	}
	if len(failures) > 0 {
		return errors.New(strings.Join(failures, "; "))
	}

	return nil
}
