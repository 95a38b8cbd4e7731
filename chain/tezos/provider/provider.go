// Package provider implements chain.Provider for Tezos on top of the tzgo node client.
package provider

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/trilitech/tzgo/codec"
	"github.com/trilitech/tzgo/micheline"
	"github.com/trilitech/tzgo/rpc"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/michelson"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos/provider/rpcclient"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultIPFSGateway  = "https://ipfs.io/ipfs/"
)

var _ chain.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*options)

type options struct {
	lggr         logger.Logger
	pollInterval time.Duration
	ipfsGateway  string
	rpcOpts      []rpcclient.Option
}

// WithLogger sets the logger of the provider. Defaults to a no-op logger.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithPollInterval sets how often new blocks are fetched while waiting for an operation to be
// included.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithIPFSGateway sets the gateway used to resolve ipfs:// metadata URIs.
func WithIPFSGateway(url string) Option {
	return func(o *options) {
		o.ipfsGateway = url
	}
}

// WithRPCOptions passes options to the underlying node client, such as a rate limit or an http
// client.
func WithRPCOptions(opts ...rpcclient.Option) Option {
	return func(o *options) {
		o.rpcOpts = append(o.rpcOpts, opts...)
	}
}

// Provider implements chain.Provider for Tezos. It owns its node client for its whole lifetime
// and is safe for concurrent use. Deploy and Send sign with the key they are given and keep no
// signer between calls.
type Provider struct {
	client       *rpcclient.Client
	lggr         logger.Logger
	pollInterval time.Duration
	ipfsGateway  string

	initMu sync.Mutex
	inited bool
}

// New creates a Provider for the node at url. No request is made until the first call.
func New(url string, opts ...Option) (*Provider, error) {
	o := &options{
		pollInterval: defaultPollInterval,
		ipfsGateway:  defaultIPFSGateway,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.lggr == nil {
		o.lggr = logger.Nop()
	}
	lggr := o.lggr.Named("tezos-provider")

	rpcOpts := append([]rpcclient.Option{rpcclient.WithLogger(lggr.Named("rpc"))}, o.rpcOpts...)
	client, err := rpcclient.New(url, rpcOpts...)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client:       client,
		lggr:         lggr,
		pollInterval: o.pollInterval,
		ipfsGateway:  o.ipfsGateway,
	}, nil
}

// Blockchain returns chain.BlockchainTezos.
func (*Provider) Blockchain() chain.Blockchain {
	return chain.BlockchainTezos
}

// init resolves the chain id and protocol parameters of the node once. Operations are encoded
// for these parameters.
func (p *Provider) init(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()

	if p.inited {
		return nil
	}
	if err := p.client.Init(ctx); err != nil {
		return fmt.Errorf("failed to resolve chain config: %w", err)
	}
	p.lggr.Infow("Resolved chain config",
		"chainID", p.client.ChainId, "protocol", p.client.Params.Protocol, "network", p.client.Params.Network,
	)
	p.inited = true

	return nil
}

// GetBalance returns the balance of the address in µꜩ.
func (p *Provider) GetBalance(ctx context.Context, address string) (chain.Balance, error) {
	addr, _, err := tezos.ParseAddress(address)
	if err != nil {
		return chain.Balance{}, err
	}

	balance, err := p.client.GetContractBalance(ctx, addr, rpc.Head)
	if err != nil {
		return chain.Balance{}, fmt.Errorf("failed to get balance of %s: %w", address, err)
	}

	return chain.Balance{Balance: balance.String(), Unit: chain.UnitMutez}, nil
}

// Deploy originates the Michelson script of in.Code. The first parameter is the initial storage,
// encoded against the storage type of the script. Without parameters the storage is the empty
// value of its type, e.g. Unit.
func (p *Provider) Deploy(ctx context.Context, in chain.DeployInput, privateKey string) (chain.DeployReceipt, error) {
	script, err := michelson.ParseScript(in.Code)
	if err != nil {
		return chain.DeployReceipt{}, err
	}
	storageType, err := michelson.Section(script, micheline.K_STORAGE)
	if err != nil {
		return chain.DeployReceipt{}, fmt.Errorf("%w: %w", chain.ErrScriptParse, err)
	}

	var storage micheline.Prim
	if len(in.Parameters) == 0 {
		storage, err = michelson.Zero(storageType)
	} else {
		storage, err = michelson.Encode(storageType, in.Parameters[0])
	}
	if err != nil {
		return chain.DeployReceipt{}, fmt.Errorf("failed to encode initial storage: %w", err)
	}

	acc, err := tezos.NewAccount(privateKey)
	if err != nil {
		return chain.DeployReceipt{}, fmt.Errorf("invalid private key: %w", err)
	}

	op := codec.NewOp().
		WithSource(acc.Address).
		WithOrigination(micheline.Script{Code: script, Storage: storage})
	hash, result, err := p.submit(ctx, acc, op)
	if err != nil {
		return chain.DeployReceipt{}, err
	}
	res := result.Result()
	if len(res.OriginatedContracts) == 0 {
		return chain.DeployReceipt{}, fmt.Errorf("%w: operation %s", chain.ErrMissingContractAddress, hash)
	}
	address := res.OriginatedContracts[0].String()
	p.lggr.Infow("Contract originated", "address", address, "opHash", hash)

	return chain.DeployReceipt{
		Address: address,
		TxHash:  hash.String(),
		GasUsed: gasUsed(result),
	}, nil
}

// Send calls an entrypoint of the contract at in.Address. A single map parameter is encoded
// as a record by field annotations; otherwise the parameters fill the entrypoint's pair in
// order.
func (p *Provider) Send(ctx context.Context, in chain.SendInput, privateKey string) (chain.SendReceipt, error) {
	addr, _, err := tezos.ParseAddress(in.Address)
	if err != nil {
		return chain.SendReceipt{}, err
	}
	entrypoint := in.Entrypoint
	if entrypoint == "" {
		entrypoint = "default"
	}

	typ, err := p.entrypointType(ctx, addr, entrypoint)
	if err != nil {
		return chain.SendReceipt{}, err
	}
	value, err := michelson.EncodeParameters(typ, in.Parameters)
	if err != nil {
		return chain.SendReceipt{}, fmt.Errorf("failed to encode parameters of %s: %w", entrypoint, err)
	}

	acc, err := tezos.NewAccount(privateKey)
	if err != nil {
		return chain.SendReceipt{}, fmt.Errorf("invalid private key: %w", err)
	}

	op := codec.NewOp().
		WithSource(acc.Address).
		WithCall(addr, micheline.Parameters{Entrypoint: entrypoint, Value: value})
	hash, result, err := p.submit(ctx, acc, op)
	if err != nil {
		return chain.SendReceipt{}, err
	}

	return chain.SendReceipt{TxHash: hash.String(), GasUsed: gasUsed(result)}, nil
}

// entrypointType returns the parameter type of an entrypoint of a deployed contract. The node
// only lists annotated entrypoints, so "default" falls back to the root parameter type.
func (p *Provider) entrypointType(ctx context.Context, addr tz.Address, entrypoint string) (micheline.Prim, error) {
	eps, err := p.client.GetContractEntrypoints(ctx, addr)
	if err != nil {
		return micheline.Prim{}, fmt.Errorf("failed to get entrypoints of %s: %w", addr, err)
	}
	if typ, ok := eps[entrypoint]; ok {
		return unwrapParameter(typ.Prim), nil
	}

	if entrypoint == "default" {
		script, err := p.client.GetContractScript(ctx, addr)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("failed to get script of %s: %w", addr, err)
		}
		param, err := michelson.Section(script.Code, micheline.K_PARAMETER)
		if err != nil {
			return micheline.Prim{}, err
		}
		if typ, ok := michelson.Entrypoints(param)[entrypoint]; ok {
			return typ, nil
		}
	}

	return micheline.Prim{}, fmt.Errorf("%w: %q on %s", chain.ErrEntrypointNotFound, entrypoint, addr)
}

// unwrapParameter strips a "parameter" section wrapper some nodes return around entrypoint
// types.
func unwrapParameter(typ micheline.Prim) micheline.Prim {
	isApp := typ.Type == micheline.PrimUnary || typ.Type == micheline.PrimUnaryAnno
	if isApp && typ.OpCode == micheline.K_PARAMETER && len(typ.Args) == 1 {
		return typ.Args[0]
	}

	return typ
}

// gasUsed is the gas consumed by the submitted content, internal operations included.
func gasUsed(result rpc.TypedOperation) string {
	return strconv.FormatInt(result.Costs().GasUsed, 10)
}
