package provider

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/compiler"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

const (
	// defaultPollInterval is the same value bind.WaitMined has hardcoded in go-ethereum.
	defaultPollInterval = 1 * time.Second
	// defaultCompileCacheTTL is how long compiled artifacts are memoized by source.
	defaultCompileCacheTTL = 10 * time.Minute
)

var (
	_ chain.Provider     = (*Provider)(nil)
	_ chain.Introspector = (*Provider)(nil)
)

// Option configures a Provider.
type Option func(*options)

type options struct {
	lggr            logger.Logger
	compiler        compiler.Compiler
	pollInterval    time.Duration
	compileCacheTTL time.Duration
}

// WithLogger sets the logger of the provider. Defaults to a no-op logger.
func WithLogger(lggr logger.Logger) Option {
	return func(o *options) {
		o.lggr = lggr
	}
}

// WithCompiler sets the Solidity compiler. Defaults to the solc binary found in PATH.
func WithCompiler(c compiler.Compiler) Option {
	return func(o *options) {
		o.compiler = c
	}
}

// WithPollInterval sets how often the receipt of a submitted transaction is polled.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithCompileCacheTTL sets how long compiled artifacts are memoized. Zero disables memoization.
func WithCompileCacheTTL(d time.Duration) Option {
	return func(o *options) {
		o.compileCacheTTL = d
	}
}

// Provider implements chain.Provider for Ethereum. It owns its client for its whole lifetime.
//
// Signing is stateless: the private key is passed on every call, so a Provider is safe for
// concurrent use.
type Provider struct {
	client       evm.OnchainClient
	compiler     compiler.Compiler
	lggr         logger.Logger
	pollInterval time.Duration
}

// New creates a Provider connected to the node at url.
func New(url string, opts ...Option) (*Provider, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum node %s: %w", url, err)
	}

	return NewWithClient(client, opts...), nil
}

// NewWithClient creates a Provider which uses the given client.
func NewWithClient(client evm.OnchainClient, opts ...Option) *Provider {
	o := &options{
		pollInterval:    defaultPollInterval,
		compileCacheTTL: defaultCompileCacheTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.lggr == nil {
		o.lggr = logger.Nop()
	}
	lggr := o.lggr.Named("evm-provider")

	c := o.compiler
	if c == nil {
		c = compiler.NewSolc(compiler.WithSolcLogger(lggr.Named("solc")))
	}
	if o.compileCacheTTL > 0 {
		c = compiler.Cached(c, o.compileCacheTTL)
	}

	return &Provider{
		client:       client,
		compiler:     c,
		lggr:         lggr,
		pollInterval: o.pollInterval,
	}
}

// Blockchain returns chain.BlockchainEthereum.
func (*Provider) Blockchain() chain.Blockchain {
	return chain.BlockchainEthereum
}

// GetBalance returns the balance of the address in wei.
func (p *Provider) GetBalance(ctx context.Context, address string) (chain.Balance, error) {
	addr, err := evm.ParseAddress(address)
	if err != nil {
		return chain.Balance{}, err
	}

	balance, err := p.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return chain.Balance{}, fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
	}

	return chain.Balance{Balance: balance.String(), Unit: chain.UnitWei}, nil
}

// GetInfo compiles the source and describes the selected contract without using the network.
func (p *Provider) GetInfo(ctx context.Context, src chain.ContractSource) (chain.ContractInfo, error) {
	return GetInfo(ctx, p.compiler, src)
}

// Deploy compiles the source, deploys the selected contract with the ordered constructor
// parameters and waits for the deployment to be included.
func (p *Provider) Deploy(ctx context.Context, in chain.DeployInput, privateKey string) (chain.DeployReceipt, error) {
	artifact, err := compiler.CompileAndSelect(ctx, p.compiler, in.ContractSource)
	if err != nil {
		return chain.DeployReceipt{}, err
	}

	args, err := coerceArguments(artifact.ABI.Constructor.Inputs, in.Parameters)
	if err != nil {
		return chain.DeployReceipt{}, fmt.Errorf("constructor of %s: %w", artifact.Name, err)
	}

	packed, err := artifact.ABI.Pack("", args...)
	if err != nil {
		return chain.DeployReceipt{}, fmt.Errorf("%w: failed to pack constructor arguments: %w", chain.ErrInvalidArgument, err)
	}

	data := append(bytes.Clone(artifact.Bytecode), packed...)

	tx, receipt, err := p.transact(ctx, privateKey, nil, data)
	if err != nil {
		return chain.DeployReceipt{}, err
	}

	if receipt.ContractAddress == (common.Address{}) {
		return chain.DeployReceipt{}, fmt.Errorf("%w: receipt of tx %s", chain.ErrMissingContractAddress, tx.Hash().Hex())
	}

	p.lggr.Infow("Contract deployed",
		"contract", artifact.Name,
		"address", receipt.ContractAddress.Hex(),
		"txHash", tx.Hash().Hex(),
	)

	return chain.DeployReceipt{
		Address: receipt.ContractAddress.Hex(),
		TxHash:  tx.Hash().Hex(),
		GasUsed: strconv.FormatUint(receipt.GasUsed, 10),
	}, nil
}

// Send invokes a state changing function of a deployed contract and waits for the transaction
// to be included.
func (p *Provider) Send(ctx context.Context, in chain.SendInput, privateKey string) (chain.SendReceipt, error) {
	to, data, err := p.encodeCall(ctx, in)
	if err != nil {
		return chain.SendReceipt{}, err
	}

	tx, receipt, err := p.transact(ctx, privateKey, &to, data)
	if err != nil {
		return chain.SendReceipt{}, err
	}

	return chain.SendReceipt{
		TxHash:  tx.Hash().Hex(),
		GasUsed: strconv.FormatUint(receipt.GasUsed, 10),
	}, nil
}

// Call executes a function of a deployed contract against the latest state without submitting
// a transaction and returns the raw ABI encoded result as 0x prefixed hex.
func (p *Provider) Call(ctx context.Context, in chain.CallInput) (string, error) {
	to, data, err := p.encodeCall(ctx, in)
	if err != nil {
		return "", err
	}

	out, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call %s on %s: %w", in.Entrypoint, to.Hex(), err)
	}

	return hexutil.Encode(out), nil
}

// encodeCall compiles the source, resolves the entrypoint and packs the call data.
func (p *Provider) encodeCall(ctx context.Context, in chain.SendInput) (common.Address, []byte, error) {
	to, err := evm.ParseAddress(in.Address)
	if err != nil {
		return common.Address{}, nil, err
	}

	artifact, err := compiler.CompileAndSelect(ctx, p.compiler, in.ContractSource)
	if err != nil {
		return common.Address{}, nil, err
	}

	method, err := resolveMethod(artifact.ABI, in.Entrypoint, len(in.Parameters))
	if err != nil {
		return common.Address{}, nil, err
	}

	args, err := coerceArguments(method.Inputs, in.Parameters)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%s: %w", method.Sig, err)
	}

	data, err := artifact.ABI.Pack(method.Name, args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: failed to pack %s: %w", chain.ErrInvalidArgument, method.Sig, err)
	}

	return to, data, nil
}

// transact signs a legacy transaction locally, submits it and waits for its receipt.
//
// The locally computed hash must match the hash of the receipt the network returns.
func (p *Provider) transact(
	ctx context.Context, privateKey string, to *common.Address, data []byte,
) (*types.Transaction, *types.Receipt, error) {
	chainID, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	networkID, err := p.client.NetworkID(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get network id: %w", err)
	}

	opts, err := TransactorFromRaw(privateKey).Generate(chainID)
	if err != nil {
		return nil, nil, err
	}

	gas, err := p.client.EstimateGas(ctx, ethereum.CallMsg{From: opts.From, To: to, Data: data})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	nonce, err := p.client.PendingNonceAt(ctx, opts.From)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get nonce of %s: %w", opts.From.Hex(), err)
	}

	signed, err := opts.Signer(opts.From, types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       to,
		Value:    new(big.Int),
		Data:     data,
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	lggr := p.lggr.With(
		"txHash", signed.Hash().Hex(),
		"chain", evm.ChainName(chainID),
		"networkID", networkID.String(),
	)
	lggr.Debugw("Submitting transaction", "from", opts.From.Hex(), "nonce", nonce, "gas", gas, "gasPrice", gasPrice)

	if err = p.client.SendTransaction(ctx, signed); err != nil {
		return nil, nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := WaitMinedWithInterval(ctx, p.pollInterval, p.client, signed.Hash())
	if err != nil {
		return nil, nil, fmt.Errorf("tx %s failed to confirm: %w", signed.Hash().Hex(), err)
	}

	if receipt.TxHash != signed.Hash() {
		return nil, nil, fmt.Errorf("%w: signed %s, network reported %s",
			chain.ErrTransactionHashMismatch, signed.Hash().Hex(), receipt.TxHash.Hex(),
		)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason, rerr := getErrorReasonFromTx(ctx, p.client, opts.From, signed, receipt)
		if rerr == nil && reason != "" {
			return nil, nil, fmt.Errorf("tx %s reverted: %s", signed.Hash().Hex(), reason)
		}

		return nil, nil, fmt.Errorf("tx %s reverted, could not decode error reason", signed.Hash().Hex())
	}

	lggr.Infow("Transaction included", "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)

	return signed, receipt, nil
}

// resolveMethod finds the ABI method an entrypoint refers to. The entrypoint may be a function
// name or a full signature such as "setAge(uint256)"; overloads are told apart by their number
// of arguments.
func resolveMethod(parsed abi.ABI, entrypoint string, nargs int) (abi.Method, error) {
	var candidates []abi.Method
	for _, m := range parsed.Methods {
		if m.Sig == entrypoint {
			return m, nil
		}
		if m.RawName == entrypoint {
			candidates = append(candidates, m)
		}
	}

	switch len(candidates) {
	case 0:
		return abi.Method{}, fmt.Errorf("%w: %q", chain.ErrEntrypointNotFound, entrypoint)
	case 1:
		return candidates[0], nil
	}

	var match []abi.Method
	for _, m := range candidates {
		if len(m.Inputs) == nargs {
			match = append(match, m)
		}
	}
	if len(match) != 1 {
		return abi.Method{}, fmt.Errorf("%w: %q is overloaded, use the full signature",
			chain.ErrEntrypointNotFound, entrypoint,
		)
	}

	return match[0], nil
}
