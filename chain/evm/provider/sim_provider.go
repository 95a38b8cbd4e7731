package provider

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

var (
	// simChainID is the chain ID for the simulated EVM chain. This is always set to 1337 across
	// all instances of simulated chains.
	simChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is the amount each simulated account is funded with: 1,000,000 Ether.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

// SimAccount is a prefunded account of a simulated chain.
type SimAccount struct {
	// Address is the account address.
	Address common.Address
	// PrivateKey is the hex encoded private key, as accepted by Deploy and Send.
	PrivateKey string
}

// SimConfig holds the configuration of a simulated chain.
type SimConfig struct {
	// Optional: NumAdditionalAccounts is the number of additional accounts to generate.
	NumAdditionalAccounts uint
	// Optional: BlockTime configures the time between blocks being committed. By default, this is
	// set to 0s, meaning that a block is committed after every submitted transaction.
	BlockTime time.Duration
}

// SimChain is an Ethereum provider backed by go-ethereum's in memory simulated backend.
type SimChain struct {
	*Provider

	// Client is the simulated client the provider uses.
	Client *SimClient
	// Deployer is the prefunded account used to deploy contracts.
	Deployer SimAccount
	// Users are additional prefunded accounts.
	Users []SimAccount
}

// NewSimChain starts a simulated chain and returns a provider connected to it. The backend is
// closed when the test finishes.
//
// Each account is prefunded with 1,000,000 Ether.
func NewSimChain(t *testing.T, config SimConfig, opts ...Option) *SimChain {
	t.Helper()

	deployer := newSimAccount(t)
	genesis := types.GenesisAlloc{
		deployer.Address: {Balance: prefundAmountWei},
	}

	users := make([]SimAccount, 0, config.NumAdditionalAccounts)
	for range config.NumAdditionalAccounts {
		user := newSimAccount(t)
		users = append(users, user)

		genesis[user.Address] = types.Account{Balance: prefundAmountWei}
	}

	backend := simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50000000))
	backend.Commit() // Commit the genesis block
	t.Cleanup(func() {
		_ = backend.Close()
	})

	if config.BlockTime > 0 {
		startAutoMine(t, backend, config.BlockTime)
	}

	client := NewSimClient(t, backend, config.BlockTime == 0)

	opts = append([]Option{WithPollInterval(10 * time.Millisecond)}, opts...)

	return &SimChain{
		Provider: NewWithClient(client, opts...),
		Client:   client,
		Deployer: deployer,
		Users:    users,
	}
}

func newSimAccount(t *testing.T) SimAccount {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err, "failed to generate key")

	return SimAccount{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(key)),
	}
}

// startAutoMine triggers the simulated backend to create a new block at intervals defined by
// `blockTime`. After the test is done, it stops the mining goroutine.
func startAutoMine(t *testing.T, backend *simulated.Backend, blockTime time.Duration) {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	ticker := time.NewTicker(blockTime)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				backend.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()
}
