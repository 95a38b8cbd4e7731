package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/compiler"
	"github.com/smartcontractkit/chainlink-multichain-provider/config"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

const (
	testTezosAddr = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"
	testKT1       = "KT1HRUtrVUeoqYqxbQMS5YXs2AqKNz1bqVaZ"
	testEthKey    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testTezosKey  = "edsk3QoqBuvdamxouPhin7swCvkQNgq4jP5KZPbwWNnwdZpSpJiEbq"
)

// fakeProvider records the inputs it receives and answers with canned values.
type fakeProvider struct {
	blockchain chain.Blockchain
	err        error

	balanceAddr string
	deployIn    chain.DeployInput
	sendIn      chain.SendInput
	callIn      chain.CallInput
	key         string
}

func (p *fakeProvider) Blockchain() chain.Blockchain { return p.blockchain }

func (p *fakeProvider) GetBalance(_ context.Context, address string) (chain.Balance, error) {
	p.balanceAddr = address

	return chain.Balance{Balance: "2000000000000", Unit: chain.UnitMutez}, p.err
}

func (p *fakeProvider) Deploy(_ context.Context, in chain.DeployInput, key string) (chain.DeployReceipt, error) {
	p.deployIn, p.key = in, key

	return chain.DeployReceipt{Address: testKT1, TxHash: "ootSK7", GasUsed: "17"}, p.err
}

func (p *fakeProvider) Send(_ context.Context, in chain.SendInput, key string) (chain.SendReceipt, error) {
	p.sendIn, p.key = in, key

	return chain.SendReceipt{TxHash: "onxan", GasUsed: "10"}, p.err
}

func (p *fakeProvider) Call(_ context.Context, in chain.CallInput) (string, error) {
	p.callIn = in

	return "42", p.err
}

type fakeCompiler struct {
	artifacts []compiler.Artifact
}

func (c fakeCompiler) Compile(context.Context, string) ([]compiler.Artifact, error) {
	return c.artifacts, nil
}

func testProfiles() *config.Profiles {
	return config.NewProfiles(map[string]chain.Profile{
		"ghostnet": {Blockchain: chain.BlockchainTezos, URL: "https://ghostnet.example"},
		"sepolia":  {Blockchain: chain.BlockchainEthereum, URL: "https://sepolia.example"},
	})
}

// run executes the command tree with a fake provider for the given blockchain and returns the
// captured output.
func run(t *testing.T, p *fakeProvider, deps *Deps, args ...string) (string, error) {
	t.Helper()

	if deps == nil {
		deps = &Deps{}
	}
	if deps.ProfilesLoader == nil {
		deps.ProfilesLoader = func(string) (*config.Profiles, error) { return testProfiles(), nil }
	}
	if deps.SecretsLoader == nil {
		deps.SecretsLoader = func(string) (*config.Secrets, error) {
			s := &config.Secrets{}
			s.Ethereum.PrivateKey = testEthKey
			s.Tezos.PrivateKey = testTezosKey

			return s, nil
		}
	}
	if deps.ProviderFactory == nil {
		deps.ProviderFactory = func(profile chain.Profile, _ logger.Logger) (chain.Provider, error) {
			p.blockchain = profile.Blockchain

			return p, nil
		}
	}
	if deps.ReadFile == nil {
		deps.ReadFile = func(path string) ([]byte, error) {
			if path == "missing.sol" {
				return nil, os.ErrNotExist
			}

			return []byte("source of " + path), nil
		}
	}

	cmd := NewCommand(Config{Logger: logger.Test(t), Deps: deps})

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func Test_NewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd := NewCommand(Config{Deps: &Deps{Compiler: fakeCompiler{}}})

	assert.Equal(t, "chainctl", cmd.Use)

	profiles := cmd.PersistentFlags().Lookup("profiles")
	require.NotNil(t, profiles)
	assert.Equal(t, defaultProfilesPath, profiles.DefValue)
	require.NotNil(t, cmd.PersistentFlags().Lookup("secrets"))

	uses := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		uses = append(uses, strings.Fields(sub.Use)[0])
	}
	assert.ElementsMatch(t, []string{"profiles", "balance", "deploy", "send", "call", "info"}, uses)
}

func Test_Commands_Root(t *testing.T) {
	t.Parallel()

	root := New(logger.Nop()).Root()

	assert.Equal(t, "chainctl", root.Use)
	assert.Len(t, root.Commands(), 6)
}

func Test_Profiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "all",
			args: []string{"profiles"},
			want: "2 profiles loaded.\n\n" +
				"Name: ghostnet\nBlockchain: Tezos\nNode URL: https://ghostnet.example\n\n" +
				"Name: sepolia\nBlockchain: Ethereum\nNode URL: https://sepolia.example\n",
		},
		{
			name: "single",
			args: []string{"profiles", "sepolia"},
			want: "Name: sepolia\nBlockchain: Ethereum\nNode URL: https://sepolia.example\n",
		},
		{
			name:    "unknown",
			args:    []string{"profiles", "mainnet"},
			wantErr: "profile not found 'mainnet'",
		},
		{
			name:    "too many args",
			args:    []string{"profiles", "a", "b"},
			wantErr: "accepts at most 1 arg(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, &fakeProvider{}, nil, tt.args...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func Test_Profiles_PathFlag(t *testing.T) {
	t.Parallel()

	var gotPath string
	deps := &Deps{
		ProfilesLoader: func(path string) (*config.Profiles, error) {
			gotPath = path

			return nil, errors.New("boom")
		},
	}

	_, err := run(t, &fakeProvider{}, deps, "profiles", "--profiles", "nets.yaml")

	require.EqualError(t, err, "boom")
	assert.Equal(t, "nets.yaml", gotPath)
}

func Test_UnknownProfile_SkipsProviderFactory(t *testing.T) {
	t.Parallel()

	built := 0
	deps := &Deps{
		ProviderFactory: func(chain.Profile, logger.Logger) (chain.Provider, error) {
			built++
			return &fakeProvider{}, nil
		},
	}

	_, err := run(t, &fakeProvider{}, deps, "balance", "mainnet", testTezosAddr)

	require.EqualError(t, err, "profile not found 'mainnet' in profiles.json")
	assert.Zero(t, built)
}

func Test_Balance(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	out, err := run(t, p, nil, "balance", "ghostnet", testTezosAddr)
	require.NoError(t, err)

	var got chain.Balance
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, chain.Balance{Balance: "2000000000000", Unit: chain.UnitMutez}, got)
	assert.Equal(t, testTezosAddr, p.balanceAddr)
	assert.Equal(t, chain.BlockchainTezos, p.blockchain)
}

func Test_Deploy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantKey    string
		wantSource chain.ContractSource
		wantParams []any
	}{
		{
			name:       "ethereum with constructor arguments",
			args:       []string{"deploy", "sepolia", "Age.sol", "--contract", "AgeContract", "--params", `[30, "0x01"]`},
			wantKey:    testEthKey,
			wantSource: chain.ContractSource{Code: "source of Age.sol", Contract: "AgeContract"},
			wantParams: []any{json.Number("30"), "0x01"},
		},
		{
			name:       "tezos without parameters",
			args:       []string{"deploy", "ghostnet", "name.tz"},
			wantKey:    testTezosKey,
			wantSource: chain.ContractSource{Code: "source of name.tz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &fakeProvider{}
			out, err := run(t, p, nil, tt.args...)
			require.NoError(t, err)

			var got chain.DeployReceipt
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, chain.DeployReceipt{Address: testKT1, TxHash: "ootSK7", GasUsed: "17"}, got)
			assert.Equal(t, tt.wantKey, p.key)
			assert.Equal(t, tt.wantSource, p.deployIn.ContractSource)
			assert.Equal(t, tt.wantParams, p.deployIn.Parameters)
		})
	}
}

func Test_Deploy_Errors(t *testing.T) {
	t.Parallel()

	providerErr := errors.New("node unreachable")

	tests := []struct {
		name     string
		args     []string
		deps     *Deps
		provider *fakeProvider
		wantErr  string
		wantIs   error
	}{
		{
			name:    "invalid params",
			args:    []string{"deploy", "sepolia", "Age.sol", "--params", `{"a":1}`},
			wantIs:  chain.ErrInvalidArgument,
			wantErr: "--params must be a JSON array",
		},
		{
			name:    "trailing params",
			args:    []string{"deploy", "sepolia", "Age.sol", "--params", `[1] [2]`},
			wantIs:  chain.ErrInvalidArgument,
			wantErr: "single JSON array",
		},
		{
			name:    "missing source",
			args:    []string{"deploy", "sepolia", "missing.sol"},
			wantIs:  os.ErrNotExist,
			wantErr: "failed to read contract source",
		},
		{
			name:    "unknown profile",
			args:    []string{"deploy", "mainnet", "Age.sol"},
			wantErr: "profile not found 'mainnet' in profiles.json",
		},
		{
			name: "empty profiles file",
			args: []string{"deploy", "ghostnet", "name.tz", "--profiles", "empty.toml"},
			deps: &Deps{
				ProfilesLoader: func(string) (*config.Profiles, error) { return config.NewProfiles(nil), nil },
			},
			wantErr: "no profiles defined in empty.toml",
		},
		{
			name: "missing key",
			args: []string{"deploy", "ghostnet", "name.tz"},
			deps: &Deps{
				SecretsLoader: func(string) (*config.Secrets, error) { return &config.Secrets{}, nil },
			},
			wantErr: "no private key configured for Tezos",
		},
		{
			name:     "provider failure",
			args:     []string{"deploy", "ghostnet", "name.tz"},
			provider: &fakeProvider{err: providerErr},
			wantIs:   providerErr,
			wantErr:  "node unreachable",
		},
		{
			name:    "wrong arg count",
			args:    []string{"deploy", "ghostnet"},
			wantErr: "accepts 2 arg(s), received 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := tt.provider
			if p == nil {
				p = &fakeProvider{}
			}

			_, err := run(t, p, tt.deps, tt.args...)
			require.ErrorContains(t, err, tt.wantErr)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func Test_Send(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	out, err := run(t, p, nil,
		"send", "sepolia", "0x5FbDB2315678afecb367f032d93F642f64180aa3", "setAge",
		"--file", "Age.sol", "--contract", "AgeContract", "--params", "[60]",
		"--secrets", "secrets.yaml",
	)
	require.NoError(t, err)

	var got chain.SendReceipt
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, chain.SendReceipt{TxHash: "onxan", GasUsed: "10"}, got)

	assert.Equal(t, chain.SendInput{
		ContractSource: chain.ContractSource{Code: "source of Age.sol", Contract: "AgeContract"},
		Address:        "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Entrypoint:     "setAge",
		Parameters:     []any{json.Number("60")},
	}, p.sendIn)
	assert.Equal(t, testEthKey, p.key)
}

func Test_Send_SecretsPath(t *testing.T) {
	t.Parallel()

	var gotPath string
	deps := &Deps{
		SecretsLoader: func(path string) (*config.Secrets, error) {
			gotPath = path

			return nil, errors.New("bad secrets")
		},
	}

	_, err := run(t, &fakeProvider{}, deps,
		"send", "ghostnet", testKT1, "default", "--secrets", "secrets.yaml",
	)

	require.EqualError(t, err, "bad secrets")
	assert.Equal(t, "secrets.yaml", gotPath)
}

func Test_Call(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want chain.CallInput
	}{
		{
			name: "tezos view without source",
			args: []string{"call", "ghostnet", testKT1, "getName"},
			want: chain.CallInput{Address: testKT1, Entrypoint: "getName"},
		},
		{
			name: "ethereum view with source",
			args: []string{"call", "sepolia", "0x5FbDB2315678afecb367f032d93F642f64180aa3", "age", "-f", "Age.sol"},
			want: chain.CallInput{
				ContractSource: chain.ContractSource{Code: "source of Age.sol"},
				Address:        "0x5FbDB2315678afecb367f032d93F642f64180aa3",
				Entrypoint:     "age",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := &Deps{
				SecretsLoader: func(string) (*config.Secrets, error) {
					return nil, errors.New("call must not load secrets")
				},
			}

			p := &fakeProvider{}
			out, err := run(t, p, deps, tt.args...)
			require.NoError(t, err)

			var got CallResult
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, "42", got.Result)
			assert.Equal(t, tt.want, p.callIn)
		})
	}
}

func Test_Call_ProviderFactoryError(t *testing.T) {
	t.Parallel()

	deps := &Deps{
		ProviderFactory: func(chain.Profile, logger.Logger) (chain.Provider, error) {
			return nil, chain.ErrUnrecognizedProfile
		},
	}

	_, err := run(t, &fakeProvider{}, deps, "call", "ghostnet", testKT1, "getName")

	require.ErrorIs(t, err, chain.ErrUnrecognizedProfile)
}

const ageABI = `[
	{"type":"constructor","inputs":[{"name":"age","type":"uint256"}]},
	{"type":"function","name":"setAge","stateMutability":"nonpayable","inputs":[{"name":"age","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"age","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

func Test_Info(t *testing.T) {
	t.Parallel()

	parsed, err := abi.JSON(strings.NewReader(ageABI))
	require.NoError(t, err)

	deps := &Deps{
		Compiler: fakeCompiler{artifacts: []compiler.Artifact{
			{Name: "AgeContract", ABI: parsed},
			{Name: "Other"},
		}},
	}

	out, err := run(t, &fakeProvider{}, deps, "info", "Age.sol", "--contract", "AgeContract")
	require.NoError(t, err)

	var got chain.ContractInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"uint256"}, got.Constructor.Input)
	require.Len(t, got.Functions, 2)
	assert.Equal(t, "age", got.Functions[0].Name)
	assert.Equal(t, []string{"uint256"}, got.Functions[0].Output)
	assert.Equal(t, "setAge", got.Functions[1].Name)
	assert.Equal(t, []chain.Param{{Name: "age", Type: "uint256"}}, got.Functions[1].Input)
	assert.Empty(t, got.Events)

	_, err = run(t, &fakeProvider{}, deps, "info", "Age.sol")
	require.ErrorIs(t, err, chain.ErrAmbiguousContractSelection)
}

func Test_parseParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    []any
		wantErr bool
	}{
		{name: "empty", give: "", want: nil},
		{name: "empty array", give: "[]", want: []any{}},
		{
			name: "mixed",
			give: `[1, "two", true, {"name":"x"}, [3]]`,
			want: []any{json.Number("1"), "two", true, map[string]any{"name": "x"}, []any{json.Number("3")}},
		},
		{
			name: "large integer keeps precision",
			give: `[115792089237316195423570985008687907853269984665640564039457584007913129639935]`,
			want: []any{json.Number("115792089237316195423570985008687907853269984665640564039457584007913129639935")},
		},
		{name: "object", give: `{}`, wantErr: true},
		{name: "malformed", give: `[1,`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseParams(tt.give)
			if tt.wantErr {
				require.ErrorIs(t, err, chain.ErrInvalidArgument)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
