package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/viper"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

// Secrets holds the signing keys used by deploy and send.
//
// WARNING: This data type contains sensitive fields and should not be logged.
type Secrets struct {
	Ethereum KeySecrets `mapstructure:"ethereum" yaml:"ethereum"`
	Tezos    KeySecrets `mapstructure:"tezos" yaml:"tezos"`
}

// KeySecrets holds the raw private key of one chain family.
type KeySecrets struct {
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"` // Secret: hex key on Ethereum, edsk/spsk key on Tezos
}

// envBindings maps secret keys to the environment variables providing them, preferred name
// first.
var envBindings = map[string][]string{
	"ethereum.private_key": {"CHAINCTL_ETHEREUM_PRIVATE_KEY", "ETH_PRIVATE_KEY"},
	"tezos.private_key":    {"CHAINCTL_TEZOS_PRIVATE_KEY", "TEZOS_SECRET_KEY"},
}

// LoadSecrets loads the secrets from the file, when given and present, and from the
// environment. Environment variables override the file.
func LoadSecrets(filePath string) (*Secrets, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read secrets file: %w", err)
			}
		}
	}

	s := &Secrets{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode secrets: %w", err)
	}

	return s, nil
}

// PrivateKey returns the signing key configured for the blockchain.
func (s *Secrets) PrivateKey(b chain.Blockchain) (string, error) {
	var key string
	switch b {
	case chain.BlockchainEthereum:
		key = s.Ethereum.PrivateKey
	case chain.BlockchainTezos:
		key = s.Tezos.PrivateKey
	default:
		return "", fmt.Errorf("%w: %s", chain.ErrUnrecognizedProfile, b)
	}

	if key == "" {
		envs := envBindings[string(b)+".private_key"]
		return "", fmt.Errorf("no private key configured for %s, set %s", b, envs[0])
	}

	return key, nil
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(slices.Insert(slices.Clone(envs), 0, key)...); err != nil {
			return err
		}
	}

	return nil
}
