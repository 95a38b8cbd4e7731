package commands

import (
	"os"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/compiler"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/factory"
	"github.com/smartcontractkit/chainlink-multichain-provider/config"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

// ProviderFactoryFunc builds the provider serving a profile.
type ProviderFactoryFunc func(profile chain.Profile, lggr logger.Logger) (chain.Provider, error)

// ProfilesLoaderFunc loads the profile set from a file.
type ProfilesLoaderFunc func(path string) (*config.Profiles, error)

// SecretsLoaderFunc loads the signing keys. The path may be empty.
type SecretsLoaderFunc func(path string) (*config.Secrets, error)

// ReadFileFunc reads a contract source file.
type ReadFileFunc func(path string) ([]byte, error)

func defaultProviderFactory(profile chain.Profile, lggr logger.Logger) (chain.Provider, error) {
	return factory.FromProfile(profile, factory.WithLogger(lggr))
}

// Deps holds the injectable dependencies of the chainctl commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ProviderFactory builds the provider for the selected profile.
	// Default: factory.FromProfile
	ProviderFactory ProviderFactoryFunc

	// ProfilesLoader loads the profile set.
	// Default: config.LoadProfiles
	ProfilesLoader ProfilesLoaderFunc

	// SecretsLoader loads the private keys used by deploy and send.
	// Default: config.LoadSecrets
	SecretsLoader SecretsLoaderFunc

	// ReadFile reads contract sources.
	// Default: os.ReadFile
	ReadFile ReadFileFunc

	// Compiler compiles Solidity sources for the info command.
	// Default: solc found on PATH
	Compiler compiler.Compiler
}

func (d *Deps) applyDefaults(lggr logger.Logger) {
	if d.ProviderFactory == nil {
		d.ProviderFactory = defaultProviderFactory
	}
	if d.ProfilesLoader == nil {
		d.ProfilesLoader = config.LoadProfiles
	}
	if d.SecretsLoader == nil {
		d.SecretsLoader = config.LoadSecrets
	}
	if d.ReadFile == nil {
		d.ReadFile = os.ReadFile
	}
	if d.Compiler == nil {
		d.Compiler = compiler.NewSolc(compiler.WithSolcLogger(lggr))
	}
}
