// Package commands provides the chainctl command tree.
//
// There are two ways to build it:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr)
//	root := cmds.Root()
//
// 2. Via NewCommand, injecting dependencies for testing:
//
//	root := commands.NewCommand(commands.Config{
//	    Logger: lggr,
//	    Deps:   &commands.Deps{ProviderFactory: fakeFactory},
//	})
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// Root creates the chainctl root command with every subcommand attached.
func (c *Commands) Root() *cobra.Command {
	return NewCommand(Config{Logger: c.lggr})
}

// Config configures the chainctl command tree.
type Config struct {
	Logger logger.Logger
	// Deps overrides the production dependencies. Optional.
	Deps *Deps
}

func (c *Config) deps() {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Deps == nil {
		c.Deps = &Deps{}
	}
	c.Deps.applyDefaults(c.Logger)
}

const defaultProfilesPath = "profiles.json"

var (
	rootLong = text.LongDesc(`
		Deploys and invokes smart contracts on Ethereum and Tezos through named profiles.

		A profile names a blockchain and the URL of one of its nodes. Profiles are read from a
		JSON, YAML or TOML file. Private keys are read from the secrets file and the environment
		(CHAINCTL_ETHEREUM_PRIVATE_KEY, CHAINCTL_TEZOS_PRIVATE_KEY).
	`)

	rootExample = text.Examples(`
		# List the configured profiles
		chainctl profiles --profiles profiles.yaml

		# Read a balance
		chainctl balance ghostnet tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb
	`)
)

// NewCommand creates the chainctl root command.
func NewCommand(cfg Config) *cobra.Command {
	cfg.deps()

	r := &runner{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "chainctl",
		Short:         "Multi-chain contract provider",
		Long:          rootLong,
		Example:       rootExample,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&r.profilesPath, "profiles", defaultProfilesPath, "Profiles file (.json, .yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&r.secretsPath, "secrets", "", "Secrets file holding the private keys (optional)")

	cmd.AddCommand(
		newProfilesCmd(r),
		newBalanceCmd(r),
		newDeployCmd(r),
		newSendCmd(r),
		newCallCmd(r),
		newInfoCmd(r),
	)

	return cmd
}
