package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
)

var (
	deployLong = text.LongDesc(`
		Deploys a contract and waits for the deployment to be included in a block.

		On Ethereum the source is Solidity and the parameters are the constructor arguments.
		On Tezos the source is a Michelson script and the first parameter is the initial storage.
	`)

	deployExample = text.Examples(`
		# Deploy one of the contracts of a Solidity file
		chainctl deploy sepolia contracts/Age.sol --contract AgeContract --params '[30]'

		# Originate a Michelson contract with its initial storage
		chainctl deploy ghostnet name.tz --params '["alice"]'
	`)
)

func newDeployCmd(r *runner) *cobra.Command {
	var flags contractFlags

	cmd := &cobra.Command{
		Use:     "deploy <profile> <file>",
		Short:   "Deploy a contract",
		Long:    deployLong,
		Example: deployExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(flags.params)
			if err != nil {
				return err
			}
			src, err := r.source(args[1], flags.contract)
			if err != nil {
				return err
			}
			p, err := r.provider(args[0])
			if err != nil {
				return err
			}
			key, err := r.privateKey(p.Blockchain())
			if err != nil {
				return err
			}

			receipt, err := p.Deploy(cmd.Context(), chain.DeployInput{ContractSource: src, Parameters: params}, key)
			if err != nil {
				return err
			}

			return printJSON(cmd, receipt)
		},
	}

	flags.register(cmd, false)

	return cmd
}
