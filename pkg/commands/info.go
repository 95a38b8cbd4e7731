package commands

import (
	"github.com/spf13/cobra"

	evmprov "github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/provider"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
)

var (
	infoLong = text.LongDesc(`
		Compiles a Solidity source with solc and describes the selected contract: constructor
		input types, functions and events. No node is contacted.
	`)

	infoExample = text.Examples(`
		chainctl info contracts/Age.sol --contract AgeContract
	`)
)

func newInfoCmd(r *runner) *cobra.Command {
	var contract string

	cmd := &cobra.Command{
		Use:     "info <file>",
		Short:   "Describe a Solidity contract",
		Long:    infoLong,
		Example: infoExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := r.source(args[0], contract)
			if err != nil {
				return err
			}

			info, err := evmprov.GetInfo(cmd.Context(), r.cfg.Deps.Compiler, src)
			if err != nil {
				return err
			}

			return printJSON(cmd, info)
		},
	}

	cmd.Flags().StringVarP(&contract, "contract", "c", "", "Contract to select when the source defines several")

	return cmd
}
