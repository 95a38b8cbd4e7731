package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
)

var balanceExample = text.Examples(`
	chainctl balance sepolia 0x8ba1f109551bD432803012645Ac136ddd64DBA72
	chainctl balance ghostnet tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb
`)

func newBalanceCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "balance <profile> <address>",
		Short:   "Print the native balance of an address",
		Example: balanceExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.provider(args[0])
			if err != nil {
				return err
			}

			balance, err := p.GetBalance(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			return printJSON(cmd, balance)
		},
	}
}
