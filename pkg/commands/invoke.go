package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
)

var (
	sendLong = text.LongDesc(`
		Invokes a state changing entrypoint of a deployed contract and waits for inclusion.

		Ethereum needs the contract source (--file) to encode the call.
	`)

	sendExample = text.Examples(`
		chainctl send sepolia 0x5FbDB2315678afecb367f032d93F642f64180aa3 setAge --file Age.sol --params '[60]'
		chainctl send ghostnet KT1HRUtrVUeoqYqxbQMS5YXs2AqKNz1bqVaZ default --params '["bob"]'
	`)

	callLong = text.LongDesc(`
		Performs a read-only invocation and prints its result.

		On Ethereum the entrypoint is a view function of the contract given by --file. On Tezos
		it names an off-chain view from the contract metadata or an on-chain view.
	`)

	callExample = text.Examples(`
		chainctl call sepolia 0x5FbDB2315678afecb367f032d93F642f64180aa3 age --file Age.sol
		chainctl call ghostnet KT1HRUtrVUeoqYqxbQMS5YXs2AqKNz1bqVaZ getName
	`)
)

// CallResult is the printed outcome of the call command.
type CallResult struct {
	Result string `json:"result"`
}

func (r *runner) sendInput(flags contractFlags, args []string) (chain.SendInput, error) {
	params, err := parseParams(flags.params)
	if err != nil {
		return chain.SendInput{}, err
	}

	in := chain.SendInput{
		Address:    args[1],
		Entrypoint: args[2],
		Parameters: params,
	}
	if flags.file != "" {
		in.ContractSource, err = r.source(flags.file, flags.contract)
		if err != nil {
			return chain.SendInput{}, err
		}
	}

	return in, nil
}

func newSendCmd(r *runner) *cobra.Command {
	var flags contractFlags

	cmd := &cobra.Command{
		Use:     "send <profile> <address> <entrypoint>",
		Short:   "Invoke a state changing entrypoint",
		Long:    sendLong,
		Example: sendExample,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := r.sendInput(flags, args)
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

			receipt, err := p.Send(cmd.Context(), in, key)
			if err != nil {
				return err
			}

			return printJSON(cmd, receipt)
		},
	}

	flags.register(cmd, true)

	return cmd
}

func newCallCmd(r *runner) *cobra.Command {
	var flags contractFlags

	cmd := &cobra.Command{
		Use:     "call <profile> <address> <entrypoint>",
		Short:   "Perform a read-only invocation",
		Long:    callLong,
		Example: callExample,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := r.sendInput(flags, args)
			if err != nil {
				return err
			}
			p, err := r.provider(args[0])
			if err != nil {
				return err
			}

			result, err := p.Call(cmd.Context(), in)
			if err != nil {
				return err
			}

			return printJSON(cmd, CallResult{Result: result})
		},
	}

	flags.register(cmd, true)

	return cmd
}
