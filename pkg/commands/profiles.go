package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/pkg/commands/text"
)

var (
	profilesLong = text.LongDesc(`
		Describes the loaded profiles, or the single profile given by name.
	`)

	profilesExample = text.Examples(`
		# Describe every profile
		chainctl profiles

		# Describe one profile
		chainctl profiles sepolia --profiles profiles.toml
	`)
)

func newProfilesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "profiles [name]",
		Short:   "Describe the configured profiles",
		Long:    profilesLong,
		Example: profilesExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := r.cfg.Deps.ProfilesLoader(r.profilesPath)
			if err != nil {
				return err
			}

			var out string
			if len(args) == 1 {
				out, err = profiles.Describe(args[0])
			} else {
				out, err = profiles.DescribeAll()
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)

			return err
		},
	}
}
