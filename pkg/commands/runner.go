package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/factory"
)

// runner carries the configuration and persistent flag values shared by the subcommands.
type runner struct {
	cfg Config

	profilesPath string
	secretsPath  string

	providers *factory.LazyProviders
}

// provider returns the provider of the named profile. The profiles file is read on first use.
func (r *runner) provider(name string) (chain.Provider, error) {
	if r.providers == nil {
		profiles, err := r.cfg.Deps.ProfilesLoader(r.profilesPath)
		if err != nil {
			return nil, err
		}
		if profiles.Len() == 0 {
			return nil, fmt.Errorf("no profiles defined in %s", r.profilesPath)
		}

		r.providers = factory.NewLazyProviders(profiles.All(), func(p chain.Profile) (chain.Provider, error) {
			return r.cfg.Deps.ProviderFactory(p, r.cfg.Logger)
		}, r.cfg.Logger)
	}

	if !r.providers.Exists(name) {
		return nil, fmt.Errorf("profile not found '%s' in %s", name, r.profilesPath)
	}

	return r.providers.Get(name)
}

func (r *runner) privateKey(b chain.Blockchain) (string, error) {
	secrets, err := r.cfg.Deps.SecretsLoader(r.secretsPath)
	if err != nil {
		return "", err
	}

	return secrets.PrivateKey(b)
}

func (r *runner) source(file, contract string) (chain.ContractSource, error) {
	code, err := r.cfg.Deps.ReadFile(file)
	if err != nil {
		return chain.ContractSource{}, fmt.Errorf("failed to read contract source: %w", err)
	}

	return chain.ContractSource{Code: string(code), Contract: contract}, nil
}

// contractFlags are the source and argument flags shared by deploy, send and call.
type contractFlags struct {
	file     string
	contract string
	params   string
}

func (f *contractFlags) register(cmd *cobra.Command, withFile bool) {
	if withFile {
		cmd.Flags().StringVarP(&f.file, "file", "f", "", "Contract source file")
	}
	cmd.Flags().StringVarP(&f.contract, "contract", "c", "", "Contract to select when the source defines several")
	cmd.Flags().StringVar(&f.params, "params", "", "Parameters as a JSON array")
}

// parseParams decodes a JSON array of parameters. Numbers are kept as json.Number so that
// large integers survive the decoding.
func parseParams(s string) ([]any, error) {
	if s == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var params []any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: --params must be a JSON array: %w", chain.ErrInvalidArgument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: --params must hold a single JSON array", chain.ErrInvalidArgument)
	}

	return params, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
