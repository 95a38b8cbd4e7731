package provider

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/compiler"
)

// GetInfo compiles the source with c and describes the selected contract. It does not use the
// network.
func GetInfo(ctx context.Context, c compiler.Compiler, src chain.ContractSource) (chain.ContractInfo, error) {
	artifact, err := compiler.CompileAndSelect(ctx, c, src)
	if err != nil {
		return chain.ContractInfo{}, err
	}

	return ContractInfo(artifact.ABI), nil
}

// ContractInfo normalizes a parsed ABI into a chain-agnostic ContractInfo. Functions and events
// are sorted by name, overloads by their input types.
func ContractInfo(parsed abi.ABI) chain.ContractInfo {
	info := chain.ContractInfo{
		Constructor: chain.ConstructorInfo{Input: make([]string, 0, len(parsed.Constructor.Inputs))},
		Functions:   make([]chain.FunctionInfo, 0, len(parsed.Methods)),
		Events:      make([]chain.EventInfo, 0, len(parsed.Events)),
	}

	for _, in := range parsed.Constructor.Inputs {
		info.Constructor.Input = append(info.Constructor.Input, in.Type.String())
	}

	for _, m := range parsed.Methods {
		fn := chain.FunctionInfo{
			Name:   m.RawName,
			Input:  make([]chain.Param, 0, len(m.Inputs)),
			Output: make([]string, 0, len(m.Outputs)),
		}
		for _, in := range m.Inputs {
			fn.Input = append(fn.Input, chain.Param{Name: in.Name, Type: in.Type.String()})
		}
		for _, out := range m.Outputs {
			fn.Output = append(fn.Output, out.Type.String())
		}
		info.Functions = append(info.Functions, fn)
	}

	for _, e := range parsed.Events {
		ev := chain.EventInfo{
			Name:  e.RawName,
			Input: make([]chain.EventParam, 0, len(e.Inputs)),
		}
		for _, in := range e.Inputs {
			ev.Input = append(ev.Input, chain.EventParam{Name: in.Name, Type: in.Type.String(), Indexed: in.Indexed})
		}
		info.Events = append(info.Events, ev)
	}

	slices.SortFunc(info.Functions, func(a, b chain.FunctionInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(paramTypes(a.Input), paramTypes(b.Input)))
	})
	slices.SortFunc(info.Events, func(a, b chain.EventInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(eventParamTypes(a.Input), eventParamTypes(b.Input)))
	})

	return info
}

func paramTypes(params []chain.Param) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}

	return strings.Join(types, ",")
}

func eventParamTypes(params []chain.EventParam) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}

	return strings.Join(types, ",")
}
