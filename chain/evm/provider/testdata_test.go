package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain/evm/compiler"
)

// Defines a general test EVM address
var (
	testAddr1 = common.HexToAddress("0xc1d6fEcd5D09Ad67cF5E0FC9633D89759DD84271")
)

const ageContractSource = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

contract AgeContract {
    uint256 public age;

    constructor(uint256 _age) {
        age = _age;
    }

    function setAge(uint256 _age) public {
        age = _age;
    }

    function getAge() public view returns (uint256) {
        return age;
    }
}
`

const ageContractABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_age","type":"uint256","internalType":"uint256"}]},
	{"type":"function","name":"age","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256","internalType":"uint256"}]},
	{"type":"function","name":"getAge","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256","internalType":"uint256"}]},
	{"type":"function","name":"setAge","stateMutability":"nonpayable","inputs":[{"name":"_age","type":"uint256","internalType":"uint256"}],"outputs":[]}
]`

// ageContractBytecode behaves like the compiled AgeContract: the init code stores the trailing
// constructor argument in slot 0, the runtime stores calldataload(4) when called with a single
// word argument and returns slot 0 otherwise.
const ageContractBytecode = "0x" +
	"602060203803600039600051600055601a601b600039601a6000f3" + // init
	"3660241460125760005460005260206000f35b60043560005500" // runtime

// staticCompiler answers every compilation with the same artifacts.
type staticCompiler struct {
	artifacts []compiler.Artifact
	err       error
}

func (c *staticCompiler) Compile(context.Context, string) ([]compiler.Artifact, error) {
	return c.artifacts, c.err
}

func ageContractArtifact(t *testing.T) compiler.Artifact {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(ageContractABI))
	require.NoError(t, err)

	return compiler.Artifact{
		Name:     "AgeContract",
		ABI:      parsed,
		RawABI:   []byte(ageContractABI),
		Bytecode: hexutil.MustDecode(ageContractBytecode),
	}
}

func ageCompiler(t *testing.T) *staticCompiler {
	t.Helper()

	return &staticCompiler{artifacts: []compiler.Artifact{ageContractArtifact(t)}}
}

// uint256Word returns v as a 0x prefixed ABI encoded word.
func uint256Word(v byte) string {
	return "0x" + strings.Repeat("00", 31) + hexutil.Encode([]byte{v})[2:]
}
