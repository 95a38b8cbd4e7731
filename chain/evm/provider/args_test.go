package provider

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

func mustType(t *testing.T, typ string, components ...abi.ArgumentMarshaling) abi.Type {
	t.Helper()

	got, err := abi.NewType(typ, "", components)
	require.NoError(t, err)

	return got
}

func Test_coerceValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		giveType  string
		giveValue any
		want      any
		wantErr   string
	}{
		{name: "uint256 from int", giveType: "uint256", giveValue: 30, want: big.NewInt(30)},
		{name: "uint256 from decimal string", giveType: "uint256", giveValue: "1000000000000000000000", want: new(big.Int).Mul(big.NewInt(1e18), big.NewInt(1000))},
		{name: "uint256 from hex string", giveType: "uint256", giveValue: "0x1e", want: big.NewInt(30)},
		{name: "uint256 from float", giveType: "uint256", giveValue: float64(30), want: big.NewInt(30)},
		{name: "uint256 from json number", giveType: "uint256", giveValue: json.Number("42"), want: big.NewInt(42)},
		{name: "int256 negative", giveType: "int256", giveValue: "-5", want: big.NewInt(-5)},
		{name: "uint8 native", giveType: "uint8", giveValue: 200, want: uint8(200)},
		{name: "int64 native", giveType: "int64", giveValue: -7, want: int64(-7)},
		{name: "uint8 overflow", giveType: "uint8", giveValue: 300, wantErr: "overflows uint8"},
		{name: "int8 overflow", giveType: "int8", giveValue: 128, wantErr: "overflows int8"},
		{name: "int8 minimum", giveType: "int8", giveValue: -128, want: int8(-128)},
		{name: "int8 underflow", giveType: "int8", giveValue: -129, wantErr: "overflows int8"},
		{name: "negative unsigned", giveType: "uint256", giveValue: -1, wantErr: "negative value"},
		{name: "fractional number", giveType: "uint256", giveValue: 1.5, wantErr: "non integral number"},
		{name: "invalid integer", giveType: "uint256", giveValue: "abc", wantErr: "invalid integer"},
		{name: "bool", giveType: "bool", giveValue: true, want: true},
		{name: "bool from string", giveType: "bool", giveValue: "false", want: false},
		{name: "string", giveType: "string", giveValue: "hello", want: "hello"},
		{name: "string from number", giveType: "string", giveValue: 1, wantErr: "expected string"},
		{name: "address", giveType: "address", giveValue: testAddr1.Hex(), want: testAddr1},
		{name: "invalid address", giveType: "address", giveValue: "0x123", wantErr: "invalid address"},
		{name: "bytes", giveType: "bytes", giveValue: "0xdeadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "bytes4", giveType: "bytes4", giveValue: "0xdeadbeef", want: [4]byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "bytes4 wrong size", giveType: "bytes4", giveValue: "0xdead", wantErr: "expected 4 bytes, got 2"},
		{name: "uint256 slice", giveType: "uint256[]", giveValue: []any{1, "2"}, want: []*big.Int{big.NewInt(1), big.NewInt(2)}},
		{name: "fixed array", giveType: "bool[2]", giveValue: []any{true, false}, want: [2]bool{true, false}},
		{name: "fixed array wrong length", giveType: "bool[2]", giveValue: []any{true}, wantErr: "expected 2 elements, got 1"},
		{name: "list from scalar", giveType: "uint256[]", giveValue: 1, wantErr: "expected list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := coerceValue(mustType(t, tt.giveType), tt.giveValue)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_coerceValue_Tuple(t *testing.T) {
	t.Parallel()

	typ := mustType(t, "tuple",
		abi.ArgumentMarshaling{Name: "name", Type: "string"},
		abi.ArgumentMarshaling{Name: "age", Type: "uint256"},
	)

	fromMap, err := coerceValue(typ, map[string]any{"name": "alice", "age": 30})
	require.NoError(t, err)

	fromList, err := coerceValue(typ, []any{"alice", "30"})
	require.NoError(t, err)
	assert.Equal(t, fromMap, fromList)

	_, err = coerceValue(typ, map[string]any{"name": "alice"})
	require.ErrorContains(t, err, `missing tuple field "age"`)

	_, err = coerceValue(typ, []any{"alice"})
	require.ErrorContains(t, err, "expected 2 tuple fields, got 1")

	// The coerced value must be accepted by the packer
	args := abi.Arguments{{Name: "person", Type: typ}}
	_, err = args.Pack(fromMap)
	require.NoError(t, err)
}

func Test_coerceArguments(t *testing.T) {
	t.Parallel()

	args := abi.Arguments{
		{Name: "to", Type: mustType(t, "address")},
		{Name: "amount", Type: mustType(t, "uint256")},
	}

	got, err := coerceArguments(args, []any{testAddr1.Hex(), "100"})
	require.NoError(t, err)
	assert.Equal(t, []any{testAddr1, big.NewInt(100)}, got)

	_, err = coerceArguments(args, []any{testAddr1.Hex()})
	require.ErrorIs(t, err, chain.ErrInvalidArgument)
	require.ErrorContains(t, err, "expected 2 arguments, got 1")

	_, err = coerceArguments(args, []any{"nope", 1})
	require.ErrorIs(t, err, chain.ErrInvalidArgument)
	require.ErrorContains(t, err, "argument to (address)")

	unnamed := abi.Arguments{{Type: mustType(t, "bool")}}
	_, err = coerceArguments(unnamed, []any{"maybe"})
	require.ErrorContains(t, err, "argument 0 (bool)")

	_, err = coerceArguments(args, []any{common.Address{}, 1})
	require.NoError(t, err)
}
