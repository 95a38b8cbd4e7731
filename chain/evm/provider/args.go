package provider

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

// coerceArguments converts loosely typed values (as decoded from JSON, YAML or CLI flags) into
// the Go types expected by the ABI packer for each argument.
func coerceArguments(args abi.Arguments, values []any) ([]any, error) {
	if len(args) != len(values) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", chain.ErrInvalidArgument, len(args), len(values))
	}

	out := make([]any, len(values))
	for i, arg := range args {
		v, err := coerceValue(arg.Type, values[i])
		if err != nil {
			name := arg.Name
			if name == "" {
				name = strconv.Itoa(i)
			}

			return nil, fmt.Errorf("%w: argument %s (%s): %w", chain.ErrInvalidArgument, name, arg.Type.String(), err)
		}
		out[i] = v
	}

	return out, nil
}

func coerceValue(t abi.Type, v any) (any, error) {
	goType := t.GetType()
	if v != nil && reflect.TypeOf(v) == goType {
		return v, nil
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		return coerceInteger(t, v)
	case abi.BoolTy:
		return coerceBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}

		return s, nil
	case abi.AddressTy:
		return coerceAddress(v)
	case abi.BytesTy:
		return coerceBytes(v)
	case abi.FixedBytesTy:
		b, err := coerceBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(goType).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))

		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return coerceList(t, v)
	case abi.TupleTy:
		return coerceTuple(t, v)
	default:
		return nil, fmt.Errorf("unsupported type %s", t.String())
	}
}

func coerceInteger(t abi.Type, v any) (any, error) {
	n, err := chain.ToBigInt(v)
	if err != nil {
		return nil, err
	}

	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for unsigned type", n)
	}
	limit, magnitude := t.Size, n
	if t.T == abi.IntTy {
		limit--
		// -2^(size-1) is the one negative value whose magnitude needs size bits.
		if n.Sign() < 0 {
			magnitude = new(big.Int).Add(n, big.NewInt(1))
		}
	}
	if magnitude.BitLen() > limit {
		return nil, fmt.Errorf("value %s overflows %s", n, t.String())
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}
	if t.T == abi.IntTy {
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
	}

	return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
}

func coerceBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

func coerceAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}

		return common.HexToAddress(a), nil
	default:
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
}

func coerceBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(b, "0x"), "0X"))
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q: %w", b, err)
		}

		return decoded, nil
	default:
		return nil, fmt.Errorf("expected hex bytes, got %T", v)
	}
}

func coerceList(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	if t.T == abi.ArrayTy && rv.Len() != t.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", t.Size, rv.Len())
	}

	goType := t.GetType()
	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(goType).Elem()
	} else {
		out = reflect.MakeSlice(goType, rv.Len(), rv.Len())
	}

	for i := range rv.Len() {
		elem, err := coerceValue(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}

	return out.Interface(), nil
}

func coerceTuple(t abi.Type, v any) (any, error) {
	out := reflect.New(t.GetType()).Elem()

	switch fields := v.(type) {
	case map[string]any:
		for i, name := range t.TupleRawNames {
			raw, ok := fields[name]
			if !ok {
				return nil, fmt.Errorf("missing tuple field %q", name)
			}
			elem, err := coerceValue(*t.TupleElems[i], raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			out.Field(i).Set(reflect.ValueOf(elem))
		}
	case []any:
		if len(fields) != len(t.TupleElems) {
			return nil, fmt.Errorf("expected %d tuple fields, got %d", len(t.TupleElems), len(fields))
		}
		for i, raw := range fields {
			elem, err := coerceValue(*t.TupleElems[i], raw)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			out.Field(i).Set(reflect.ValueOf(elem))
		}
	default:
		return nil, fmt.Errorf("expected object or list for tuple, got %T", v)
	}

	return out.Interface(), nil
}
