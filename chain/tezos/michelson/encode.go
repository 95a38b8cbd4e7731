package michelson

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/trilitech/tzgo/micheline"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos"
)

// Encode converts a Go value into Micheline data of type typ.
//
// Values already given as a micheline.Prim are used as is. Records (pairs with field
// annotations) accept a map keyed by field name, and any pair accepts a list which fills its
// leaves from left to right. A string is parsed as a Michelson expression when typ is not a
// string-like type. Sets and maps are sorted by the Michelson order of their keys.
func Encode(typ micheline.Prim, v any) (micheline.Prim, error) {
	p, err := encode(typ, v)
	if err != nil {
		return micheline.Prim{}, fmt.Errorf("%w: %w", chain.ErrInvalidArgument, err)
	}

	return p, nil
}

// EncodeParameters encodes the ordered parameters of an entrypoint call. No parameter encodes
// Unit, one parameter is encoded against the whole type and several parameters fill the leaves
// of a pair type.
func EncodeParameters(typ micheline.Prim, params []any) (micheline.Prim, error) {
	switch len(params) {
	case 0:
		if is(typ, micheline.T_UNIT) {
			return micheline.NewCode(micheline.D_UNIT), nil
		}

		return micheline.Prim{}, fmt.Errorf("%w: entrypoint of type %s expects a parameter",
			chain.ErrInvalidArgument, Format(typ),
		)
	case 1:
		return Encode(typ, params[0])
	default:
		if !is(typ, micheline.T_PAIR) {
			return micheline.Prim{}, fmt.Errorf("%w: entrypoint of type %s expects a single parameter, got %d",
				chain.ErrInvalidArgument, Format(typ), len(params),
			)
		}

		return Encode(typ, params)
	}
}

// Zero returns the empty value of typ: Unit, None, an empty collection, zero, the empty string
// or bytes, or a pair of those.
func Zero(typ micheline.Prim) (micheline.Prim, error) {
	if isSeq(typ) || typ.Type < micheline.PrimNullary || typ.Type > micheline.PrimVariadicAnno {
		return micheline.Prim{}, fmt.Errorf("%w: invalid type %s", chain.ErrInvalidArgument, Format(typ))
	}

	switch typ.OpCode {
	case micheline.T_UNIT:
		return micheline.NewCode(micheline.D_UNIT), nil
	case micheline.T_OPTION:
		return micheline.NewOption(), nil
	case micheline.T_LIST, micheline.T_SET, micheline.T_MAP, micheline.T_BIG_MAP:
		return micheline.NewSeq(), nil
	case micheline.T_INT, micheline.T_NAT, micheline.T_MUTEZ:
		return micheline.NewInt64(0), nil
	case micheline.T_STRING:
		return micheline.NewString(""), nil
	case micheline.T_BYTES:
		return micheline.NewBytes(nil), nil
	case micheline.T_BOOL:
		return micheline.NewCode(micheline.D_FALSE), nil
	case micheline.T_PAIR:
		t := combPair(typ)
		if len(t.Args) != 2 {
			return micheline.Prim{}, fmt.Errorf("%w: invalid pair type %s", chain.ErrInvalidArgument, Format(typ))
		}
		left, err := Zero(t.Args[0])
		if err != nil {
			return micheline.Prim{}, err
		}
		right, err := Zero(t.Args[1])
		if err != nil {
			return micheline.Prim{}, err
		}

		return micheline.NewPair(left, right), nil
	default:
		return micheline.Prim{}, fmt.Errorf("%w: type %s has no empty value", chain.ErrInvalidArgument, Format(typ))
	}
}

func encode(t micheline.Prim, v any) (micheline.Prim, error) {
	switch p := v.(type) {
	case micheline.Prim:
		return p, nil
	case *micheline.Prim:
		if p != nil {
			return *p, nil
		}
	}
	if isSeq(t) || t.Type < micheline.PrimNullary || t.Type > micheline.PrimVariadicAnno ||
		len(t.Args) < arity[t.OpCode] {
		return micheline.Prim{}, fmt.Errorf("invalid type %s", Format(t))
	}

	switch t.OpCode {
	case micheline.T_INT, micheline.T_NAT, micheline.T_MUTEZ:
		return encodeInteger(t, v)
	case micheline.T_STRING, micheline.T_KEY, micheline.T_KEY_HASH, micheline.T_SIGNATURE, micheline.T_CHAIN_ID:
		s, ok := v.(string)
		if !ok {
			return micheline.Prim{}, fmt.Errorf("expected string for %s, got %T", t.OpCode, v)
		}

		return micheline.NewString(s), nil
	case micheline.T_ADDRESS, micheline.T_CONTRACT:
		s, ok := v.(string)
		if !ok {
			return micheline.Prim{}, fmt.Errorf("expected address string, got %T", v)
		}
		if err := tezos.ValidateAddress(s); err != nil {
			return micheline.Prim{}, err
		}

		return micheline.NewString(s), nil
	case micheline.T_BYTES:
		return encodeBytes(v)
	case micheline.T_BOOL:
		return encodeBool(v)
	case micheline.T_UNIT:
		if s, ok := v.(string); ok && s != "Unit" {
			return micheline.Prim{}, fmt.Errorf("expected Unit, got %q", s)
		}

		return micheline.NewCode(micheline.D_UNIT), nil
	case micheline.T_TIMESTAMP:
		switch ts := v.(type) {
		case string:
			return micheline.NewString(ts), nil
		case time.Time:
			return micheline.NewString(ts.UTC().Format(time.RFC3339)), nil
		default:
			return encodeInteger(t, v)
		}
	case micheline.T_OPTION:
		if v == nil {
			return micheline.NewOption(), nil
		}
		if s, ok := v.(string); ok && !isStringLike(t.Args[0]) && (s == "None" || strings.HasPrefix(s, "Some")) {
			return ParseExpression(s)
		}
		inner, err := encode(t.Args[0], v)
		if err != nil {
			return micheline.Prim{}, err
		}

		return micheline.NewOption(inner), nil
	case micheline.T_OR:
		return encodeOr(t, v)
	case micheline.T_LIST, micheline.T_SET:
		return encodeList(t, v)
	case micheline.T_MAP, micheline.T_BIG_MAP:
		return encodeMap(t, v)
	case micheline.T_PAIR:
		return encodePair(t, v)
	default:
		if s, ok := v.(string); ok {
			return ParseExpression(s)
		}

		return micheline.Prim{}, fmt.Errorf("unsupported value %T for type %s", v, Format(t))
	}
}

// arity is the number of type arguments of the parametric types.
var arity = map[micheline.OpCode]int{
	micheline.T_OPTION:   1,
	micheline.T_LIST:     1,
	micheline.T_SET:      1,
	micheline.T_CONTRACT: 1,
	micheline.T_OR:       2,
	micheline.T_MAP:      2,
	micheline.T_BIG_MAP:  2,
	micheline.T_PAIR:     2,
	micheline.T_LAMBDA:   2,
}

func isStringLike(t micheline.Prim) bool {
	switch t.OpCode {
	case micheline.T_STRING, micheline.T_KEY, micheline.T_KEY_HASH, micheline.T_SIGNATURE, micheline.T_CHAIN_ID,
		micheline.T_ADDRESS, micheline.T_CONTRACT, micheline.T_TIMESTAMP, micheline.T_BYTES:
		return !isSeq(t)
	default:
		return false
	}
}

func encodeInteger(t micheline.Prim, v any) (micheline.Prim, error) {
	n, err := chain.ToBigInt(v)
	if err != nil {
		return micheline.Prim{}, err
	}
	if t.OpCode != micheline.T_INT && t.OpCode != micheline.T_TIMESTAMP && n.Sign() < 0 {
		return micheline.Prim{}, fmt.Errorf("negative value %s for %s", n, t.OpCode)
	}

	return micheline.NewBig(n), nil
}

func encodeBytes(v any) (micheline.Prim, error) {
	switch b := v.(type) {
	case []byte:
		return micheline.NewBytes(b), nil
	case string:
		raw, err := hex.DecodeString(strings.TrimPrefix(b, "0x"))
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("invalid hex bytes %q: %w", b, err)
		}

		return micheline.NewBytes(raw), nil
	default:
		return micheline.Prim{}, fmt.Errorf("expected hex bytes, got %T", v)
	}
}

func encodeBool(v any) (micheline.Prim, error) {
	var b bool
	switch x := v.(type) {
	case bool:
		b = x
	case string:
		switch x {
		case "True":
			b = true
		case "False":
		default:
			parsed, err := strconv.ParseBool(x)
			if err != nil {
				return micheline.Prim{}, fmt.Errorf("invalid bool %q", x)
			}
			b = parsed
		}
	default:
		return micheline.Prim{}, fmt.Errorf("expected bool, got %T", v)
	}

	if b {
		return micheline.NewCode(micheline.D_TRUE), nil
	}

	return micheline.NewCode(micheline.D_FALSE), nil
}

// encodeOr accepts a single entry map keyed by "Left", "Right" or the field annotation of a
// branch.
func encodeOr(t micheline.Prim, v any) (micheline.Prim, error) {
	if s, ok := v.(string); ok {
		return ParseExpression(s)
	}

	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return micheline.Prim{}, fmt.Errorf("expected a single entry object for %s, got %T", Format(t), v)
	}

	for key, val := range m {
		switch key {
		case "Left":
			inner, err := encode(t.Args[0], val)
			if err != nil {
				return micheline.Prim{}, err
			}

			return micheline.NewCode(micheline.D_LEFT, inner), nil
		case "Right":
			inner, err := encode(t.Args[1], val)
			if err != nil {
				return micheline.Prim{}, err
			}

			return micheline.NewCode(micheline.D_RIGHT, inner), nil
		}

		path, branch, found := findBranch(t, key)
		if !found {
			return micheline.Prim{}, fmt.Errorf("unknown branch %q", key)
		}
		p, err := encode(branch, val)
		if err != nil {
			return micheline.Prim{}, err
		}

		return micheline.NewUnion(path, p), nil
	}

	return micheline.Prim{}, fmt.Errorf("empty object for %s", Format(t))
}

// findBranch returns the path, 0 for Left and 1 for Right, to the branch of an or type
// annotated with name.
func findBranch(t micheline.Prim, name string) ([]int, micheline.Prim, bool) {
	if !is(t, micheline.T_OR) || len(t.Args) != 2 {
		return nil, micheline.Prim{}, false
	}

	for side, arg := range t.Args[:2] {
		if fieldAnnot(arg) == name {
			return []int{side}, arg, true
		}
		if path, branch, ok := findBranch(arg, name); ok {
			return append([]int{side}, path...), branch, true
		}
	}

	return nil, micheline.Prim{}, false
}

func encodeList(t micheline.Prim, v any) (micheline.Prim, error) {
	if s, ok := v.(string); ok {
		return ParseExpression(s)
	}

	elems, err := toSlice(v)
	if err != nil {
		return micheline.Prim{}, err
	}

	out := micheline.NewSeq()
	for i, e := range elems {
		p, err := encode(t.Args[0], e)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Args = append(out.Args, p)
	}
	if is(t, micheline.T_SET) {
		if err = sortByKey(t.Args[0], out.Args, func(p micheline.Prim) micheline.Prim { return p }); err != nil {
			return micheline.Prim{}, err
		}
	}

	return out, nil
}

// encodeMap accepts an object keyed by the string form of the keys, a list of [key, value]
// entries, or an integer big map id.
func encodeMap(t micheline.Prim, v any) (micheline.Prim, error) {
	if is(t, micheline.T_BIG_MAP) {
		if _, err := chain.ToBigInt(v); err == nil {
			return encodeInteger(micheline.NewCode(micheline.T_NAT), v)
		}
	}
	if s, ok := v.(string); ok {
		return ParseExpression(s)
	}

	type entry struct{ key, value any }
	var entries []entry
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			entries = append(entries, entry{k, val})
		}
	default:
		list, err := toSlice(v)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("expected object or list of entries for %s, got %T", t.OpCode, v)
		}
		for i, e := range list {
			kv, err := toSlice(e)
			if err != nil || len(kv) != 2 {
				return micheline.Prim{}, fmt.Errorf("entry %d must be a [key, value] list", i)
			}
			entries = append(entries, entry{kv[0], kv[1]})
		}
	}

	out := micheline.NewSeq()
	for _, e := range entries {
		k, err := encode(t.Args[0], e.key)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("key %v: %w", e.key, err)
		}
		val, err := encode(t.Args[1], e.value)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("value of key %v: %w", e.key, err)
		}
		out.Args = append(out.Args, micheline.NewMapElem(k, val))
	}
	if err := sortByKey(t.Args[0], out.Args, func(p micheline.Prim) micheline.Prim { return p.Args[0] }); err != nil {
		return micheline.Prim{}, err
	}

	return out, nil
}

// pairLeaves returns the leaf types of a pair, descending into nested pairs which carry no field
// annotation.
func pairLeaves(t micheline.Prim) []micheline.Prim {
	var leaves []micheline.Prim
	for _, arg := range t.Args {
		if is(arg, micheline.T_PAIR) && fieldAnnot(arg) == "" {
			leaves = append(leaves, pairLeaves(arg)...)
			continue
		}
		leaves = append(leaves, arg)
	}

	return leaves
}

// buildPair rebuilds the pair value of type t from its encoded leaves.
func buildPair(t micheline.Prim, leaves []micheline.Prim, idx *int) micheline.Prim {
	args := make([]micheline.Prim, 0, len(t.Args))
	for _, arg := range t.Args {
		if is(arg, micheline.T_PAIR) && fieldAnnot(arg) == "" {
			args = append(args, buildPair(arg, leaves, idx))
			continue
		}
		args = append(args, leaves[*idx])
		*idx++
	}

	return micheline.NewCode(micheline.D_PAIR, args...)
}

func encodePair(t micheline.Prim, v any) (micheline.Prim, error) {
	if s, ok := v.(string); ok {
		return ParseExpression(s)
	}

	leafTypes := pairLeaves(t)
	values := make([]micheline.Prim, len(leafTypes))

	if record, ok := v.(map[string]any); ok {
		used := 0
		for i, lt := range leafTypes {
			name := fieldAnnot(lt)
			if name == "" {
				return micheline.Prim{}, fmt.Errorf("field %d of %s has no annotation, pass the values as a list", i, Format(t))
			}
			raw, ok := record[name]
			if !ok {
				return micheline.Prim{}, fmt.Errorf("missing field %q", name)
			}
			p, err := encode(lt, raw)
			if err != nil {
				return micheline.Prim{}, fmt.Errorf("field %s: %w", name, err)
			}
			values[i] = p
			used++
		}
		if used != len(record) {
			return micheline.Prim{}, fmt.Errorf("record %s has %d fields, got %d", Format(t), used, len(record))
		}
	} else {
		list, err := toSlice(v)
		if err != nil {
			return micheline.Prim{}, fmt.Errorf("expected object or list for %s, got %T", Format(t), v)
		}
		if len(list) != len(leafTypes) {
			return micheline.Prim{}, fmt.Errorf("expected %d values for %s, got %d", len(leafTypes), Format(t), len(list))
		}
		for i, lt := range leafTypes {
			p, err := encode(lt, list[i])
			if err != nil {
				return micheline.Prim{}, fmt.Errorf("value %d: %w", i, err)
			}
			values[i] = p
		}
	}

	idx := 0

	return buildPair(t, values, &idx), nil
}

func toSlice(v any) ([]any, error) {
	if s, ok := v.([]any); ok {
		return s, nil
	}

	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected list, got %T", v)
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, nil
}

// sortByKey orders set elements or map entries by the Michelson order of their keys of type
// keyType and rejects duplicate keys.
func sortByKey(keyType micheline.Prim, elems []micheline.Prim, key func(micheline.Prim) micheline.Prim) error {
	var err error
	slices.SortStableFunc(elems, func(a, b micheline.Prim) int {
		c, cerr := compareValues(keyType, key(a), key(b))
		if cerr != nil && err == nil {
			err = cerr
		}

		return c
	})
	if err != nil {
		return err
	}

	for i := 1; i < len(elems); i++ {
		if c, _ := compareValues(keyType, key(elems[i-1]), key(elems[i])); c == 0 {
			return fmt.Errorf("duplicate key %s", Format(key(elems[i])))
		}
	}

	return nil
}
