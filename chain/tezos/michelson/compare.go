package michelson

import (
	"bytes"
	"cmp"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/trilitech/tzgo/micheline"
	tz "github.com/trilitech/tzgo/tezos"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain/tezos"
)

// compareValues orders two values of the comparable type typ the way the COMPARE instruction
// does. Addresses, keys and key hashes compare by their binary form, so implicit accounts sort
// before contracts.
func compareValues(typ, a, b micheline.Prim) (int, error) {
	switch typ.OpCode {
	case micheline.T_INT, micheline.T_NAT, micheline.T_MUTEZ:
		return compareInts(a, b)
	case micheline.T_TIMESTAMP:
		x, err := timestamp(a)
		if err != nil {
			return 0, err
		}
		y, err := timestamp(b)
		if err != nil {
			return 0, err
		}

		return x.Cmp(y), nil
	case micheline.T_STRING, micheline.T_SIGNATURE, micheline.T_CHAIN_ID:
		return strings.Compare(a.String, b.String), nil
	case micheline.T_BYTES:
		return bytes.Compare(a.Bytes, b.Bytes), nil
	case micheline.T_BOOL:
		return cmp.Compare(boolRank(a), boolRank(b)), nil
	case micheline.T_UNIT:
		return 0, nil
	case micheline.T_ADDRESS, micheline.T_KEY_HASH, micheline.T_KEY:
		x, err := binaryForm(typ.OpCode, a)
		if err != nil {
			return 0, err
		}
		y, err := binaryForm(typ.OpCode, b)
		if err != nil {
			return 0, err
		}

		return bytes.Compare(x, y), nil
	case micheline.T_OPTION:
		if len(typ.Args) != 1 {
			return 0, fmt.Errorf("invalid type %s", Format(typ))
		}
		someA, someB := is(a, micheline.D_SOME), is(b, micheline.D_SOME)
		if !someA || !someB {
			// None < Some
			return cmp.Compare(boolInt(someA), boolInt(someB)), nil
		}

		return compareValues(typ.Args[0], a.Args[0], b.Args[0])
	case micheline.T_OR:
		if len(typ.Args) != 2 {
			return 0, fmt.Errorf("invalid type %s", Format(typ))
		}
		rightA, rightB := is(a, micheline.D_RIGHT), is(b, micheline.D_RIGHT)
		if rightA != rightB {
			// Left < Right
			return cmp.Compare(boolInt(rightA), boolInt(rightB)), nil
		}
		if len(a.Args) != 1 || len(b.Args) != 1 {
			return 0, fmt.Errorf("invalid or values %s and %s", Format(a), Format(b))
		}

		return compareValues(typ.Args[boolInt(rightA)], a.Args[0], b.Args[0])
	case micheline.T_PAIR:
		t := combPair(typ)
		if len(t.Args) != 2 {
			return 0, fmt.Errorf("invalid type %s", Format(typ))
		}
		x, okA := pairValue(a)
		y, okB := pairValue(b)
		if !okA || !okB {
			return 0, fmt.Errorf("invalid pair values %s and %s", Format(a), Format(b))
		}
		if c, err := compareValues(t.Args[0], x.Args[0], y.Args[0]); err != nil || c != 0 {
			return c, err
		}

		return compareValues(t.Args[1], x.Args[1], y.Args[1])
	default:
		return 0, fmt.Errorf("type %s is not comparable", Format(typ))
	}
}

func compareInts(a, b micheline.Prim) (int, error) {
	if a.Type != micheline.PrimInt || b.Type != micheline.PrimInt || a.Int == nil || b.Int == nil {
		return 0, fmt.Errorf("expected integers, got %s and %s", Format(a), Format(b))
	}

	return a.Int.Cmp(b.Int), nil
}

// timestamp returns the seconds since the epoch of an integer or RFC 3339 timestamp.
func timestamp(p micheline.Prim) (*big.Int, error) {
	switch p.Type {
	case micheline.PrimInt:
		return p.Int, nil
	case micheline.PrimString:
		ts, err := time.Parse(time.RFC3339, p.String)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", p.String, err)
		}

		return big.NewInt(ts.Unix()), nil
	default:
		return nil, fmt.Errorf("invalid timestamp %s", Format(p))
	}
}

func boolRank(p micheline.Prim) int {
	return boolInt(is(p, micheline.D_TRUE))
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// binaryForm returns the optimized encoding of an address, key hash or key. Values already
// given as bytes are assumed to be in that form.
func binaryForm(typ micheline.OpCode, p micheline.Prim) ([]byte, error) {
	if p.Type == micheline.PrimBytes {
		return p.Bytes, nil
	}
	if p.Type != micheline.PrimString {
		return nil, fmt.Errorf("invalid %s %s", typ, Format(p))
	}

	switch typ {
	case micheline.T_KEY:
		k, err := tz.ParseKey(p.String)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", p.String, err)
		}

		return k.Bytes(), nil
	case micheline.T_KEY_HASH:
		addr, _, err := tezos.ParseAddress(p.String)
		if err != nil {
			return nil, err
		}

		return addr.Encode(), nil
	default:
		addr, entrypoint, err := tezos.ParseAddress(p.String)
		if err != nil {
			return nil, err
		}

		return append(addr.EncodePadded(), entrypoint...), nil
	}
}
