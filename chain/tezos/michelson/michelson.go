// Package michelson parses Michelson source into tzgo micheline primitives and converts Go values
// into Micheline data according to a Michelson type.
package michelson

import (
	"encoding/hex"
	"strings"

	"github.com/trilitech/tzgo/micheline"
	"github.com/trilitech/tzgo/tezos"
)

// newPrim returns an application of op with the binary tag matching its arguments and
// annotations.
func newPrim(op micheline.OpCode, annots []string, args ...micheline.Prim) micheline.Prim {
	p := micheline.NewCode(op, args...)
	if len(annots) > 0 {
		p.Anno = annots
		if p.Type != micheline.PrimVariadicAnno {
			p.Type++
		}
	}

	return p
}

// is reports whether p is an application of op. Literals and sequences never match, even
// though their zero opcode is a valid primitive.
func is(p micheline.Prim, op micheline.OpCode) bool {
	return p.Type >= micheline.PrimNullary && p.Type <= micheline.PrimVariadicAnno && p.OpCode == op
}

// isSeq reports whether p is a plain sequence.
func isSeq(p micheline.Prim) bool {
	return p.Type == micheline.PrimSequence
}

// fieldAnnot returns the %field annotation of p without its sigil. tzgo calls these variable
// annotations.
func fieldAnnot(p micheline.Prim) string {
	return p.GetVarAnno()
}

// Pack serializes a value the way the PACK instruction does for untyped data.
func Pack(p micheline.Prim) []byte {
	return p.Pack()
}

// ExprHash returns the script expression hash of a value, the key under which big maps index it.
func ExprHash(p micheline.Prim) tezos.ExprHash {
	return micheline.KeyHash(p.ToBytes())
}

// Format renders p as Michelson source.
func Format(p micheline.Prim) string {
	var sb strings.Builder
	format(&sb, p, false)

	return sb.String()
}

func format(sb *strings.Builder, p micheline.Prim, nested bool) {
	switch p.Type {
	case micheline.PrimInt:
		if p.Int != nil {
			sb.WriteString(p.Int.String())
		} else {
			sb.WriteByte('0')
		}
	case micheline.PrimString:
		sb.WriteString(quote(p.String))
	case micheline.PrimBytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(p.Bytes))
	case micheline.PrimSequence:
		if len(p.Args) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		for i, e := range p.Args {
			if i > 0 {
				sb.WriteString(" ; ")
			}
			format(sb, e, false)
		}
		sb.WriteString(" }")
	default:
		wrap := nested && (len(p.Args) > 0 || len(p.Anno) > 0)
		if wrap {
			sb.WriteByte('(')
		}
		sb.WriteString(p.OpCode.String())
		for _, a := range p.Anno {
			sb.WriteByte(' ')
			sb.WriteString(a)
		}
		for _, a := range p.Args {
			sb.WriteByte(' ')
			format(sb, a, true)
		}
		if wrap {
			sb.WriteByte(')')
		}
	}
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

	return `"` + r.Replace(s) + `"`
}

// Display returns integer and string literals as their bare value and any other value as
// Michelson source.
func Display(p micheline.Prim) string {
	if p.Type == micheline.PrimString {
		return p.String
	}

	return Format(p)
}
