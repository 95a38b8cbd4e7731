package michelson

import (
	"fmt"

	"github.com/trilitech/tzgo/micheline"
)

// Section returns the argument of the toplevel section of a parsed script or of the code
// returned by the node. Only parameter, storage and code are sections.
func Section(code micheline.Code, op micheline.OpCode) (micheline.Prim, error) {
	var s micheline.Prim
	switch op {
	case micheline.K_PARAMETER:
		s = code.Param
	case micheline.K_STORAGE:
		s = code.Storage
	case micheline.K_CODE:
		s = code.Code
	}
	if !is(s, op) || len(s.Args) == 0 {
		return micheline.Prim{}, fmt.Errorf("script has no %s section", op)
	}

	return s.Args[0], nil
}

// OnchainView returns the on-chain view declared as `view "name" arg ret { code }`.
func OnchainView(code micheline.Code, name string) (micheline.Prim, bool) {
	for _, v := range code.View.Args {
		if is(v, micheline.K_VIEW) && len(v.Args) == 4 &&
			v.Args[0].Type == micheline.PrimString && v.Args[0].String == name {
			return v, true
		}
	}

	return micheline.Prim{}, false
}

// Entrypoints returns the entrypoints of a parameter type by name. The root is always callable
// as "default" unless a branch is explicitly annotated %default.
func Entrypoints(parameter micheline.Prim) map[string]micheline.Prim {
	eps := map[string]micheline.Prim{}
	collectEntrypoints(parameter, eps)

	if _, ok := eps["default"]; !ok {
		eps["default"] = parameter
	}

	return eps
}

func collectEntrypoints(t micheline.Prim, eps map[string]micheline.Prim) {
	if name := fieldAnnot(t); name != "" {
		eps[name] = t
	}
	if is(t, micheline.T_OR) && len(t.Args) == 2 {
		collectEntrypoints(t.Args[0], eps)
		collectEntrypoints(t.Args[1], eps)
	}
}

// combPair folds a pair with more than two arguments into nested right combs.
func combPair(p micheline.Prim) micheline.Prim {
	if len(p.Args) <= 2 {
		return p
	}

	return newPrim(p.OpCode, p.Anno, p.Args[0], combPair(micheline.NewCode(p.OpCode, p.Args[1:]...)))
}

// pairValue normalizes a pair value written as a comb or as a sequence into a binary Pair.
func pairValue(v micheline.Prim) (micheline.Prim, bool) {
	switch {
	case is(v, micheline.D_PAIR) && len(v.Args) >= 2:
		return combPair(v), true
	case isSeq(v) && len(v.Args) >= 2:
		return combPair(micheline.NewCode(micheline.D_PAIR, v.Args...)), true
	default:
		return micheline.Prim{}, false
	}
}

// FindAnnotated walks a value along its type and returns the sub value whose type carries the
// field annotation, such as the %metadata big map of a storage.
func FindAnnotated(typ, value micheline.Prim, annot string) (micheline.Prim, bool) {
	if fieldAnnot(typ) == annot {
		return value, true
	}
	if !is(typ, micheline.T_PAIR) || len(typ.Args) < 2 {
		return micheline.Prim{}, false
	}

	typ = combPair(typ)
	pair, ok := pairValue(value)
	if !ok {
		return micheline.Prim{}, false
	}

	if found, ok := FindAnnotated(typ.Args[0], pair.Args[0], annot); ok {
		return found, true
	}

	return FindAnnotated(typ.Args[1], pair.Args[1], annot)
}
