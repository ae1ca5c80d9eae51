package emitter

import (
	"cmp"
	"slices"

	"github.com/roach88/gistub/internal/ir"
)

// Specificity ranks, most constrained first.
const (
	rankMissing = iota
	rankOpaque
	rankPrimitive
	rankContainer
	rankResolved
	rankLiteral
)

func rank(r *ir.TypeRef) int {
	if r == nil {
		return rankPrimitive // None
	}
	switch r.Tag {
	case ir.RefPrimitive:
		switch {
		case r.Literal != "":
			return rankLiteral
		case r.Primitive == ir.PrimAny, r.Primitive == ir.PrimObject:
			return rankOpaque
		}
		return rankPrimitive
	case ir.RefResolved:
		return rankResolved
	case ir.RefContainer:
		return rankContainer
	}
	return rankOpaque
}

// compareSpecificity orders a before b when a is more specific, comparing
// input parameters position by position and then the return type.
func compareSpecificity(a, b *ir.Signature) int {
	ain, bin := a.Inputs(), b.Inputs()
	for i := 0; i < max(len(ain), len(bin)); i++ {
		ra, rb := rankMissing, rankMissing
		if i < len(ain) {
			ra = rank(ain[i].Type)
		}
		if i < len(bin) {
			rb = rank(bin[i].Type)
		}
		if c := cmp.Compare(rb, ra); c != 0 {
			return c
		}
	}
	return cmp.Compare(rank(b.Return), rank(a.Return))
}

// orderOverloads returns sigs from most to least specific. Equal
// signatures keep declaration order.
func orderOverloads(sigs []*ir.Signature) []*ir.Signature {
	out := slices.Clone(sigs)
	slices.SortStableFunc(out, compareSpecificity)
	return out
}
