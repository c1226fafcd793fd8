package lower

import (
	"math"

	"jcc/src/source"
	"jcc/src/syntax"
	"jcc/src/types"
)

// intRange returns, for a primitive int type: negLimit, the magnitude of the most negative value
// representable (meaningful only when signed); maxVal, the largest non-negative value representable;
// and whether the type is signed at all.
func intRange(p types.Primitive) (negLimit uint64, maxVal uint64, signed bool) {
	switch p {
	case types.U8:
		return 0, math.MaxUint8, false
	case types.U16:
		return 0, math.MaxUint16, false
	case types.U32:
		return 0, math.MaxUint32, false
	case types.U64:
		return 0, math.MaxUint64, false
	case types.I8:
		return 1 << 7, math.MaxInt8, true
	case types.I16:
		return 1 << 15, math.MaxInt16, true
	case types.I32:
		return 1 << 31, math.MaxInt32, true
	case types.I64:
		return 1 << 63, math.MaxInt64, true
	}
	return 0, 0, false
}

// suffixPrimitive maps an integer literal's textual suffix to a Primitive, or false if absent/unknown.
func suffixPrimitive(suffix string) (types.Primitive, bool) {
	switch suffix {
	case "u8":
		return types.U8, true
	case "u16":
		return types.U16, true
	case "u32":
		return types.U32, true
	case "u64":
		return types.U64, true
	case "i8":
		return types.I8, true
	case "i16":
		return types.I16, true
	case "i32":
		return types.I32, true
	case "i64":
		return types.I64, true
	}
	return 0, false
}

// resolveIntLiteral picks the literal's target primitive (explicit suffix, else i32/u32 default by
// sign) and range-checks the parsed value against it.
func (l *Lowerer) resolveIntLiteral(e *syntax.Expr) *types.Type {
	var prim types.Primitive
	if p, ok := suffixPrimitive(e.IntSuffix); ok {
		prim = p
	} else if isNegativeIntLiteral(e) {
		prim = types.I32
	} else {
		prim = types.U32
	}

	negLimit, maxVal, signed := intRange(prim)
	switch {
	case !signed && e.Negative:
		l.Errors.Simple(source.IDLowering, "negative literal with unsigned type", e.Ref,
			"literal is negative but resolved type is %s", prim.String())
	case !signed && e.IntValue > maxVal:
		l.Errors.Simple(source.IDLowering, "integer literal out of range", e.Ref,
			"value %d does not fit in %s", e.IntValue, prim.String())
	case signed && e.Negative && e.IntValue > negLimit:
		l.Errors.Simple(source.IDLowering, "integer literal out of range", e.Ref,
			"value -%d does not fit in %s", e.IntValue, prim.String())
	case signed && !e.Negative && e.IntValue > maxVal:
		l.Errors.Simple(source.IDLowering, "integer literal out of range", e.Ref,
			"value %d does not fit in %s", e.IntValue, prim.String())
	}
	return l.Types.Primitive(prim)
}

// isNegativeIntLiteral reports whether e is an unsuffixed literal written with a leading unary minus.
// The lexer never produces a negative token itself; lowerUnary folds `-<literal>` into a single literal
// node with Negative set before this function runs.
func isNegativeIntLiteral(e *syntax.Expr) bool {
	return e.Negative
}
