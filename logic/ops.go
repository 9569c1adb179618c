// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

// binWidth returns the common width for a binary operation: the wider of the
// two operands, and at least 1. The narrower operand is zero extended, never
// truncated.
func binWidth(a, b Value) int {
	w := a.Width()
	if b.Width() > w {
		w = b.Width()
	}
	if w < 1 {
		w = 1
	}
	return w
}

func pointwise(a, b Value, f func(State, State) State) Value {
	w := binWidth(a, b)
	a, b = a.Extend(w), b.Extend(w)
	out := New(w, LX)
	for i := 0; i < w; i++ {
		out.bits[i] = f(a.Bit(i), b.Bit(i))
	}
	return out
}

// BitNot returns the pointwise complement of a.
//
func BitNot(a Value) Value {
	out := New(a.Width(), LX)
	for i := range out.bits {
		out.bits[i] = a.Bit(i).Not()
	}
	return out
}

// BitAnd returns the pointwise conjunction of a and b.
//
func BitAnd(a, b Value) Value { return pointwise(a, b, State.And) }

// BitOr returns the pointwise disjunction of a and b.
//
func BitOr(a, b Value) Value { return pointwise(a, b, State.Or) }

// BitXor returns the pointwise exclusive or of a and b.
//
func BitXor(a, b Value) Value { return pointwise(a, b, State.Xor) }

// Neg returns the two's complement negation of a on its numeric projection.
//
func Neg(a Value) Value {
	w := a.Width()
	if w < 1 {
		w = 1
	}
	return FromUint(w, -a.Uint64())
}

// Arithmetic on the unsigned numeric projection of the operands. The result
// width is the wider of the two operand widths, at least 1. Division and
// modulus by zero yield 0.

// Add returns a + b.
//
func Add(a, b Value) Value {
	return FromUint(binWidth(a, b), a.Uint64()+b.Uint64())
}

// Sub returns a - b.
//
func Sub(a, b Value) Value {
	return FromUint(binWidth(a, b), a.Uint64()-b.Uint64())
}

// Mul returns a * b.
//
func Mul(a, b Value) Value {
	return FromUint(binWidth(a, b), a.Uint64()*b.Uint64())
}

// Div returns a / b, or 0 when b is 0.
//
func Div(a, b Value) Value {
	w := binWidth(a, b)
	d := b.Uint64()
	if d == 0 {
		return New(w, L0)
	}
	return FromUint(w, a.Uint64()/d)
}

// Mod returns a % b, or 0 when b is 0.
//
func Mod(a, b Value) Value {
	w := binWidth(a, b)
	d := b.Uint64()
	if d == 0 {
		return New(w, L0)
	}
	return FromUint(w, a.Uint64()%d)
}

// Shl returns a shifted left by the numeric projection of b.
//
func Shl(a, b Value) Value {
	return FromUint(binWidth(a, b), a.Uint64()<<(b.Uint64()&63))
}

// Shr returns a shifted right by the numeric projection of b.
//
func Shr(a, b Value) Value {
	return FromUint(binWidth(a, b), a.Uint64()>>(b.Uint64()&63))
}

// bit1 returns a 1-bit Value holding s.
func bit1(s State) Value {
	v := New(1, s)
	return v
}

// Comparisons produce a 1-bit Value on the numeric projections. In this
// subset the case equality operators are synonyms of == and !=.

// Eq returns a == b.
//
func Eq(a, b Value) Value { return bit1(FromBool(a.Uint64() == b.Uint64())) }

// Neq returns a != b.
//
func Neq(a, b Value) Value { return bit1(FromBool(a.Uint64() != b.Uint64())) }

// Lt returns a < b.
//
func Lt(a, b Value) Value { return bit1(FromBool(a.Uint64() < b.Uint64())) }

// Gt returns a > b.
//
func Gt(a, b Value) Value { return bit1(FromBool(a.Uint64() > b.Uint64())) }

// Le returns a <= b.
//
func Le(a, b Value) Value { return bit1(FromBool(a.Uint64() <= b.Uint64())) }

// Ge returns a >= b.
//
func Ge(a, b Value) Value { return bit1(FromBool(a.Uint64() >= b.Uint64())) }

// LogAnd returns the logical conjunction of the reductions of a and b.
//
func LogAnd(a, b Value) Value {
	return bit1(FromBool(a.Uint64() != 0 && b.Uint64() != 0))
}

// LogOr returns the logical disjunction of the reductions of a and b.
//
func LogOr(a, b Value) Value {
	return bit1(FromBool(a.Uint64() != 0 || b.Uint64() != 0))
}

// LogNot returns the 1-bit logical complement of the reduction of a.
//
func LogNot(a Value) Value {
	return bit1(FromBool(a.Uint64() == 0))
}
