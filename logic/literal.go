// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logic

import "strings"

func isBitString(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch c {
		case '0', '1', 'x', 'X', 'z', 'Z':
		default:
			return false
		}
	}
	return true
}

func parseDec(s string) uint64 {
	var u uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		u = u*10 + uint64(c-'0')
	}
	return u
}

func hexDigit(c rune) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint8(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint8(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint8(c-'A') + 10, true
	}
	return 0, false
}

// sizeTo adjusts v to the given width: high bits are dropped, missing bits
// are zero filled. Used only for sized literals, where the written size wins
// over the digit count.
func sizeTo(v Value, width int) Value {
	if width <= 0 || v.Width() == width {
		return v
	}
	out := New(width, L0)
	for i := 0; i < width && i < v.Width(); i++ {
		out.bits[i] = v.bits[i]
	}
	return out
}

// ParseLiteral parses a numeric literal in one of the accepted forms:
//
//	<size>'b<bits>   binary, bits may include x and z
//	<size>'d<digits> decimal
//	<size>'h<hex>    hexadecimal
//	<digits>         bare decimal, 32 bits
//	<bits>           bare string of 0/1/x/z characters with at least one
//	                 x or z digit, binary
//
// Malformed digits parse as X bits. An empty literal is a 1-bit X.
//
func ParseLiteral(lit string) Value {
	if lit == "" {
		return New(1, LX)
	}

	if i := strings.IndexByte(lit, '\''); i >= 0 && i+2 <= len(lit) {
		size := int(parseDec(lit[:i]))
		rest := lit[i+1:]
		base := rest[0] | 0x20 // lower case
		digits := rest[1:]

		var v Value
		switch base {
		case 'b':
			v = FromString(digits)
		case 'd':
			if strings.IndexFunc(digits, func(c rune) bool { return c < '0' || c > '9' }) >= 0 {
				v = New(32, LX)
			} else {
				v = FromUint(32, parseDec(digits))
			}
		case 'h':
			var b strings.Builder
			for _, c := range digits {
				d, ok := hexDigit(c)
				if !ok {
					if c == 'z' || c == 'Z' {
						b.WriteString("zzzz")
					} else {
						b.WriteString("xxxx")
					}
					continue
				}
				for j := 3; j >= 0; j-- {
					if d&(1<<uint(j)) != 0 {
						b.WriteByte('1')
					} else {
						b.WriteByte('0')
					}
				}
			}
			if b.Len() == 0 {
				return New(1, LX)
			}
			v = FromString(b.String())
		default:
			return New(1, LX)
		}
		if size > 0 {
			v = sizeTo(v, size)
		}
		return v
	}

	// bare bit strings are binary only when they could not be decimal,
	// i.e. when they contain x or z digits
	if isBitString(lit) && strings.IndexAny(lit, "xXzZ") >= 0 {
		return FromString(lit)
	}

	return FromUint(32, parseDec(lit))
}
