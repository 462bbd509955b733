package yenc

import (
	"hash/crc32"
	mbits "math/bits"
)

// CRC32 computes the IEEE ("zip") CRC32 of buf, continuing from init
// (pass 0 to start a new stream). It is the single primitive everything
// else in this file is built from.
func CRC32(buf []byte, init uint32) uint32 {
	return crc32.Update(init, crc32.IEEETable, buf)
}

// The CRC is a linear function of its input over GF(2): advancing the CRC
// register by one zero bit is exactly "multiply by x modulo P(x)" in the
// reflected representation zlib and this package use. That's what lets
// Combine stitch two CRCs together without rescanning either byte
// sequence, and it's the same gf2 matrix-squaring technique zlib's own
// crc32_combine and the crcutil library behind original_source/src/crc32.cc
// use — "multiply by x" is linear, so "advance by k bits" is a matrix, and
// matrices for power-of-two bit counts compose by squaring.

// multiplicativeOrder is the order of x in GF(2)[x]/P(x) for the
// reflected CRC-32 polynomial: x^order == 1 mod P(x). Per spec, exponents
// passed to Pow2/Pow256 are taken modulo this value.
const multiplicativeOrder = 0xffffffff

// gf2MatrixTimes applies a GF(2) matrix (32 columns, column i given by
// mat[i] = M*e_i) to a vector.
func gf2MatrixTimes(mat *[32]uint32, vec uint32) uint32 {
	var sum uint32
	for i := 0; vec != 0; i++ {
		if vec&1 != 0 {
			sum ^= mat[i]
		}
		vec >>= 1
	}
	return sum
}

// gf2Compose returns the matrix for "apply b, then apply a" (a ∘ b).
func gf2Compose(a, b *[32]uint32) [32]uint32 {
	var out [32]uint32
	for i := 0; i < 32; i++ {
		out[i] = gf2MatrixTimes(a, b[i])
	}
	return out
}

func gf2Identity() [32]uint32 {
	var id [32]uint32
	for i := range id {
		id[i] = 1 << uint(i)
	}
	return id
}

// oneBitShiftMatrix is the companion matrix of the reflected CRC-32
// polynomial: applying it once is exactly one LFSR step with no input
// byte, i.e. "multiply the CRC register by x mod P(x)".
func oneBitShiftMatrix() [32]uint32 {
	var m [32]uint32
	m[0] = 0xedb88320
	row := uint32(1)
	for i := 1; i < 32; i++ {
		m[i] = row
		row <<= 1
	}
	return m
}

// gf2MatrixPow raises a GF(2) matrix to the e-th power via square-and-
// multiply, O(log e) matrix compositions.
func gf2MatrixPow(base [32]uint32, e uint64) [32]uint32 {
	result := gf2Identity()
	cur := base
	for e > 0 {
		if e&1 != 0 {
			result = gf2Compose(&cur, &result)
		}
		e >>= 1
		if e == 0 {
			break
		}
		cur = gf2Compose(&cur, &cur)
	}
	return result
}

// shiftBitsMatrix returns the matrix that advances a CRC register by an
// exact (not power-of-two) number of zero bits.
func shiftBitsMatrix(bits uint64) [32]uint32 {
	return gf2MatrixPow(oneBitShiftMatrix(), bits)
}

// modexp2 computes 2^n mod multiplicativeOrder, used to turn the
// "2^n-bit shift" Pow2/Pow256 ask into a concrete bit count small enough
// to exponentiate directly.
func modexp2(n uint) uint64 {
	const m = uint64(multiplicativeOrder)
	e := uint64(n) % m
	result := uint64(1)
	base := uint64(2) % m
	for e > 0 {
		if e&1 != 0 {
			result = (result * base) % m
		}
		base = (base * base) % m
		e >>= 1
	}
	return result
}

// Pow2 returns x^(2^n) mod P(x), the CRC-register transform for advancing
// by 2^n zero bits. n is interpreted modulo the multiplicative order of
// the polynomial, per spec. The result has bit i set for the x^i term,
// the form Multiply takes as its second operand.
func Pow2(n uint) uint32 {
	bits := modexp2(n)
	mat := shiftBitsMatrix(bits)
	return mbits.Reverse32(gf2MatrixTimes(&mat, 0x80000000))
}

// Pow256 returns x^(8*2^n) mod P(x), the CRC-register transform for
// advancing by 2^n zero bytes, in the same bit order as Pow2.
func Pow256(n uint) uint32 {
	bits := modexp2(n)
	mat := shiftBitsMatrix(bits)
	// square the shift three times: (x^bits)^8 == x^(8*bits)
	mat = gf2Compose(&mat, &mat)
	mat = gf2Compose(&mat, &mat)
	mat = gf2Compose(&mat, &mat)
	return mbits.Reverse32(gf2MatrixTimes(&mat, 0x80000000))
}

// Multiply returns the GF(2)[x]/P(x) product of two CRC register values,
// matching crc32_multiply in the reference (crcutil's Multiply): treat b
// as a polynomial and accumulate a shifted by each of b's set bit
// positions, where "shift a by one bit" is the same LFSR step Pow2/Pow256
// are built from.
func Multiply(a, b uint32) uint32 {
	var product uint32
	av := a
	for i := 0; i < 32; i++ {
		if b&(1<<uint(i)) != 0 {
			product ^= av
		}
		if av&1 != 0 {
			av = (av >> 1) ^ 0xedb88320
		} else {
			av >>= 1
		}
	}
	return product
}

// Combine returns the CRC32 of the concatenation A‖B given crc(A), crc(B)
// and len(B), without rescanning either byte sequence:
//
//	combine(a, b, lenB) = (a advanced by 8*lenB zero bits) XOR b
func Combine(a, b uint32, lenB int64) uint32 {
	if lenB <= 0 {
		return a
	}
	mat := shiftBitsMatrix(uint64(lenB) * 8)
	return gf2MatrixTimes(&mat, a) ^ b
}

// ZeroUnpad reverses the effect of appending n zero bytes to a CRC
// computation: given crc(A ‖ zeros(n)), it returns crc(A). It is the
// algebraic inverse of Combine(a, CRC32(zeros(n), 0), n), exposed alongside
// combine/multiply/2pow/256pow as a supplemental primitive, trivial once
// the shift matrices above exist.
func ZeroUnpad(crc uint32, n int64) uint32 {
	if n <= 0 {
		return crc
	}
	zeros := CRC32(make([]byte, n), 0)
	shiftedA := crc ^ zeros

	bits := (uint64(n) * 8) % multiplicativeOrder
	invBits := (multiplicativeOrder - bits) % multiplicativeOrder
	mat := shiftBitsMatrix(invBits)
	return gf2MatrixTimes(&mat, shiftedA)
}
