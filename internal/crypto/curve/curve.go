// Package curve wraps secp256k1 group arithmetic for the ceremony engine.
//
// All scalar and point types are thin wrappers around
// github.com/decred/dcrd/dcrec/secp256k1/v4's Jacobian representation, so
// that every other package in the module can work with curve elements
// without reaching for *big.Int coordinate pairs directly.
package curve

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Order is the order n of the secp256k1 group.
var Order = secp256k1.S256().N

// HalfOrderPlusOne is n/2 + 1, the contract-compatibility bound from
// spec.md §4.1: the external Key Manager contract encodes the aggregate
// public key's y-parity in a single bit and rejects keys whose
// x-coordinate falls in the upper half of the field.
var HalfOrderPlusOne = new(big.Int).Add(new(big.Int).Rsh(Order, 1), big.NewInt(1))

// Scalar is an element of Z_n.
type Scalar struct {
	s secp256k1.ModNScalar
}

// ScalarFromBigInt reduces x modulo the group order.
func ScalarFromBigInt(x *big.Int) Scalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(new(big.Int).Mod(x, Order).Bytes())
	return Scalar{s: s}
}

// ScalarFromBytes interprets b as a big-endian integer reduced mod n.
func ScalarFromBytes(b []byte) Scalar {
	return ScalarFromBigInt(new(big.Int).SetBytes(b))
}

// RandomScalar draws a uniform element of Z_n.
func RandomScalar() (Scalar, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return Scalar{}, err
	}
	return ScalarFromBytes(buf), nil
}

// Bytes returns the 32-byte big-endian encoding of the scalar.
func (s Scalar) Bytes() [32]byte {
	return s.s.Bytes()
}

// Int returns the scalar as a *big.Int, mostly for logging/serialisation.
func (s Scalar) Int() *big.Int {
	b := s.s.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// IsZero reports whether the scalar is the additive identity.
func (s Scalar) IsZero() bool { return s.s.IsZero() }

// Add returns s + other mod n.
func (s Scalar) Add(other Scalar) Scalar {
	r := s.s
	r.Add(&other.s)
	return Scalar{s: r}
}

// Mul returns s * other mod n.
func (s Scalar) Mul(other Scalar) Scalar {
	r := s.s
	r.Mul(&other.s)
	return Scalar{s: r}
}

// Negate returns -s mod n.
func (s Scalar) Negate() Scalar {
	r := s.s
	r.Negate()
	return Scalar{s: r}
}

// Inverse returns s^-1 mod n. Panics if s is zero.
func (s Scalar) Inverse() Scalar {
	if s.IsZero() {
		panic("curve: inverse of zero scalar")
	}
	r := s.s
	r.InverseValNonConst()
	return Scalar{s: r}
}

// PowInt returns s^k mod n for a small non-negative k (used for Feldman
// commitment evaluation, where k is a polynomial power, never the secret
// itself).
func PowInt(base Scalar, k int) Scalar {
	result := One()
	b := base
	for k > 0 {
		if k&1 == 1 {
			result = result.Mul(b)
		}
		b = b.Mul(b)
		k >>= 1
	}
	return result
}

// Zero returns the additive identity.
func Zero() Scalar { return Scalar{} }

// One returns the multiplicative identity.
func One() Scalar {
	var s secp256k1.ModNScalar
	s.SetInt(1)
	return Scalar{s: s}
}

// Equal reports whether two scalars are the same element of Z_n.
func (s Scalar) Equal(other Scalar) bool { return s.s.Equals(&other.s) }

// Point is an element of the secp256k1 group, held in Jacobian form.
type Point struct {
	p secp256k1.JacobianPoint
}

// Generator returns the base point G.
func Generator() Point {
	return BaseMul(One())
}

// Infinity returns the point at infinity (group identity).
func Infinity() Point {
	var p secp256k1.JacobianPoint
	p.X.SetInt(0)
	p.Y.SetInt(0)
	p.Z.SetInt(0)
	return Point{p: p}
}

// BaseMul computes s * G.
func BaseMul(s Scalar) Point {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.s, &r)
	return Point{p: r}
}

// Mul computes s * p.
func Mul(s Scalar, p Point) Point {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.s, &p.p, &r)
	return Point{p: r}
}

// Add computes p + q.
func Add(p, q Point) Point {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.p, &q.p, &r)
	return Point{p: r}
}

// IsInfinity reports whether p is the group identity.
func (p Point) IsInfinity() bool {
	var a secp256k1.JacobianPoint
	a.Set(&p.p)
	a.ToAffine()
	return (a.X.IsZero() && a.Y.IsZero())
}

// Equal reports whether two points represent the same affine element.
func (p Point) Equal(other Point) bool {
	a, b := p.p, other.p
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// Affine returns the affine (x, y) coordinates as big.Ints.
func (p Point) Affine() (x, y *big.Int) {
	a := p.p
	a.ToAffine()
	var xb, yb [32]byte
	xb = a.X.Bytes()
	yb = a.Y.Bytes()
	return new(big.Int).SetBytes(xb[:]), new(big.Int).SetBytes(yb[:])
}

// CompressedBytes returns the 33-byte SEC1-compressed encoding of p.
func (p Point) CompressedBytes() [33]byte {
	a := p.p
	a.ToAffine()
	pub := secp256k1.NewPublicKey(&a.X, &a.Y)
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out
}

// UncompressedBytes returns the 65-byte uncompressed encoding (0x04 || x || y),
// used as the pre-image for the on-chain nonce-commitment address derivation.
func (p Point) UncompressedBytes() [65]byte {
	a := p.p
	a.ToAffine()
	pub := secp256k1.NewPublicKey(&a.X, &a.Y)
	var out [65]byte
	copy(out[:], pub.SerializeUncompressed())
	return out
}

// PointFromCompressed parses a 33-byte SEC1-compressed point.
func PointFromCompressed(b []byte) (Point, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return Point{}, errors.New("curve: invalid compressed point: " + err.Error())
	}
	var jac secp256k1.JacobianPoint
	pub.AsJacobian(&jac)
	return Point{p: jac}, nil
}

// IsContractCompatible reports whether the point's x-coordinate is strictly
// less than n/2 + 1, the encoding the on-chain Key Manager contract
// requires (spec.md §4.1).
func IsContractCompatible(p Point) bool {
	x, _ := p.Affine()
	return x.Cmp(HalfOrderPlusOne) < 0
}
