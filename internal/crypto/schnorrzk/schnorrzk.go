// Package schnorrzk implements the Schnorr-style zero-knowledge proof of
// knowledge of a discrete logarithm used by keygen stage 1 (spec.md §4.1,
// §4.3): a party proves it knows a_0 such that A_0 = a_0*G, binding the
// proof to a keygen context so a commitment captured in one ceremony can
// never be replayed as valid in another.
package schnorrzk

import (
	"crypto/sha256"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
)

// Proof is a non-interactive Schnorr proof of knowledge (Fiat-Shamir).
type Proof struct {
	R curve.Point  // commitment R = k*G
	S curve.Scalar // response s = k + e*secret
}

// Prove generates a proof that the caller knows `secret` such that
// `public = secret*G`, bound to `context` (spec.md §9: the context must be
// derived deterministically from the ceremony id alone).
func Prove(secret curve.Scalar, public curve.Point, context [32]byte) (Proof, error) {
	k, err := curve.RandomScalar()
	if err != nil {
		return Proof{}, err
	}

	r := curve.BaseMul(k)
	e := challenge(context, public, r)

	s := k.Add(e.Mul(secret))

	return Proof{R: r, S: s}, nil
}

// Verify checks a proof against the claimed public point and context.
func Verify(public curve.Point, proof Proof, context [32]byte) bool {
	e := challenge(context, public, proof.R)

	// s*G == R + e*public
	lhs := curve.BaseMul(proof.S)
	rhs := curve.Add(proof.R, curve.Mul(e, public))
	return lhs.Equal(rhs)
}

// challenge computes e = H(context || public || R) mod n.
func challenge(context [32]byte, public, r curve.Point) curve.Scalar {
	h := sha256.New()
	h.Write(context[:])
	pubBytes := public.CompressedBytes()
	h.Write(pubBytes[:])
	rBytes := r.CompressedBytes()
	h.Write(rBytes[:])

	return curve.ScalarFromBytes(h.Sum(nil))
}
