// Package polynomial implements the Feldman VSS polynomial machinery shared
// by keygen (DKG) and signing (FROST): random polynomial generation,
// evaluation, commitment to the group, share verification against a
// commitment, and Lagrange interpolation at zero.
package polynomial

import (
	"math/big"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
)

// Polynomial is f(x) = a_0 + a_1*x + ... + a_t*x^t over Z_n.
type Polynomial struct {
	Coefficients []curve.Scalar
}

// New generates a random polynomial of the given degree. If secret is
// non-nil it becomes the constant term a_0 (used by keygen, where a_0 is
// each party's contribution to the joint secret); otherwise a_0 is random.
func New(degree int, secret *curve.Scalar) (*Polynomial, error) {
	coeffs := make([]curve.Scalar, degree+1)

	if secret != nil {
		coeffs[0] = *secret
	} else {
		s, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		coeffs[0] = s
	}

	for i := 1; i <= degree; i++ {
		s, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		coeffs[i] = s
	}

	return &Polynomial{Coefficients: coeffs}, nil
}

// indexScalar encodes a 1-based party index as a curve scalar.
func indexScalar(index int) curve.Scalar {
	return curve.ScalarFromBigInt(big.NewInt(int64(index)))
}

// Evaluate computes f(x) mod n via Horner's method.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	degree := len(p.Coefficients) - 1
	result := p.Coefficients[degree]
	for i := degree - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.Coefficients[i])
	}
	return result
}

// EvaluateIndex is a convenience wrapper evaluating at a 1-based party index.
func (p *Polynomial) EvaluateIndex(index int) curve.Scalar {
	return p.Evaluate(indexScalar(index))
}

// Commitment is the Feldman commitment to a polynomial: the group element
// C_k = a_k * G for every coefficient.
type Commitment struct {
	Points []curve.Point
}

// CommitmentOf computes the Feldman commitment to p.
func CommitmentOf(p *Polynomial) Commitment {
	points := make([]curve.Point, len(p.Coefficients))
	for i, c := range p.Coefficients {
		points[i] = curve.BaseMul(c)
	}
	return Commitment{Points: points}
}

// Evaluate computes the commitment polynomial evaluated in the group at a
// party index: sum_k( C_k * index^k ). Used to verify a received share
// without learning the sender's secret coefficients (spec.md §4.1).
func (c Commitment) Evaluate(index int) curve.Point {
	idx := indexScalar(index)

	result := curve.Infinity()
	for k, ck := range c.Points {
		term := curve.Mul(curve.PowInt(idx, k), ck)
		result = curve.Add(result, term)
	}
	return result
}

// Degree returns the polynomial degree t implied by the commitment (number
// of coefficients minus one).
func (c Commitment) Degree() int {
	return len(c.Points) - 1
}

// VerifyShare reports whether share*G equals the commitment polynomial of
// the sender evaluated at recipientIndex — the Feldman VSS consistency
// check from spec.md §4.1.
func VerifyShare(share curve.Scalar, commitment Commitment, recipientIndex int) bool {
	lhs := curve.BaseMul(share)
	rhs := commitment.Evaluate(recipientIndex)
	return lhs.Equal(rhs)
}

// LagrangeCoefficient computes lambda_i(0), the Lagrange basis polynomial
// for party `index` evaluated at 0, over the signer set `indices`. Used by
// FROST signing (spec.md §4.4) to combine per-party partial signatures into
// one valid under the aggregate key without ever reconstructing x.
func LagrangeCoefficient(index int, indices []int) curve.Scalar {
	numerator := curve.One()
	denominator := curve.One()

	xi := indexScalar(index)

	for _, j := range indices {
		if j == index {
			continue
		}
		xj := indexScalar(j)

		// numerator *= (0 - x_j) = -x_j
		numerator = numerator.Mul(xj.Negate())
		// denominator *= (x_i - x_j)
		denominator = denominator.Mul(xi.Add(xj.Negate()))
	}

	return numerator.Mul(denominator.Inverse())
}
