package polynomial

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
)

func scalar(v int64) curve.Scalar {
	return curve.ScalarFromBigInt(big.NewInt(v))
}

func TestNew(t *testing.T) {
	t.Run("with random secret", func(t *testing.T) {
		poly, err := New(2, nil)
		require.NoError(t, err)
		require.Len(t, poly.Coefficients, 3)
	})

	t.Run("with provided secret", func(t *testing.T) {
		secret := scalar(12345)
		poly, err := New(2, &secret)
		require.NoError(t, err)
		require.True(t, poly.Coefficients[0].Equal(secret))
	})

	t.Run("degree 0", func(t *testing.T) {
		secret := scalar(999)
		poly, err := New(0, &secret)
		require.NoError(t, err)
		require.Len(t, poly.Coefficients, 1)
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("constant polynomial", func(t *testing.T) {
		poly := &Polynomial{Coefficients: []curve.Scalar{scalar(5)}}

		require.True(t, poly.Evaluate(scalar(0)).Equal(scalar(5)))
		require.True(t, poly.Evaluate(scalar(100)).Equal(scalar(5)))
	})

	t.Run("linear polynomial", func(t *testing.T) {
		// f(x) = 3 + 2x
		poly := &Polynomial{Coefficients: []curve.Scalar{scalar(3), scalar(2)}}

		require.True(t, poly.Evaluate(scalar(0)).Equal(scalar(3)))
		require.True(t, poly.Evaluate(scalar(1)).Equal(scalar(5)))
		require.True(t, poly.Evaluate(scalar(5)).Equal(scalar(13)))
	})

	t.Run("quadratic polynomial", func(t *testing.T) {
		// f(x) = 1 + 2x + 3x^2
		poly := &Polynomial{Coefficients: []curve.Scalar{scalar(1), scalar(2), scalar(3)}}

		require.True(t, poly.Evaluate(scalar(0)).Equal(scalar(1)))
		require.True(t, poly.Evaluate(scalar(1)).Equal(scalar(6)))
		require.True(t, poly.Evaluate(scalar(2)).Equal(scalar(17)))
		require.True(t, poly.Evaluate(scalar(3)).Equal(scalar(34)))
	})

	t.Run("modular reduction", func(t *testing.T) {
		// f(x) = (n-1) + 2x; f(1) should wrap to 1 mod n
		qMinus1 := curve.ScalarFromBigInt(new(big.Int).Sub(curve.Order, big.NewInt(1)))
		poly := &Polynomial{Coefficients: []curve.Scalar{qMinus1, scalar(2)}}

		require.True(t, poly.Evaluate(scalar(1)).Equal(scalar(1)))
	})
}

func TestFeldmanShareVerification(t *testing.T) {
	secret := scalar(42)
	poly, err := New(2, &secret)
	require.NoError(t, err)

	commitment := CommitmentOf(poly)
	require.Equal(t, 2, commitment.Degree())

	for i := 1; i <= 4; i++ {
		share := poly.EvaluateIndex(i)
		require.True(t, VerifyShare(share, commitment, i), "share for party %d should verify", i)
	}

	// A forged share must fail.
	forged := poly.EvaluateIndex(1).Add(scalar(1))
	require.False(t, VerifyShare(forged, commitment, 1))
}

func TestShamirSecretSharingViaLagrange(t *testing.T) {
	secret := scalar(42)
	poly, err := New(2, &secret) // degree 2: any 3 of the shares reconstruct the secret
	require.NoError(t, err)

	indices := []int{1, 2, 3}
	reconstructed := curve.Zero()
	for _, i := range indices {
		share := poly.EvaluateIndex(i)
		lambda := LagrangeCoefficient(i, indices)
		reconstructed = reconstructed.Add(share.Mul(lambda))
	}

	require.True(t, reconstructed.Equal(secret))
}
