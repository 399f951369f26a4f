package schnorrzk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
)

func TestProveVerify(t *testing.T) {
	secret, err := curve.RandomScalar()
	require.NoError(t, err)
	public := curve.BaseMul(secret)

	var context [32]byte
	copy(context[:], []byte("ceremony-context"))

	proof, err := Prove(secret, public, context)
	require.NoError(t, err)
	require.True(t, Verify(public, proof, context))
}

func TestVerifyRejectsTamperedResponse(t *testing.T) {
	secret, err := curve.RandomScalar()
	require.NoError(t, err)
	public := curve.BaseMul(secret)

	var context [32]byte
	proof, err := Prove(secret, public, context)
	require.NoError(t, err)

	tampered := Proof{R: proof.R, S: proof.S.Add(curve.One())}
	require.False(t, Verify(public, tampered, context))
}

func TestVerifyRejectsWrongContext(t *testing.T) {
	secret, err := curve.RandomScalar()
	require.NoError(t, err)
	public := curve.BaseMul(secret)

	var context, other [32]byte
	copy(context[:], []byte("ceremony-1"))
	copy(other[:], []byte("ceremony-2"))

	proof, err := Prove(secret, public, context)
	require.NoError(t, err)
	require.False(t, Verify(public, proof, other))
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	secret, err := curve.RandomScalar()
	require.NoError(t, err)
	public := curve.BaseMul(secret)

	var context [32]byte
	proof, err := Prove(secret, public, context)
	require.NoError(t, err)

	other, err := curve.RandomScalar()
	require.NoError(t, err)
	require.False(t, Verify(curve.BaseMul(other), proof, context))
}
