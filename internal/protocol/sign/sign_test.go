package sign

import (
	"crypto/sha256"
	"testing"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

// independentChallenge reimplements c = H(addr(R), Y, msg) directly from
// the on-chain Key Manager contract's own recipe, without going through
// this package's challenge(): addr(R) is the low 20 bytes of
// keccak256(x(R) || y(R)), computed here with a fresh keccak256 call
// rather than curve.NonceAddress, so this test cannot pass merely because
// challenge() and NonceAddress agree with each other.
func independentChallenge(t *testing.T, r, y curve.Point, msgHash [32]byte) curve.Scalar {
	t.Helper()

	uncompressed := r.UncompressedBytes()
	k := sha3.NewLegacyKeccak256()
	k.Write(uncompressed[1:])
	digest := k.Sum(nil)

	var addr [20]byte
	copy(addr[:], digest[12:32])

	h := sha256.New()
	h.Write([]byte("frost-challenge"))
	h.Write(addr[:])
	yBytes := y.CompressedBytes()
	h.Write(yBytes[:])
	h.Write(msgHash[:])

	return curve.ScalarFromBytes(h.Sum(nil))
}

// runKeygen drives an n-party keygen with the given threshold to completion using the
// same simulated-network approach as internal/protocol/keygen's own
// tests, returning each party's Result.
func runKeygen(t *testing.T, n, threshold int) map[ceremony.PartyIndex]*keygen.Result {
	t.Helper()

	indices := make([]ceremony.PartyIndex, n)
	for i := range indices {
		indices[i] = ceremony.PartyIndex(i + 1)
	}

	states := make(map[ceremony.PartyIndex]*keygen.State, n)
	inbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]keygen.Message, n)
	for _, idx := range indices {
		inbox[idx] = make(map[ceremony.PartyIndex]keygen.Message, n)
	}

	deliver := func(from ceremony.PartyIndex, out keygen.Outbound) {
		recipients := out.To
		if recipients == nil {
			recipients = indices
		}
		for _, to := range recipients {
			inbox[to][from] = out.Msg
		}
	}

	for _, idx := range indices {
		s, out, err := keygen.New(keygen.Params{CeremonyID: 1, OwnIndex: idx, AllIndices: indices, Threshold: threshold})
		require.NoError(t, err)
		states[idx] = s
		deliver(idx, out)
	}

	var results map[ceremony.PartyIndex]*keygen.Result
	for round := 0; round < 6 && results == nil; round++ {
		nextInbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]keygen.Message, n)
		for _, idx := range indices {
			nextInbox[idx] = make(map[ceremony.PartyIndex]keygen.Message, n)
		}

		roundResults := make(map[ceremony.PartyIndex]*keygen.Result)
		for _, idx := range indices {
			outs, result, err := states[idx].Advance(inbox[idx])
			require.NoError(t, err)
			if result != nil {
				roundResults[idx] = result
				continue
			}
			for _, out := range outs {
				recipients := out.To
				if recipients == nil {
					recipients = indices
				}
				for _, to := range recipients {
					nextInbox[to][idx] = out.Msg
				}
			}
		}

		inbox = nextInbox
		if len(roundResults) == n {
			results = roundResults
		}
	}

	require.NotNil(t, results)
	return results
}

func TestSigningHappyPath(t *testing.T) {
	keygenResults := runKeygen(t, 3, 1)

	signers := []ceremony.PartyIndex{1, 2}
	partyPublicShares := keygenResults[1].PartyPublicShares
	aggKey := keygenResults[1].Share.Y

	var msgHash [32]byte
	copy(msgHash[:], []byte("the message to sign, padded out"))

	states := make(map[ceremony.PartyIndex]*State, len(signers))
	inbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]Message, len(signers))
	for _, idx := range signers {
		inbox[idx] = make(map[ceremony.PartyIndex]Message, len(signers))
	}

	deliver := func(from ceremony.PartyIndex, out Outbound) {
		recipients := out.To
		if recipients == nil {
			recipients = signers
		}
		for _, to := range recipients {
			inbox[to][from] = out.Msg
		}
	}

	for _, idx := range signers {
		params := Params{
			CeremonyID:        9,
			OwnIndex:          idx,
			Signers:           signers,
			Share:             keygenResults[idx].Share,
			PartyPublicShares: partyPublicShares,
			MessageHash:       msgHash,
		}
		s, out, err := New(params)
		require.NoError(t, err)
		states[idx] = s
		deliver(idx, out)
	}

	var signature *ceremony.Signature
	for round := 0; round < 4 && signature == nil; round++ {
		nextInbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]Message, len(signers))
		for _, idx := range signers {
			nextInbox[idx] = make(map[ceremony.PartyIndex]Message, len(signers))
		}

		for _, idx := range signers {
			outs, sig, err := states[idx].Advance(inbox[idx])
			require.NoError(t, err)
			if sig != nil {
				signature = sig
				continue
			}
			for _, out := range outs {
				recipients := out.To
				if recipients == nil {
					recipients = signers
				}
				for _, to := range recipients {
					nextInbox[to][idx] = out.Msg
				}
			}
		}
		inbox = nextInbox
	}

	require.NotNil(t, signature)

	// Verify the produced signature the way the on-chain Key Manager
	// contract would: z*G == R + c*Y, with c computed independently of
	// this package's own challenge()/NonceAddress implementations so the
	// check cannot pass merely by self-consistency.
	r, err := curve.PointFromCompressed(signature.R[:])
	require.NoError(t, err)
	z := curve.ScalarFromBytes(signature.S[:])
	c := independentChallenge(t, r, aggKey, msgHash)

	lhs := curve.BaseMul(z)
	rhs := curve.Add(r, curve.Mul(c, aggKey))
	require.True(t, lhs.Equal(rhs))
}
