package benchmark

import (
	"testing"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	"github.com/chainflip-io/multisig-ceremony/internal/wire"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// runKeygen drives an n-party, given-threshold keygen to completion using
// a direct in-memory message exchange (no runner, no transport), isolating
// the benchmark to the protocol's own cryptographic cost.
func runKeygen(b *testing.B, n, threshold int) map[ceremony.PartyIndex]*keygen.Result {
	b.Helper()

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
		if err != nil {
			b.Fatal(err)
		}
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
			if err != nil {
				b.Fatal(err)
			}
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

	if results == nil {
		b.Fatal("keygen did not finalise within the expected number of rounds")
	}
	return results
}

// runSigning drives a signing ceremony among signers to completion, given
// each signer's keygen.Result.
func runSigning(b *testing.B, signers []ceremony.PartyIndex, keyData map[ceremony.PartyIndex]*keygen.Result, msgHash [32]byte, ceremonyID ceremony.CeremonyID) *ceremony.Signature {
	b.Helper()

	states := make(map[ceremony.PartyIndex]*sign.State, len(signers))
	inbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]sign.Message, len(signers))
	for _, idx := range signers {
		inbox[idx] = make(map[ceremony.PartyIndex]sign.Message, len(signers))
	}

	deliver := func(from ceremony.PartyIndex, out sign.Outbound) {
		recipients := out.To
		if recipients == nil {
			recipients = signers
		}
		for _, to := range recipients {
			inbox[to][from] = out.Msg
		}
	}

	for _, idx := range signers {
		params := sign.Params{
			CeremonyID:        ceremonyID,
			OwnIndex:          idx,
			Signers:           signers,
			Share:             keyData[idx].Share,
			PartyPublicShares: keyData[idx].PartyPublicShares,
			MessageHash:       msgHash,
		}
		s, out, err := sign.New(params)
		if err != nil {
			b.Fatal(err)
		}
		states[idx] = s
		deliver(idx, out)
	}

	var signature *ceremony.Signature
	for round := 0; round < 4 && signature == nil; round++ {
		nextInbox := make(map[ceremony.PartyIndex]map[ceremony.PartyIndex]sign.Message, len(signers))
		for _, idx := range signers {
			nextInbox[idx] = make(map[ceremony.PartyIndex]sign.Message, len(signers))
		}

		for _, idx := range signers {
			outs, sig, err := states[idx].Advance(inbox[idx])
			if err != nil {
				b.Fatal(err)
			}
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

	if signature == nil {
		b.Fatal("signing did not finalise within the expected number of rounds")
	}
	return signature
}

// BenchmarkKeygen3of3 measures a full 3-party, threshold-1 keygen run.
func BenchmarkKeygen3of3(b *testing.B) {
	for i := 0; i < b.N; i++ {
		runKeygen(b, 3, 1)
	}
}

// BenchmarkKeygen10of10 measures keygen at a larger committee size, where
// the broadcast-verification and polynomial-evaluation costs scale with
// n^2.
func BenchmarkKeygen10of10(b *testing.B) {
	for i := 0; i < b.N; i++ {
		runKeygen(b, 10, 6)
	}
}

// BenchmarkSign2of3 measures a 2-of-3 FROST signing run, reusing one
// keygen result across every iteration since signing cost should not
// depend on how the key was generated.
func BenchmarkSign2of3(b *testing.B) {
	keyData := runKeygen(b, 3, 1)
	signers := []ceremony.PartyIndex{1, 2}
	var msgHash [32]byte
	copy(msgHash[:], []byte("benchmark message, padded to 32"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runSigning(b, signers, keyData, msgHash, ceremony.CeremonyID(i+1))
	}
}

// BenchmarkSign7of10 measures signing at a larger threshold (t=6, so 7
// signers), where the Lagrange-interpolation and broadcast-verification
// costs scale with the signer-set size.
func BenchmarkSign7of10(b *testing.B) {
	keyData := runKeygen(b, 10, 6)
	signers := make([]ceremony.PartyIndex, 7)
	for i := range signers {
		signers[i] = ceremony.PartyIndex(i + 1)
	}
	var msgHash [32]byte
	copy(msgHash[:], []byte("benchmark message, padded to 32"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runSigning(b, signers, keyData, msgHash, ceremony.CeremonyID(i+1))
	}
}

// BenchmarkWireRoundTripComm1 measures the cost of serialising and
// deserialising a single stage-1 keygen broadcast, the smallest and most
// frequently sent envelope on the wire.
func BenchmarkWireRoundTripComm1(b *testing.B) {
	_, out, err := keygen.New(keygen.Params{
		CeremonyID: 1,
		OwnIndex:   1,
		AllIndices: []ceremony.PartyIndex{1, 2, 3},
		Threshold:  1,
	})
	if err != nil {
		b.Fatal(err)
	}
	comm1 := out.Msg.(keygen.Comm1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		env, err := wire.EncodeKeygen(ceremony.CeremonyID(i), comm1)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := wire.DecodeKeygen(env); err != nil {
			b.Fatal(err)
		}
	}
}
