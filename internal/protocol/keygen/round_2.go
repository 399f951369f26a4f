package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/schnorrzk"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/broadcast"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceVerifyCommit runs the broadcast sub-protocol over stage-1
// commitments, checks each agreed commitment's Schnorr proof, and enforces
// the Key Manager contract's compatibility bound on the aggregate public
// key before any secret material is exchanged (spec.md §4.1, §4.3 stage 2).
//
// A contract-incompatible key aborts with an empty blame set: nobody
// misbehaved, the ceremony should simply be retried with a fresh context.
func (s *State) AdvanceVerifyCommit(received map[ceremony.PartyIndex]VerifyComm2) ([]Outbound, error) {
	vectors := make(map[int]map[int]Comm1, len(received))
	for voter, msg := range received {
		inner := make(map[int]Comm1, len(msg.Received))
		for sender, c := range msg.Received {
			inner[int(sender)] = c
		}
		vectors[int(voter)] = inner
	}

	agreedInt, blamedInt := broadcast.Verify(intIndices(s.params.AllIndices), vectors)
	if len(blamedInt) > 0 {
		return nil, Fault{Reason: "stage-1 commitments were not consistently broadcast", Parties: toPartyIndices(blamedInt)}
	}

	agreed := make(map[ceremony.PartyIndex]Comm1, len(agreedInt))
	for sender, c := range agreedInt {
		agreed[ceremony.PartyIndex(sender)] = c
	}

	var invalidProof []ceremony.PartyIndex
	for idx, c := range agreed {
		if !schnorrzk.Verify(c.VSS.Points[0], c.Proof, s.context) {
			invalidProof = append(invalidProof, idx)
		}
	}
	if len(invalidProof) > 0 {
		return nil, Fault{Reason: "invalid proof of knowledge of sharing-polynomial secret", Parties: sortedIndices(invalidProof)}
	}

	var wrongDegree []ceremony.PartyIndex
	for idx, c := range agreed {
		if c.VSS.Degree() != s.params.Threshold {
			wrongDegree = append(wrongDegree, idx)
		}
	}
	if len(wrongDegree) > 0 {
		return nil, Fault{Reason: "sharing-polynomial commitment has the wrong degree", Parties: sortedIndices(wrongDegree)}
	}

	aggPub := aggregatePublicKey(agreed)
	if !curve.IsContractCompatible(aggPub) {
		return nil, Fault{Reason: "aggregate public key is not contract compatible", Parties: nil}
	}

	s.agreedComm = agreed
	s.outgoingShares = make(map[ceremony.PartyIndex]curve.Scalar, len(s.params.AllIndices)-1)
	s.stage = StageShares

	var out []Outbound
	for _, recipient := range otherIndices(s.params.AllIndices, s.params.OwnIndex) {
		share := s.poly.EvaluateIndex(int(recipient))
		s.outgoingShares[recipient] = share
		out = append(out, Outbound{To: []ceremony.PartyIndex{recipient}, Msg: SecretShare3{Value: share}})
	}

	return out, nil
}

func toPartyIndices(ints []int) []ceremony.PartyIndex {
	out := make([]ceremony.PartyIndex, len(ints))
	for i, v := range ints {
		out[i] = ceremony.PartyIndex(v)
	}
	return out
}
