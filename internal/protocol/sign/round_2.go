package sign

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/broadcast"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceVerifyCommitments runs the broadcast sub-protocol over stage-1
// nonce commitments, derives every signer's binding value and the group
// nonce commitment R, and produces this party's partial signature (spec.md
// §4.4 stages 2-3).
func (s *State) AdvanceVerifyCommitments(received map[ceremony.PartyIndex]VerifyCommitment2) (Outbound, error) {
	vectors := make(map[int]map[int]Commitment1, len(received))
	for voter, msg := range received {
		inner := make(map[int]Commitment1, len(msg.Received))
		for sender, c := range msg.Received {
			inner[int(sender)] = c
		}
		vectors[int(voter)] = inner
	}

	agreedInt, blamedInt := broadcast.Verify(intIndices(s.params.Signers), vectors)
	if len(blamedInt) > 0 {
		return Outbound{}, Fault{Reason: "stage-1 nonce commitments were not consistently broadcast", Parties: toPartyIndices(blamedInt)}
	}

	agreed := make(map[ceremony.PartyIndex]Commitment1, len(agreedInt))
	for sender, c := range agreedInt {
		agreed[ceremony.PartyIndex(sender)] = c
	}

	rho := make(map[ceremony.PartyIndex]curve.Scalar, len(agreed))
	for idx := range agreed {
		rho[idx] = bindingValue(idx, s.params.MessageHash, agreed)
	}

	s.commitments = agreed
	s.rho = rho
	s.groupR = groupCommitment(agreed, rho)
	s.chal = challenge(s.groupR, s.params.Share.Y, s.params.MessageHash)
	s.stage = StageLocalSig

	lambda := lagrangeAtZero(s.params.OwnIndex, s.params.Signers)
	z := s.d.Add(s.rho[s.params.OwnIndex].Mul(s.e)).Add(lambda.Mul(s.params.Share.Xi).Mul(s.chal))

	return Outbound{To: nil, Msg: LocalSig3{Z: z}}, nil
}
