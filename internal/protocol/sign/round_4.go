package sign

import (
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/broadcast"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceVerifyLocalSig runs the broadcast sub-protocol over stage-3
// partial signatures. If broadcast consistency holds and the stage-3
// group-equation check (recorded in s.validity) passed for every signer,
// the final signature is assembled as sigma = sum_i z_i; otherwise every
// signer whose partial signature failed its group-equation check is
// blamed (spec.md §4.4 stage 4).
func (s *State) AdvanceVerifyLocalSig(received map[ceremony.PartyIndex]VerifyLocalSig4) (*ceremony.Signature, error) {
	vectors := make(map[int]map[int]LocalSig3, len(received))
	for voter, msg := range received {
		inner := make(map[int]LocalSig3, len(msg.Received))
		for sender, l := range msg.Received {
			inner[int(sender)] = l
		}
		vectors[int(voter)] = inner
	}

	agreedInt, blamedInt := broadcast.Verify(intIndices(s.params.Signers), vectors)
	if len(blamedInt) > 0 {
		return nil, Fault{Reason: "stage-3 partial signatures were not consistently broadcast", Parties: toPartyIndices(blamedInt)}
	}

	var invalid []ceremony.PartyIndex
	for sender := range agreedInt {
		idx := ceremony.PartyIndex(sender)
		if !s.validity[idx] {
			invalid = append(invalid, idx)
		}
	}
	if len(invalid) > 0 {
		return nil, Fault{Reason: "partial signature failed group-equation check", Parties: sortedIndices(invalid)}
	}

	sigma := agreedInt[int(s.params.Signers[0])].Z
	for _, idx := range s.params.Signers[1:] {
		sigma = sigma.Add(agreedInt[int(idx)].Z)
	}

	sBytes := sigma.Bytes()
	rBytes := s.groupR.CompressedBytes()

	return &ceremony.Signature{S: sBytes, R: rBytes}, nil
}
