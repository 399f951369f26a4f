package sign

import "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// AdvanceCommitments consumes the stage-1 nonce commitments received from
// every signer (including this party's own) and produces the stage-2
// broadcast: each party echoes the full vector it observed (spec.md §4.4
// stages 1-2).
func (s *State) AdvanceCommitments(received map[ceremony.PartyIndex]Commitment1) (Outbound, error) {
	s.stage = StageVerifyCommitments

	cp := make(map[ceremony.PartyIndex]Commitment1, len(received))
	for idx, c := range received {
		cp[idx] = c
	}

	return Outbound{To: nil, Msg: VerifyCommitment2{Received: cp}}, nil
}
