package keygen

import "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// AdvanceComplaints consumes the stage-4 complaint lists received from
// every party and produces the stage-5 broadcast: each party reports back
// the full vector of Complaints4 it observed, so the broadcast
// sub-protocol can establish the agreed complaint set (spec.md §4.3 stages
// 4-5).
func (s *State) AdvanceComplaints(received map[ceremony.PartyIndex]Complaints4) (Outbound, error) {
	s.stage = StageVerifyComplaints

	cp := make(map[ceremony.PartyIndex]Complaints4, len(received))
	for idx, c := range received {
		cp[idx] = c
	}

	return Outbound{To: nil, Msg: VerifyComplaints5{Received: cp}}, nil
}
