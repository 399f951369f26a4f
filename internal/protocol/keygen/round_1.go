package keygen

import "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// AdvanceCommitBroadcast consumes the stage-1 commitments received from
// every party (including this party's own, inserted by the runner) and
// produces the stage-2 broadcast: each party reports back the full vector
// of Comm1 values it observed, so equivocation can be detected (spec.md
// §4.2, §4.3 stage 2).
func (s *State) AdvanceCommitBroadcast(received map[ceremony.PartyIndex]Comm1) (Outbound, error) {
	s.stage = StageVerifyCommit

	cp := make(map[ceremony.PartyIndex]Comm1, len(received))
	for idx, c := range received {
		cp[idx] = c
	}

	return Outbound{To: nil, Msg: VerifyComm2{Received: cp}}, nil
}
