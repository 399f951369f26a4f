package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// buildBlameResponse reveals, publicly, the share this party privately
// sent in stage 3 to every complainer whose agreed complaint names this
// party (spec.md §4.3 stage 6).
func (s *State) buildBlameResponse() Outbound {
	revealedTo := make(map[ceremony.PartyIndex]curve.Scalar)
	for complainer, c := range s.agreedComplaints {
		for _, blamed := range c.Against {
			if blamed == s.params.OwnIndex {
				revealedTo[complainer] = s.outgoingShares[complainer]
			}
		}
	}

	return Outbound{To: nil, Msg: BlameResponse6{RevealedTo: revealedTo}}
}

// AdvanceBlameResponse consumes the stage-6 blame responses received from
// every party and produces the stage-7 broadcast: each party reports back
// the full vector of BlameResponse6 it observed (spec.md §4.3 stages 6-7).
func (s *State) AdvanceBlameResponse(received map[ceremony.PartyIndex]BlameResponse6) (Outbound, error) {
	s.stage = StageVerifyBlameResponse

	cp := make(map[ceremony.PartyIndex]BlameResponse6, len(received))
	for idx, r := range received {
		cp[idx] = r
	}

	return Outbound{To: nil, Msg: VerifyBlameResponse7{Received: cp}}, nil
}
