package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/broadcast"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceVerifyComplaints runs the broadcast sub-protocol over stage-4
// complaints. If every party's agreed complaint list is empty, the
// ceremony finalises immediately. Otherwise each complaint is validated
// for well-formedness (no duplicate or out-of-range indices); a
// malformed complaint blames its author outright, since the recipient's
// share hasn't been revealed and thus can't itself be at fault yet. A
// well-formed complaint set proceeds to the public blame-response round
// (spec.md §4.3 stages 5-6).
func (s *State) AdvanceVerifyComplaints(received map[ceremony.PartyIndex]VerifyComplaints5) (*Outbound, *Result, error) {
	vectors := make(map[int]map[int]Complaints4, len(received))
	for voter, msg := range received {
		inner := make(map[int]Complaints4, len(msg.Received))
		for sender, c := range msg.Received {
			inner[int(sender)] = c
		}
		vectors[int(voter)] = inner
	}

	agreedInt, blamedInt := broadcast.Verify(intIndices(s.params.AllIndices), vectors)
	if len(blamedInt) > 0 {
		return nil, nil, Fault{Reason: "stage-4 complaints were not consistently broadcast", Parties: toPartyIndices(blamedInt)}
	}

	agreed := make(map[ceremony.PartyIndex]Complaints4, len(agreedInt))
	allEmpty := true
	for sender, c := range agreedInt {
		agreed[ceremony.PartyIndex(sender)] = c
		if len(c.Against) > 0 {
			allEmpty = false
		}
	}

	if allEmpty {
		result := finalize(s.params, s.agreedComm, s.incomingShares)
		return nil, &result, nil
	}

	validIdx := make(map[ceremony.PartyIndex]bool, len(s.params.AllIndices))
	for _, idx := range s.params.AllIndices {
		validIdx[idx] = true
	}

	var malformed []ceremony.PartyIndex
	for complainer, c := range agreed {
		seen := make(map[ceremony.PartyIndex]bool, len(c.Against))
		bad := false
		for _, blamed := range c.Against {
			if seen[blamed] || !validIdx[blamed] {
				bad = true
			}
			seen[blamed] = true
		}
		if bad {
			malformed = append(malformed, complainer)
		}
	}

	if len(malformed) > 0 {
		return nil, nil, Fault{Reason: "malformed complaint (duplicate or out-of-range index)", Parties: sortedIndices(malformed)}
	}

	s.agreedComplaints = agreed
	s.stage = StageBlameResponse

	out := s.buildBlameResponse()
	return &out, nil, nil
}
