package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/broadcast"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// complainersOf returns the set of parties whose agreed stage-4 complaint
// named accused.
func (s *State) complainersOf(accused ceremony.PartyIndex) map[ceremony.PartyIndex]bool {
	out := make(map[ceremony.PartyIndex]bool)
	for complainer, c := range s.agreedComplaints {
		for _, blamed := range c.Against {
			if blamed == accused {
				out[complainer] = true
			}
		}
	}
	return out
}

// AdvanceVerifyBlameResponse runs the broadcast sub-protocol over stage-6
// blame responses and adjudicates every agreed stage-4 complaint
// (spec.md §4.1, §4.3 stage 7):
//
//   - an accused sender's RevealedTo set must match, recipient for
//     recipient, exactly the set of parties whose agreed complaint named
//     it — any extra or missing entry blames the sender;
//   - a revealed share that fails Feldman verification blames the
//     sender;
//   - a revealed share that verifies correctly proves the complaint
//     against that sender was false, so the originating complainer is
//     blamed as a lying accuser instead, and this party corrects its own
//     record of the disputed share where it was itself the complainer.
func (s *State) AdvanceVerifyBlameResponse(received map[ceremony.PartyIndex]VerifyBlameResponse7) (*Result, error) {
	vectors := make(map[int]map[int]BlameResponse6, len(received))
	for voter, msg := range received {
		inner := make(map[int]BlameResponse6, len(msg.Received))
		for sender, r := range msg.Received {
			inner[int(sender)] = r
		}
		vectors[int(voter)] = inner
	}

	agreedInt, blamedInt := broadcast.Verify(intIndices(s.params.AllIndices), vectors)
	if len(blamedInt) > 0 {
		return nil, Fault{Reason: "stage-6 blame responses were not consistently broadcast", Parties: toPartyIndices(blamedInt)}
	}

	badSenders := make(map[ceremony.PartyIndex]bool)
	badAccusers := make(map[ceremony.PartyIndex]bool)

	for senderInt, response := range agreedInt {
		sender := ceremony.PartyIndex(senderInt)
		commitment := s.agreedComm[sender].VSS
		expected := s.complainersOf(sender)

		if len(response.RevealedTo) != len(expected) {
			badSenders[sender] = true
			continue
		}
		mismatch := false
		for complainer := range expected {
			if _, ok := response.RevealedTo[complainer]; !ok {
				mismatch = true
				break
			}
		}
		if mismatch {
			badSenders[sender] = true
			continue
		}

		for dest, share := range response.RevealedTo {
			if !polynomial.VerifyShare(share, commitment, int(dest)) {
				badSenders[sender] = true
				continue
			}
			if dest == s.params.OwnIndex {
				s.incomingShares[sender] = share
			}
			badAccusers[dest] = true
		}
	}

	if len(badSenders) > 0 {
		return nil, Fault{Reason: "revealed blame-response share failed Feldman verification or did not match the agreed complaint set", Parties: sortedIndices(mapKeys(badSenders))}
	}
	if len(badAccusers) > 0 {
		return nil, Fault{Reason: "complaint was false: accused party's revealed share verified correctly", Parties: sortedIndices(mapKeys(badAccusers))}
	}

	result := finalize(s.params, s.agreedComm, s.incomingShares)
	return &result, nil
}

func mapKeys(m map[ceremony.PartyIndex]bool) []ceremony.PartyIndex {
	out := make([]ceremony.PartyIndex, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
