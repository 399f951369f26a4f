package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceShares consumes the private secret shares received from every
// other party, verifies each against the sender's Feldman commitment, and
// broadcasts a complaint against every sender whose share failed
// verification (spec.md §4.1, §4.3 stages 3-4).
//
// A bad private share cannot be proven to third parties yet, so this stage
// never aborts outright: the complaint mechanism of stages 4-7 exists
// precisely to adjudicate this case publicly.
func (s *State) AdvanceShares(received map[ceremony.PartyIndex]SecretShare3) (Outbound, error) {
	s.incomingShares = make(map[ceremony.PartyIndex]curve.Scalar, len(received)+1)
	s.incomingShares[s.params.OwnIndex] = s.poly.EvaluateIndex(int(s.params.OwnIndex))

	var complaints []ceremony.PartyIndex
	for sender, share := range received {
		commitment := s.agreedComm[sender].VSS
		if polynomial.VerifyShare(share.Value, commitment, int(s.params.OwnIndex)) {
			s.incomingShares[sender] = share.Value
		} else {
			complaints = append(complaints, sender)
		}
	}

	s.ownComplaints = sortedIndices(complaints)
	s.stage = StageComplaints

	return Outbound{To: nil, Msg: Complaints4{Against: s.ownComplaints}}, nil
}
