package sign

import (
	"sort"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// lagrangeAtZero computes lambda_i(0) for signer `index` over the signer
// set `signers` (spec.md §4.4 stage 3).
func lagrangeAtZero(index ceremony.PartyIndex, signers []ceremony.PartyIndex) curve.Scalar {
	return polynomial.LagrangeCoefficient(int(index), intIndices(signers))
}

// Fault reports a protocol-level failure in terms of PartyIndex, the same
// way internal/protocol/keygen.Fault does; the ceremony runner translates
// it to AccountIDs.
type Fault struct {
	Reason  string
	Parties []ceremony.PartyIndex
}

func (f Fault) Error() string { return f.Reason }

// State drives one party's view of the 4-stage FROST signing ceremony
// (spec.md §4.4).
type State struct {
	params Params
	stage  Stage

	d, e curve.Scalar // this party's fresh nonce scalars
	ownD curve.Point
	ownE curve.Point

	commitments map[ceremony.PartyIndex]Commitment1
	rho         map[ceremony.PartyIndex]curve.Scalar
	groupR      curve.Point
	chal        curve.Scalar

	validity map[ceremony.PartyIndex]bool // per-signer result of the stage-3 group equation check
}

func sortedIndices(indices []ceremony.PartyIndex) []ceremony.PartyIndex {
	out := make([]ceremony.PartyIndex, len(indices))
	copy(out, indices)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func intIndices(indices []ceremony.PartyIndex) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = int(idx)
	}
	return out
}

func toPartyIndices(ints []int) []ceremony.PartyIndex {
	out := make([]ceremony.PartyIndex, len(ints))
	for i, v := range ints {
		out[i] = ceremony.PartyIndex(v)
	}
	return out
}

// New begins a signing run: it samples this party's nonce pair and
// returns the stage-1 broadcast (spec.md §4.4 stage 1).
func New(params Params) (*State, Outbound, error) {
	d, err := curve.RandomScalar()
	if err != nil {
		return nil, Outbound{}, err
	}
	e, err := curve.RandomScalar()
	if err != nil {
		return nil, Outbound{}, err
	}

	s := &State{
		params: params,
		stage:  StageCommitments,
		d:      d,
		e:      e,
		ownD:   curve.BaseMul(d),
		ownE:   curve.BaseMul(e),
	}

	return s, Outbound{To: nil, Msg: Commitment1{D: s.ownD, E: s.ownE}}, nil
}
