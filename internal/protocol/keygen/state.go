package keygen

import (
	"sort"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/context"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/schnorrzk"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Fault reports a protocol-level failure local to this package, in terms of
// the PartyIndex values keygen works with. The ceremony runner translates
// it into an aborted Outcome blaming the matching AccountIDs, since keygen itself
// has no notion of AccountID (spec.md §3: PartyIndex is an internal,
// per-ceremony concept).
type Fault struct {
	Reason  string
	Parties []ceremony.PartyIndex
}

func (f Fault) Error() string { return f.Reason }

// Result is the local output of a successful keygen run, before the
// runner attaches the AccountID set that produced it.
type Result struct {
	Share             ceremony.KeyShare
	PartyPublicShares map[ceremony.PartyIndex]curve.Point
}

// State drives one party's view of the 7-stage keygen ceremony (spec.md
// §4.3). Each stage's processing function consumes a completed round's
// messages and emits either the next stage's outbound messages, a Result,
// or a Fault. The caller (internal/ceremony.KeygenRunner) is responsible for
// buffering messages that arrive before their stage and driving Advance
// once a stage's full message set is available.
type State struct {
	params  Params
	stage   Stage
	context [32]byte

	poly       *polynomial.Polynomial
	commitment polynomial.Commitment
	proof      schnorrzk.Proof

	agreedComm     map[ceremony.PartyIndex]Comm1
	outgoingShares map[ceremony.PartyIndex]curve.Scalar
	incomingShares map[ceremony.PartyIndex]curve.Scalar

	ownComplaints    []ceremony.PartyIndex
	agreedComplaints map[ceremony.PartyIndex]Complaints4
}

func otherIndices(all []ceremony.PartyIndex, self ceremony.PartyIndex) []ceremony.PartyIndex {
	out := make([]ceremony.PartyIndex, 0, len(all)-1)
	for _, idx := range all {
		if idx != self {
			out = append(out, idx)
		}
	}
	return out
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

// aggregatePublicKey sums the constant-term commitments of every agreed
// VSS commitment: Y = sum_j A_{j,0}.
func aggregatePublicKey(agreed map[ceremony.PartyIndex]Comm1) curve.Point {
	y := curve.Infinity()
	for _, c := range agreed {
		y = curve.Add(y, c.VSS.Points[0])
	}
	return y
}

// partyPublicShares computes, for every party index k, its complete public
// share X_k = sum_j( Evaluate(agreed[j].VSS, k) ) (spec.md §4.3,
// "PartyPublicShares" in ceremony.KeygenResult).
func partyPublicShares(all []ceremony.PartyIndex, agreed map[ceremony.PartyIndex]Comm1) map[ceremony.PartyIndex]curve.Point {
	out := make(map[ceremony.PartyIndex]curve.Point, len(all))
	for _, k := range all {
		share := curve.Infinity()
		for _, c := range agreed {
			share = curve.Add(share, c.VSS.Evaluate(int(k)))
		}
		out[k] = share
	}
	return out
}

func finalize(params Params, agreedComm map[ceremony.PartyIndex]Comm1, incomingShares map[ceremony.PartyIndex]curve.Scalar) Result {
	xi := incomingShares[params.OwnIndex]
	for idx, s := range incomingShares {
		if idx == params.OwnIndex {
			continue
		}
		xi = xi.Add(s)
	}

	return Result{
		Share: ceremony.KeyShare{
			Y:  aggregatePublicKey(agreedComm),
			Xi: xi,
		},
		PartyPublicShares: partyPublicShares(params.AllIndices, agreedComm),
	}
}

// New begins a keygen run: it samples this party's sharing polynomial and
// its ZK proof of knowledge of the constant term, bound to the ceremony's
// keygen context, and returns the stage-1 broadcast (spec.md §4.3 stage 1).
func New(params Params) (*State, Outbound, error) {
	ctx := context.DeriveKeygenContext(uint64(params.CeremonyID))

	poly, err := polynomial.New(params.Threshold, nil)
	if err != nil {
		return nil, Outbound{}, err
	}

	commitment := polynomial.CommitmentOf(poly)

	proof, err := schnorrzk.Prove(poly.Coefficients[0], commitment.Points[0], ctx)
	if err != nil {
		return nil, Outbound{}, err
	}

	s := &State{
		params:     params,
		stage:      StageCommitBroadcast,
		context:    ctx,
		poly:       poly,
		commitment: commitment,
		proof:      proof,
	}

	return s, Outbound{To: nil, Msg: Comm1{VSS: commitment, Proof: proof}}, nil
}
