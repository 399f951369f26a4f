// Package ceremony implements the per-ceremony state runner and the
// ceremony manager that multiplexes many concurrent ceremonies (spec.md
// §4.5, §5), grounded on the lifecycle split between a pre-authorisation
// and a post-authorisation state described in signing_state.rs
// (SigningStatePreKey / SigningStateWithKey) and on the dispatch loop of
// mod.rs (MultisigClient).
package ceremony

import (
	"sort"

	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// PartyIndexer is the bijection between AccountID and the 1-based
// PartyIndex local to one ceremony (spec.md §3): parties are numbered by
// sorting the participant set lexicographically.
type PartyIndexer struct {
	sorted  []pce.AccountID
	indices map[pce.AccountID]pce.PartyIndex
}

// NewPartyIndexer builds the bijection for one ceremony's participant set.
func NewPartyIndexer(participants []pce.AccountID) *PartyIndexer {
	sorted := pce.SortAccountIDs(participants)
	indices := make(map[pce.AccountID]pce.PartyIndex, len(sorted))
	for i, id := range sorted {
		indices[id] = pce.PartyIndex(i + 1)
	}
	return &PartyIndexer{sorted: sorted, indices: indices}
}

// IndexOf returns the PartyIndex for id, or false if id did not
// participate in this ceremony.
func (p *PartyIndexer) IndexOf(id pce.AccountID) (pce.PartyIndex, bool) {
	idx, ok := p.indices[id]
	return idx, ok
}

// AccountOf returns the AccountID for a PartyIndex.
func (p *PartyIndexer) AccountOf(idx pce.PartyIndex) (pce.AccountID, bool) {
	i := int(idx) - 1
	if i < 0 || i >= len(p.sorted) {
		return pce.AccountID{}, false
	}
	return p.sorted[i], true
}

// AllIndices returns every PartyIndex in this ceremony, sorted.
func (p *PartyIndexer) AllIndices() []pce.PartyIndex {
	out := make([]pce.PartyIndex, len(p.sorted))
	for i := range p.sorted {
		out[i] = pce.PartyIndex(i + 1)
	}
	return out
}

// AccountsOf translates a set of PartyIndex values (e.g. a blamed set) to
// AccountIDs, sorted for deterministic output.
func (p *PartyIndexer) AccountsOf(indices []pce.PartyIndex) []pce.AccountID {
	out := make([]pce.AccountID, 0, len(indices))
	for _, idx := range indices {
		if id, ok := p.AccountOf(idx); ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
