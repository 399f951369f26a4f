package ceremony

import pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// Envelope is the transport-facing unit the runner emits: a payload
// destined either for every other participant (To == nil) or a specific
// subset (private messages, e.g. keygen stage 3 shares). The wire codec
// (internal/wire) is responsible for actually serialising Payload.
type Envelope struct {
	CeremonyID pce.CeremonyID
	To         []pce.AccountID // nil means broadcast to every other participant
	Payload    any
}

func toAccountEnvelopes(indexer *PartyIndexer, ceremonyID pce.CeremonyID, to []pce.PartyIndex, payload any) Envelope {
	if to == nil {
		return Envelope{CeremonyID: ceremonyID, To: nil, Payload: payload}
	}
	return Envelope{CeremonyID: ceremonyID, To: indexer.AccountsOf(to), Payload: payload}
}
