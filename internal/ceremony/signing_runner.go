package ceremony

import (
	"sort"
	"time"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

type delayedSigningMessage struct {
	from pce.PartyIndex
	msg  sign.Message
}

type delayedPreAuthSigningMessage struct {
	from pce.AccountID
	msg  sign.Message
}

// SigningRunner mirrors KeygenRunner's lifecycle and buffering rules for
// the 4-stage FROST signing ceremony (spec.md §4.4, §4.5). It differs from
// KeygenRunner only in the shape of the state machine it drives and in
// requiring a KeygenResult up front, since signing always operates over an
// already-finalised key share.
type SigningRunner struct {
	id          pce.CeremonyID
	self        pce.AccountID
	stageBudget time.Duration

	lifecycle Lifecycle
	expiresAt time.Time

	preAuthBuffer []delayedPreAuthSigningMessage

	indexer *PartyIndexer
	state   *sign.State
	pending map[pce.PartyIndex]sign.Message
	delayed []delayedSigningMessage

	outcome *pce.SigningOutcome
}

// NewSigningRunner creates an unauthorised runner for ceremony id.
func NewSigningRunner(id pce.CeremonyID, self pce.AccountID, stageBudget time.Duration) *SigningRunner {
	return &SigningRunner{
		id:          id,
		self:        self,
		stageBudget: stageBudget,
		lifecycle:   Unauthorised,
		expiresAt:   time.Now().Add(stageBudget),
	}
}

// Lifecycle reports the runner's current phase.
func (r *SigningRunner) Lifecycle() Lifecycle { return r.lifecycle }

// Outcome returns the terminal outcome, if any.
func (r *SigningRunner) Outcome() (pce.SigningOutcome, bool) {
	if r.outcome == nil {
		return pce.SigningOutcome{}, false
	}
	return *r.outcome, true
}

// Authorise upgrades an unauthorised runner once the authorising layer
// approves req and a matching key share has been found in the KeyStore
// (spec.md §4.4, §4.7). share must be keyed by the same AccountID set
// referenced in the original keygen (KeygenResult.Parties), not req.Signers,
// since PartyPublicShares and Xi are only meaningful against the full
// keygen participant set's indexing.
func (r *SigningRunner) Authorise(req pce.SigningRequest, share pce.KeygenResult) []Envelope {
	if r.lifecycle != Unauthorised {
		return nil
	}

	keygenIndexer := NewPartyIndexer(share.Parties)
	ownIdx, ok := keygenIndexer.IndexOf(r.self)
	if !ok {
		r.abort(pce.AbortUnauthorised, nil)
		return nil
	}

	signers := make([]pce.PartyIndex, 0, len(req.Signers))
	for _, id := range req.Signers {
		idx, ok := keygenIndexer.IndexOf(id)
		if !ok {
			r.abort(pce.AbortUnauthorised, nil)
			return nil
		}
		signers = append(signers, idx)
	}

	ownIsSigner := false
	for _, idx := range signers {
		if idx == ownIdx {
			ownIsSigner = true
			break
		}
	}
	if !ownIsSigner {
		r.abort(pce.AbortUnauthorised, nil)
		return nil
	}

	r.indexer = keygenIndexer
	params := sign.Params{
		CeremonyID:        req.CeremonyID,
		OwnIndex:          ownIdx,
		Signers:           sortSignerIndices(signers),
		Share:             share.Share,
		PartyPublicShares: share.PartyPublicShares,
		MessageHash:       req.MessageHash,
	}

	state, out, err := sign.New(params)
	if err != nil {
		r.abort(pce.AbortInvalid, nil)
		return nil
	}

	r.state = state
	r.pending = map[pce.PartyIndex]sign.Message{ownIdx: out.Msg}
	r.lifecycle = Authorised
	r.expiresAt = time.Now().Add(r.stageBudget)

	envelopes := []Envelope{toAccountEnvelopes(r.indexer, r.id, out.To, out.Msg)}

	buffered := r.preAuthBuffer
	r.preAuthBuffer = nil
	for _, d := range buffered {
		envelopes = append(envelopes, r.deliverFromAccount(d.from, d.msg)...)
	}
	envelopes = append(envelopes, r.tryAdvance()...)

	return envelopes
}

func sortSignerIndices(indices []pce.PartyIndex) []pce.PartyIndex {
	out := make([]pce.PartyIndex, len(indices))
	copy(out, indices)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HandlePeerMessage feeds an incoming peer message into the runner,
// buffering it if authorisation has not yet happened locally.
func (r *SigningRunner) HandlePeerMessage(from pce.AccountID, msg sign.Message) []Envelope {
	if r.lifecycle == Terminal {
		return nil
	}
	if r.lifecycle == Unauthorised {
		r.preAuthBuffer = append(r.preAuthBuffer, delayedPreAuthSigningMessage{from: from, msg: msg})
		return nil
	}
	return r.deliverFromAccount(from, msg)
}

func (r *SigningRunner) deliverFromAccount(from pce.AccountID, msg sign.Message) []Envelope {
	idx, ok := r.indexer.IndexOf(from)
	if !ok {
		return nil
	}
	return r.deliver(idx, msg)
}

func (r *SigningRunner) deliver(from pce.PartyIndex, msg sign.Message) []Envelope {
	if r.lifecycle == Terminal {
		return nil
	}

	current := r.state.CurrentStage()
	switch {
	case msg.Stage() < current:
		return nil
	case msg.Stage() > current:
		r.delayed = append(r.delayed, delayedSigningMessage{from: from, msg: msg})
		return nil
	}

	if _, exists := r.pending[from]; exists {
		return nil
	}
	r.pending[from] = msg

	if len(r.pending) < len(r.state.Signers()) {
		return nil
	}

	return r.advance()
}

func (r *SigningRunner) advance() []Envelope {
	outs, signature, err := r.state.Advance(r.pending)
	if err != nil {
		if f, ok := err.(sign.Fault); ok {
			r.abort(pce.AbortInvalid, r.indexer.AccountsOf(f.Parties))
		} else {
			r.abort(pce.AbortInvalid, nil)
		}
		return nil
	}

	if signature != nil {
		r.finish(*signature)
		return nil
	}

	r.expiresAt = r.expiresAt.Add(r.stageBudget)
	r.pending = make(map[pce.PartyIndex]sign.Message, len(r.state.Signers()))

	envelopes := make([]Envelope, 0, len(outs))
	for _, out := range outs {
		envelopes = append(envelopes, toAccountEnvelopes(r.indexer, r.id, out.To, out.Msg))
		if out.To == nil {
			idx, _ := r.indexer.IndexOf(r.self)
			r.pending[idx] = out.Msg
		}
	}

	return append(envelopes, r.tryAdvance()...)
}

func (r *SigningRunner) tryAdvance() []Envelope {
	var out []Envelope
	for {
		if r.lifecycle == Terminal {
			return out
		}
		current := r.state.CurrentStage()

		var remaining []delayedSigningMessage
		progressed := false
		for _, d := range r.delayed {
			if d.msg.Stage() != current {
				remaining = append(remaining, d)
				continue
			}
			out = append(out, r.deliver(d.from, d.msg)...)
			progressed = true
		}
		r.delayed = remaining
		if !progressed {
			return out
		}
	}
}

func (r *SigningRunner) finish(signature pce.Signature) {
	outcome := pce.Success[pce.Signature](r.id, signature)
	r.lifecycle = Terminal
	r.outcome = &outcome
}

func (r *SigningRunner) abort(reason pce.AbortReason, blamed []pce.AccountID) {
	outcome := pce.Abort[pce.Signature](r.id, reason, blamed)
	r.lifecycle = Terminal
	r.outcome = &outcome
}

// TryExpire mirrors KeygenRunner.TryExpire for the signing ceremony.
func (r *SigningRunner) TryExpire(now time.Time) bool {
	if r.lifecycle == Terminal {
		return false
	}
	if r.expiresAt.After(now) {
		return false
	}

	if r.lifecycle == Unauthorised {
		r.abort(pce.AbortUnauthorised, nil)
		return true
	}

	var missing []pce.PartyIndex
	for _, idx := range r.state.Signers() {
		if _, ok := r.pending[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	r.abort(pce.AbortTimeout, r.indexer.AccountsOf(missing))
	return true
}
