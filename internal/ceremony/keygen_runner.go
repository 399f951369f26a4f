package ceremony

import (
	"time"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Lifecycle is the three-phase state every ceremony runner moves through
// exactly once: Unauthorised while only peer messages (never a local
// request) have arrived, Authorised once the local authorising layer has
// approved this ceremony id, Terminal once an Outcome has been produced
// (spec.md §3, §5).
type Lifecycle int

const (
	Unauthorised Lifecycle = iota
	Authorised
	Terminal
)

// DefaultStageBudget is how long a single stage has to collect every
// participant's message before the ceremony aborts with AbortTimeout
// (spec.md §4.5), grounded on signing_state.rs's STAGE_DURATION constant.
const DefaultStageBudget = 15 * time.Second

type delayedKeygenMessage struct {
	from pce.PartyIndex
	msg  keygen.Message
}

type delayedPreAuthKeygenMessage struct {
	from pce.AccountID
	msg  keygen.Message
}

// KeygenRunner drives one keygen ceremony's lifecycle: buffering messages
// that arrive before authorisation or before their stage, running the
// keygen.State machine once authorised, and enforcing the per-stage timer
// (spec.md §4.5).
//
// It is not safe for concurrent use; the ceremony Manager serialises all
// access to a single runner.
type KeygenRunner struct {
	id          pce.CeremonyID
	self        pce.AccountID
	stageBudget time.Duration

	lifecycle Lifecycle
	expiresAt time.Time

	preAuthBuffer []delayedPreAuthKeygenMessage

	indexer *PartyIndexer
	state   *keygen.State
	pending map[pce.PartyIndex]keygen.Message
	delayed []delayedKeygenMessage

	outcome *pce.KeygenOutcome
	result  *pce.KeygenResult
}

// NewKeygenRunner creates an unauthorised runner for ceremony id, able only
// to buffer incoming peer messages until a matching KeygenRequest arrives.
func NewKeygenRunner(id pce.CeremonyID, self pce.AccountID, stageBudget time.Duration) *KeygenRunner {
	return &KeygenRunner{
		id:          id,
		self:        self,
		stageBudget: stageBudget,
		lifecycle:   Unauthorised,
		expiresAt:   time.Now().Add(stageBudget),
	}
}

// Lifecycle reports the runner's current phase.
func (r *KeygenRunner) Lifecycle() Lifecycle { return r.lifecycle }

// Outcome returns the terminal outcome, if any.
func (r *KeygenRunner) Outcome() (pce.KeygenOutcome, bool) {
	if r.outcome == nil {
		return pce.KeygenOutcome{}, false
	}
	return *r.outcome, true
}

// Result returns the full local keygen result (including the share), only
// available after a successful terminal outcome. The Manager consults this
// to persist the share into the KeyStore before announcing the outcome.
func (r *KeygenRunner) Result() (pce.KeygenResult, bool) {
	if r.result == nil {
		return pce.KeygenResult{}, false
	}
	return *r.result, true
}

// Authorise upgrades an unauthorised runner once the local authorising
// layer approves req, builds the PartyIndex bijection, starts the
// keygen.State machine, and replays any messages buffered before
// authorisation (spec.md §4.5, grounded on signing_state.rs's
// on_request_to_sign).
//
// Unlike a stage-to-stage transition, the timer here does not carry over
// any budget from before authorisation: a node must not be able to
// influence how long a ceremony it doesn't yet know about gets to run
// once it is authorised.
func (r *KeygenRunner) Authorise(req pce.KeygenRequest) []Envelope {
	if r.lifecycle != Unauthorised {
		return nil
	}

	r.indexer = NewPartyIndexer(req.Participants)
	ownIdx, ok := r.indexer.IndexOf(r.self)
	if !ok {
		r.abort(pce.AbortUnauthorised, nil)
		return nil
	}

	threshold := pce.ThresholdFromPartyCount(len(req.Participants))
	params := keygen.Params{
		CeremonyID: req.CeremonyID,
		OwnIndex:   ownIdx,
		AllIndices: r.indexer.AllIndices(),
		Threshold:  threshold.T,
	}

	state, out, err := keygen.New(params)
	if err != nil {
		r.abort(pce.AbortInvalid, nil)
		return nil
	}

	r.state = state
	r.pending = map[pce.PartyIndex]keygen.Message{ownIdx: out.Msg}
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

// HandlePeerMessage feeds an incoming peer message into the runner. Before
// authorisation, messages are buffered rather than dropped, since a peer
// that has already heard about the ceremony may simply be ahead of the
// local authorising layer (spec.md §4.5).
func (r *KeygenRunner) HandlePeerMessage(from pce.AccountID, msg keygen.Message) []Envelope {
	if r.lifecycle == Terminal {
		return nil
	}
	if r.lifecycle == Unauthorised {
		r.preAuthBuffer = append(r.preAuthBuffer, delayedPreAuthKeygenMessage{from: from, msg: msg})
		return nil
	}
	return r.deliverFromAccount(from, msg)
}

func (r *KeygenRunner) deliverFromAccount(from pce.AccountID, msg keygen.Message) []Envelope {
	idx, ok := r.indexer.IndexOf(from)
	if !ok {
		return nil // not a participant in this ceremony; ignore silently
	}
	return r.deliver(idx, msg)
}

func (r *KeygenRunner) deliver(from pce.PartyIndex, msg keygen.Message) []Envelope {
	if r.lifecycle == Terminal {
		return nil
	}

	current := r.state.CurrentStage()
	switch {
	case msg.Stage() < current:
		return nil // stale, drop
	case msg.Stage() > current:
		r.delayed = append(r.delayed, delayedKeygenMessage{from: from, msg: msg})
		return nil
	}

	if _, exists := r.pending[from]; exists {
		return nil // duplicate for this stage, ignore
	}
	r.pending[from] = msg

	// Stage 3's shares are targeted, so this party's own entry is never
	// added to pending: only the n-1 peer shares arrive.
	expected := len(r.indexer.AllIndices())
	if current == keygen.StageShares {
		expected--
	}
	if len(r.pending) < expected {
		return nil
	}

	return r.advance()
}

func (r *KeygenRunner) advance() []Envelope {
	outs, result, err := r.state.Advance(r.pending)
	if err != nil {
		if f, ok := err.(keygen.Fault); ok {
			r.abort(pce.AbortInvalid, r.indexer.AccountsOf(f.Parties))
		} else {
			r.abort(pce.AbortInvalid, nil)
		}
		return nil
	}

	if result != nil {
		r.finish(*result)
		return nil
	}

	r.expiresAt = r.expiresAt.Add(r.stageBudget)
	r.pending = make(map[pce.PartyIndex]keygen.Message, len(r.indexer.AllIndices()))

	envelopes := make([]Envelope, 0, len(outs))
	for _, out := range outs {
		envelopes = append(envelopes, toAccountEnvelopes(r.indexer, r.id, out.To, out.Msg))
		if out.To == nil {
			r.pending[r.ownIndex()] = out.Msg
		}
	}

	return append(envelopes, r.tryAdvance()...)
}

// tryAdvance replays buffered messages that now match the current stage.
// It keeps looping because replaying one buffered message can complete a
// stage and thereby make further buffered messages immediately eligible.
func (r *KeygenRunner) tryAdvance() []Envelope {
	var out []Envelope
	for {
		if r.lifecycle == Terminal {
			return out
		}
		current := r.state.CurrentStage()

		var remaining []delayedKeygenMessage
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

func (r *KeygenRunner) ownIndex() pce.PartyIndex {
	idx, _ := r.indexer.IndexOf(r.self)
	return idx
}

func (r *KeygenRunner) finish(result keygen.Result) {
	full := pce.KeygenResult{
		Share:             result.Share,
		PartyPublicShares: result.PartyPublicShares,
		Parties:           r.indexer.sorted,
	}
	outcome := pce.Success[[33]byte](r.id, full.PublicKeyBytes())
	r.lifecycle = Terminal
	r.outcome = &outcome
	r.result = &full
}

func (r *KeygenRunner) abort(reason pce.AbortReason, blamed []pce.AccountID) {
	outcome := pce.Abort[[33]byte](r.id, reason, blamed)
	r.lifecycle = Terminal
	r.outcome = &outcome
}

// TryExpire checks the stage timer and, if it has elapsed, aborts the
// ceremony. An Unauthorised runner that never got an authorisation before
// its park window elapsed aborts with AbortUnauthorised, not AbortTimeout:
// the local node was never asked to participate, so there is no stage
// deadline to have missed. An Authorised runner aborts with AbortTimeout,
// blaming every participant that has not yet delivered the current
// stage's message.
func (r *KeygenRunner) TryExpire(now time.Time) bool {
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
	for _, idx := range r.indexer.AllIndices() {
		if _, ok := r.pending[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	r.abort(pce.AbortTimeout, r.indexer.AccountsOf(missing))
	return true
}
