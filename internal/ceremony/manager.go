package ceremony

import (
	"sync"
	"time"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony/logging"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony/metrics"
)

// OutcomeSink receives one outcome per ceremony a runner completes. A
// request or message whose id already belongs to a ceremony of the other
// kind gets an extra ErrDuplicateCeremony outcome under that same id, so
// such an id can see two outcomes. The Manager calls these synchronously
// from whichever goroutine drove the completing Advance.
type OutcomeSink interface {
	KeygenDone(pce.KeygenOutcome)
	SigningDone(pce.SigningOutcome)
}

type ceremonyKind int

const (
	kindKeygen ceremonyKind = iota
	kindSigning
)

type ceremonyEntry struct {
	kind    ceremonyKind
	keygen  *KeygenRunner
	signing *SigningRunner
	done    bool
}

// Manager multiplexes every concurrently running ceremony by CeremonyID
// (spec.md §5, grounded on mod.rs's MultisigClient dispatch table). It owns
// no transport: callers push requests and peer messages in, and drain
// Envelopes and outcomes out.
type Manager struct {
	mu   sync.Mutex
	self pce.AccountID
	keys pce.KeyStore
	sink OutcomeSink
	log  logging.Logger
	met  *metrics.Metrics

	stageBudget time.Duration
	ceremonies  map[pce.CeremonyID]*ceremonyEntry
}

// NewManager constructs a Manager. self is this node's own AccountID, keys
// is where finalised keygen shares are persisted before their outcome is
// announced (spec.md §4.7: "write before notify"), and sink receives
// terminal outcomes. log and met may be nil, in which case logging is
// discarded and metrics are collected but never registered anywhere.
func NewManager(self pce.AccountID, keys pce.KeyStore, sink OutcomeSink, stageBudget time.Duration, log logging.Logger, met *metrics.Metrics) *Manager {
	if log == nil {
		log = logging.NoOp()
	}
	if met == nil {
		met = metrics.New()
	}
	return &Manager{
		self:        self,
		keys:        keys,
		sink:        sink,
		log:         log,
		met:         met,
		stageBudget: stageBudget,
		ceremonies:  make(map[pce.CeremonyID]*ceremonyEntry),
	}
}

func (m *Manager) entry(id pce.CeremonyID, kind ceremonyKind) (*ceremonyEntry, error) {
	e, ok := m.ceremonies[id]
	if !ok {
		e = &ceremonyEntry{kind: kind}
		switch kind {
		case kindKeygen:
			e.keygen = NewKeygenRunner(id, m.self, m.stageBudget)
			m.met.CeremonyStarted(metrics.KindKeygen)
		case kindSigning:
			e.signing = NewSigningRunner(id, m.self, m.stageBudget)
			m.met.CeremonyStarted(metrics.KindSigning)
		}
		m.ceremonies[id] = e
		return e, nil
	}
	if e.kind != kind {
		return nil, pce.ErrDuplicateCeremony
	}
	return e, nil
}

// reportDuplicateKind announces, through the sink, that a request or peer
// message for id could not proceed because id already names a ceremony of
// the other kind (spec.md §5, §7): every failure mode is modeled as an
// AbortReason delivered through the outcome channel, a kind mismatch
// included, even though the caller also gets a synchronous error back for
// immediate local handling.
func (m *Manager) reportDuplicateKind(id pce.CeremonyID, kind ceremonyKind) {
	reason := pce.AbortUnauthorised
	l := logging.WithCeremony(m.log, id)
	logging.Outcome(l, false, reason.String())

	switch kind {
	case kindKeygen:
		m.met.CeremonyFinished(metrics.KindKeygen, reason.String(), 0)
		m.sink.KeygenDone(pce.KeygenOutcome{ID: id, Err: &reason})
	case kindSigning:
		m.met.CeremonyFinished(metrics.KindSigning, reason.String(), 0)
		m.sink.SigningDone(pce.SigningOutcome{ID: id, Err: &reason})
	}
}

// OnKeygenRequest authorises a keygen ceremony on behalf of the local
// authorising layer and returns the envelopes to send.
func (m *Manager) OnKeygenRequest(req pce.KeygenRequest) ([]Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.entry(req.CeremonyID, kindKeygen)
	if err != nil {
		m.reportDuplicateKind(req.CeremonyID, kindKeygen)
		return nil, err
	}

	envelopes := e.keygen.Authorise(req)
	m.checkKeygenDone(req.CeremonyID, e)
	return envelopes, nil
}

// OnSigningRequest authorises a signing ceremony, looking up the key share
// named by req.KeyID in the configured KeyStore.
func (m *Manager) OnSigningRequest(req pce.SigningRequest) ([]Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, ok, err := m.keys.Get(req.KeyID)
	if err != nil {
		return nil, err
	}

	e, entryErr := m.entry(req.CeremonyID, kindSigning)
	if entryErr != nil {
		m.reportDuplicateKind(req.CeremonyID, kindSigning)
		return nil, entryErr
	}

	if !ok {
		reason := pce.AbortInvalid
		outcome := pce.Outcome[pce.Signature]{ID: req.CeremonyID, Err: &reason}
		e.done = true
		logging.Outcome(logging.WithCeremony(m.log, req.CeremonyID), false, reason.String())
		m.met.CeremonyFinished(metrics.KindSigning, reason.String(), 0)
		m.sink.SigningDone(outcome)
		return nil, pce.ErrUnknownKey
	}

	envelopes := e.signing.Authorise(req, result)
	m.checkSigningDone(req.CeremonyID, e)
	return envelopes, nil
}

// OnKeygenMessage feeds a peer's keygen message into the named ceremony,
// creating an unauthorised runner to buffer it if the ceremony is not yet
// known locally (spec.md §4.5).
func (m *Manager) OnKeygenMessage(id pce.CeremonyID, from pce.AccountID, msg keygen.Message) ([]Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.entry(id, kindKeygen)
	if err != nil {
		m.reportDuplicateKind(id, kindKeygen)
		return nil, err
	}
	if e.done {
		return nil, nil
	}

	envelopes := e.keygen.HandlePeerMessage(from, msg)
	m.checkKeygenDone(id, e)
	return envelopes, nil
}

// OnSigningMessage feeds a peer's signing message into the named ceremony.
func (m *Manager) OnSigningMessage(id pce.CeremonyID, from pce.AccountID, msg sign.Message) ([]Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.entry(id, kindSigning)
	if err != nil {
		m.reportDuplicateKind(id, kindSigning)
		return nil, err
	}
	if e.done {
		return nil, nil
	}

	envelopes := e.signing.HandlePeerMessage(from, msg)
	m.checkSigningDone(id, e)
	return envelopes, nil
}

// Tick sweeps every live ceremony for stage-timer expiry, aborting and
// reporting timeouts. Callers should invoke it periodically, e.g. once a
// second, against a driving clock.
func (m *Manager) Tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.ceremonies {
		if e.done {
			continue
		}
		switch e.kind {
		case kindKeygen:
			if e.keygen.TryExpire(now) {
				m.checkKeygenDone(id, e)
			}
		case kindSigning:
			if e.signing.TryExpire(now) {
				m.checkSigningDone(id, e)
			}
		}
	}
}

// checkKeygenDone notices a freshly terminal keygen runner, persists its
// share on success before announcing the outcome (write before notify:
// spec.md §4.7), and marks the entry done so its state can later be
// garbage-collected.
func (m *Manager) checkKeygenDone(id pce.CeremonyID, e *ceremonyEntry) {
	if e.done {
		return
	}
	outcome, ok := e.keygen.Outcome()
	if !ok {
		return
	}
	e.done = true

	l := logging.WithCeremony(m.log, id)
	if outcome.Ok() {
		if result, ok := e.keygen.Result(); ok {
			if err := m.keys.Put(outcome.Value, result); err != nil {
				reason := pce.AbortInvalid
				outcome = pce.KeygenOutcome{ID: outcome.ID, Err: &reason}
				logging.Blame(l, reason.String(), outcome.Blamed)
				logging.Outcome(l, false, reason.String())
				m.met.CeremonyFinished(metrics.KindKeygen, reason.String(), 0)
				m.sink.KeygenDone(outcome)
				return
			}
		}
		logging.Outcome(l, true, "")
		m.met.CeremonyFinished(metrics.KindKeygen, "success", 0)
	} else {
		logging.Blame(l, outcome.Err.String(), outcome.Blamed)
		logging.Outcome(l, false, outcome.Err.String())
		m.met.CeremonyFinished(metrics.KindKeygen, outcome.Err.String(), len(outcome.Blamed))
	}
	m.sink.KeygenDone(outcome)
}

func (m *Manager) checkSigningDone(id pce.CeremonyID, e *ceremonyEntry) {
	if e.done {
		return
	}
	outcome, ok := e.signing.Outcome()
	if !ok {
		return
	}
	e.done = true

	l := logging.WithCeremony(m.log, id)
	if outcome.Ok() {
		logging.Outcome(l, true, "")
		m.met.CeremonyFinished(metrics.KindSigning, "success", 0)
	} else {
		logging.Blame(l, outcome.Err.String(), outcome.Blamed)
		logging.Outcome(l, false, outcome.Err.String())
		m.met.CeremonyFinished(metrics.KindSigning, outcome.Err.String(), len(outcome.Blamed))
	}
	m.sink.SigningDone(outcome)
}

// Forget removes a terminal ceremony's state. Callers are expected to call
// this some time after observing an outcome, once retransmission of stale
// messages for that id is no longer a concern.
func (m *Manager) Forget(id pce.CeremonyID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ceremonies, id)
}
