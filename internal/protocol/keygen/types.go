// Package keygen implements the 7-stage Pedersen distributed key generation
// protocol: commit, broadcast-verify commitments, secret share exchange,
// complaints, verify complaints, blame responses, and verify blame
// responses.
package keygen

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/schnorrzk"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Stage identifies one of the 7 rounds of the protocol. Every message
// self-reports the stage it belongs to so the generic ceremony runner can
// buffer ("should_delay") a message that has arrived early, without the
// protocol package having to know about delivery order at all.
type Stage int

const (
	StageCommitBroadcast Stage = iota + 1
	StageVerifyCommit
	StageShares
	StageComplaints
	StageVerifyComplaints
	StageBlameResponse
	StageVerifyBlameResponse
)

func (s Stage) String() string {
	switch s {
	case StageCommitBroadcast:
		return "commit-broadcast"
	case StageVerifyCommit:
		return "verify-commit"
	case StageShares:
		return "shares"
	case StageComplaints:
		return "complaints"
	case StageVerifyComplaints:
		return "verify-complaints"
	case StageBlameResponse:
		return "blame-response"
	case StageVerifyBlameResponse:
		return "verify-blame-response"
	default:
		return "unknown"
	}
}

// Message is implemented by every keygen wire payload.
type Message interface {
	Stage() Stage
}

// Comm1 is the stage-1 broadcast: a Feldman VSS commitment to the sender's
// sharing polynomial, and a Schnorr proof of knowledge of its constant term
// bound to the ceremony's keygen context (spec.md §4.1, §4.3 stage 1).
type Comm1 struct {
	VSS   polynomial.Commitment
	Proof schnorrzk.Proof
}

func (Comm1) Stage() Stage { return StageCommitBroadcast }

// Equal is required to run Comm1 through the generic broadcast verifier.
func (c Comm1) Equal(other Comm1) bool {
	if len(c.VSS.Points) != len(other.VSS.Points) {
		return false
	}
	for i := range c.VSS.Points {
		if !c.VSS.Points[i].Equal(other.VSS.Points[i]) {
			return false
		}
	}
	return c.Proof.R.Equal(other.Proof.R) && c.Proof.S.Equal(other.Proof.S)
}

// VerifyComm2 is the stage-2 broadcast: each party reports the full vector
// of Comm1 values it received in stage 1, so the broadcast sub-protocol can
// detect equivocation (spec.md §4.2, §4.3 stage 2).
type VerifyComm2 struct {
	Received map[ceremony.PartyIndex]Comm1
}

func (VerifyComm2) Stage() Stage { return StageVerifyCommit }

func (v VerifyComm2) Equal(other VerifyComm2) bool {
	if len(v.Received) != len(other.Received) {
		return false
	}
	for idx, c := range v.Received {
		oc, ok := other.Received[idx]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

// SecretShare3 is the stage-3 private message: the sender's evaluation of
// its own sharing polynomial at the recipient's party index (spec.md §4.3
// stage 3).
type SecretShare3 struct {
	Value curve.Scalar
}

func (SecretShare3) Stage() Stage { return StageShares }

// Complaints4 is the stage-4 broadcast: the set of party indices whose
// stage-3 share this party could not verify against their stage-1
// commitment (spec.md §4.3 stage 4).
type Complaints4 struct {
	Against []ceremony.PartyIndex
}

func (Complaints4) Stage() Stage { return StageComplaints }

func (c Complaints4) Equal(other Complaints4) bool {
	if len(c.Against) != len(other.Against) {
		return false
	}
	for i := range c.Against {
		if c.Against[i] != other.Against[i] {
			return false
		}
	}
	return true
}

// VerifyComplaints5 is the stage-5 broadcast: each party reports the full
// vector of Complaints4 it received in stage 4 (spec.md §4.3 stage 5).
type VerifyComplaints5 struct {
	Received map[ceremony.PartyIndex]Complaints4
}

func (VerifyComplaints5) Stage() Stage { return StageVerifyComplaints }

func (v VerifyComplaints5) Equal(other VerifyComplaints5) bool {
	if len(v.Received) != len(other.Received) {
		return false
	}
	for idx, c := range v.Received {
		oc, ok := other.Received[idx]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

// BlameResponse6 is the stage-6 broadcast: for every party that complained
// about this sender, the share originally sent to that party in stage 3,
// now revealed publicly so the rest of the ceremony can adjudicate the
// complaint (spec.md §4.3 stage 6).
type BlameResponse6 struct {
	RevealedTo map[ceremony.PartyIndex]curve.Scalar
}

func (BlameResponse6) Stage() Stage { return StageBlameResponse }

// VerifyBlameResponse7 is the stage-7 broadcast: each party reports the
// full vector of BlameResponse6 it received in stage 6 (spec.md §4.3 stage
// 7), the final round before the ceremony either finalises or aborts.
type VerifyBlameResponse7 struct {
	Received map[ceremony.PartyIndex]BlameResponse6
}

func (VerifyBlameResponse7) Stage() Stage { return StageVerifyBlameResponse }

func (v VerifyBlameResponse7) Equal(other VerifyBlameResponse7) bool {
	if len(v.Received) != len(other.Received) {
		return false
	}
	for idx, r := range v.Received {
		or, ok := other.Received[idx]
		if !ok || len(r.RevealedTo) != len(or.RevealedTo) {
			return false
		}
		for k, s := range r.RevealedTo {
			os, ok := or.RevealedTo[k]
			if !ok || !s.Equal(os) {
				return false
			}
		}
	}
	return true
}

// Outbound pairs a message with its recipients; a nil To means broadcast
// to every other party.
type Outbound struct {
	To  []ceremony.PartyIndex
	Msg Message
}

// Params configures one keygen run (spec.md §4.3).
type Params struct {
	CeremonyID  ceremony.CeremonyID
	OwnIndex    ceremony.PartyIndex
	AllIndices  []ceremony.PartyIndex // sorted, includes OwnIndex
	Threshold   int                   // t
}
