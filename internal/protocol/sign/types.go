// Package sign implements the 4-stage FROST threshold Schnorr signing
// protocol (spec.md §4.4), built on the same stage-generic broadcast
// verification sub-protocol and round-method state machine shape as
// internal/protocol/keygen.
package sign

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Stage identifies one of the 4 rounds of the signing protocol.
type Stage int

const (
	StageCommitments Stage = iota + 1
	StageVerifyCommitments
	StageLocalSig
	StageVerifyLocalSig
)

func (s Stage) String() string {
	switch s {
	case StageCommitments:
		return "commitments"
	case StageVerifyCommitments:
		return "verify-commitments"
	case StageLocalSig:
		return "local-sig"
	case StageVerifyLocalSig:
		return "verify-local-sig"
	default:
		return "unknown"
	}
}

// Message is implemented by every signing wire payload.
type Message interface {
	Stage() Stage
}

// Commitment1 is the stage-1 broadcast: a pair of fresh nonce commitments
// (spec.md §4.4 stage 1).
type Commitment1 struct {
	D curve.Point
	E curve.Point
}

func (Commitment1) Stage() Stage { return StageCommitments }

func (c Commitment1) Equal(other Commitment1) bool {
	return c.D.Equal(other.D) && c.E.Equal(other.E)
}

// VerifyCommitment2 is the stage-2 broadcast: each party reports the full
// vector of Commitment1 values it received in stage 1 (spec.md §4.4 stage
// 2).
type VerifyCommitment2 struct {
	Received map[ceremony.PartyIndex]Commitment1
}

func (VerifyCommitment2) Stage() Stage { return StageVerifyCommitments }

func (v VerifyCommitment2) Equal(other VerifyCommitment2) bool {
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

// LocalSig3 is the stage-3 broadcast: a party's partial signature (spec.md
// §4.4 stage 3).
type LocalSig3 struct {
	Z curve.Scalar
}

func (LocalSig3) Stage() Stage { return StageLocalSig }

func (l LocalSig3) Equal(other LocalSig3) bool { return l.Z.Equal(other.Z) }

// VerifyLocalSig4 is the stage-4 broadcast: each party reports the full
// vector of LocalSig3 values it received in stage 3 (spec.md §4.4 stage
// 4).
type VerifyLocalSig4 struct {
	Received map[ceremony.PartyIndex]LocalSig3
}

func (VerifyLocalSig4) Stage() Stage { return StageVerifyLocalSig }

func (v VerifyLocalSig4) Equal(other VerifyLocalSig4) bool {
	if len(v.Received) != len(other.Received) {
		return false
	}
	for idx, l := range v.Received {
		ol, ok := other.Received[idx]
		if !ok || !l.Equal(ol) {
			return false
		}
	}
	return true
}

// Outbound pairs a message with its recipients; nil means broadcast.
type Outbound struct {
	To  []ceremony.PartyIndex
	Msg Message
}

// Params configures one signing run (spec.md §4.4).
type Params struct {
	CeremonyID        ceremony.CeremonyID
	OwnIndex          ceremony.PartyIndex
	Signers           []ceremony.PartyIndex // sorted, size t+1, includes OwnIndex
	Share             ceremony.KeyShare     // this party's (Y, x_i)
	PartyPublicShares map[ceremony.PartyIndex]curve.Point
	MessageHash       [32]byte
}
