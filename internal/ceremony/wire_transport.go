package ceremony

import (
	"fmt"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	"github.com/chainflip-io/multisig-ceremony/internal/wire"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// EncodeOutbound serialises one of the Envelopes a runner produced into the
// wire format, ready to hand to a P2P transport keyed by AccountID.
func EncodeOutbound(e Envelope) (wire.Envelope, error) {
	switch msg := e.Payload.(type) {
	case keygen.Message:
		return wire.EncodeKeygen(e.CeremonyID, msg)
	case sign.Message:
		return wire.EncodeSign(e.CeremonyID, msg)
	default:
		return wire.Envelope{}, fmt.Errorf("ceremony: cannot encode payload of type %T", e.Payload)
	}
}

// DispatchInbound decodes a wire.Envelope received from from and feeds it
// into the Manager as a keygen or signing peer message, inferring the
// protocol from the envelope's discriminant. An ErrUnknownPayload is
// swallowed here too, per spec.md §3 (NEW): an envelope this build cannot
// decode is dropped, not escalated.
func (m *Manager) DispatchInbound(from pce.AccountID, env wire.Envelope) ([]Envelope, error) {
	id := pce.CeremonyID(env.CeremonyID)

	if isKeygenDiscriminant(env.Discriminant) {
		msg, err := wire.DecodeKeygen(env)
		if err != nil {
			if _, ok := err.(wire.ErrUnknownPayload); ok {
				return nil, nil
			}
			return nil, err
		}
		return m.OnKeygenMessage(id, from, msg)
	}

	if isSigningDiscriminant(env.Discriminant) {
		msg, err := wire.DecodeSign(env)
		if err != nil {
			if _, ok := err.(wire.ErrUnknownPayload); ok {
				return nil, nil
			}
			return nil, err
		}
		return m.OnSigningMessage(id, from, msg)
	}

	return nil, nil
}

func isKeygenDiscriminant(d wire.Discriminant) bool {
	switch d {
	case wire.DiscriminantKeygenComm1,
		wire.DiscriminantKeygenVerifyComm2,
		wire.DiscriminantKeygenSecretShare3,
		wire.DiscriminantKeygenComplaints4,
		wire.DiscriminantKeygenVerifyComplaints5,
		wire.DiscriminantKeygenBlameResponse6,
		wire.DiscriminantKeygenVerifyBlameResponse7:
		return true
	default:
		return false
	}
}

func isSigningDiscriminant(d wire.Discriminant) bool {
	switch d {
	case wire.DiscriminantSignCommitment1,
		wire.DiscriminantSignVerifyCommitment2,
		wire.DiscriminantSignLocalSig3,
		wire.DiscriminantSignVerifyLocalSig4:
		return true
	default:
		return false
	}
}
