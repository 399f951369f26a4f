// Package wire encodes and decodes the P2P-boundary envelope that carries
// keygen and signing protocol messages, tagged by CeremonyId and a stage
// discriminant (spec.md §3, §6 NEW). Payloads are encoded with
// go.dedis.ch/protobuf, the codec this corpus's DKG-adjacent library,
// kyber, itself depends on for committing structured round data to the
// wire; curve points and scalars are flattened to their compressed byte
// encodings first, since protobuf's reflection-based encoder only sees
// exported struct fields and the curve types here intentionally keep their
// internal representation private.
package wire

import (
	"fmt"

	"go.dedis.ch/protobuf"

	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// Discriminant tags which concrete message type an Envelope's Body holds.
type Discriminant uint8

const (
	DiscriminantUnknown Discriminant = iota
	DiscriminantKeygenComm1
	DiscriminantKeygenVerifyComm2
	DiscriminantKeygenSecretShare3
	DiscriminantKeygenComplaints4
	DiscriminantKeygenVerifyComplaints5
	DiscriminantKeygenBlameResponse6
	DiscriminantKeygenVerifyBlameResponse7
	DiscriminantSignCommitment1
	DiscriminantSignVerifyCommitment2
	DiscriminantSignLocalSig3
	DiscriminantSignVerifyLocalSig4
)

// ErrUnknownPayload is returned by DecodeKeygen / DecodeSign for a Discriminant this version
// of the codec does not recognise. Per spec.md §3 (NEW), the manager drops
// such envelopes rather than treating them as a protocol fault: they most
// likely originate from a newer software version carrying a message type
// this node has not been upgraded to understand yet.
type ErrUnknownPayload struct {
	Discriminant Discriminant
}

func (e ErrUnknownPayload) Error() string {
	return fmt.Sprintf("wire: unknown payload discriminant %d", e.Discriminant)
}

// Envelope is the serialised, transport-ready unit: a CeremonyId, a
// discriminant identifying the concrete protocol message, and the
// protobuf-encoded body.
type Envelope struct {
	CeremonyID   uint64
	Discriminant Discriminant
	Body         []byte
}

// EncodeKeygen serialises a keygen-stage message into an Envelope.
func EncodeKeygen(id pce.CeremonyID, msg keygen.Message) (Envelope, error) {
	switch m := msg.(type) {
	case keygen.Comm1:
		return encode(id, DiscriminantKeygenComm1, comm1ToWire(m))
	case keygen.VerifyComm2:
		return encode(id, DiscriminantKeygenVerifyComm2, verifyComm2ToWire(m))
	case keygen.SecretShare3:
		return encode(id, DiscriminantKeygenSecretShare3, secretShare3ToWire(m))
	case keygen.Complaints4:
		return encode(id, DiscriminantKeygenComplaints4, complaints4ToWire(m))
	case keygen.VerifyComplaints5:
		return encode(id, DiscriminantKeygenVerifyComplaints5, verifyComplaints5ToWire(m))
	case keygen.BlameResponse6:
		return encode(id, DiscriminantKeygenBlameResponse6, blameResponse6ToWire(m))
	case keygen.VerifyBlameResponse7:
		return encode(id, DiscriminantKeygenVerifyBlameResponse7, verifyBlameResponse7ToWire(m))
	default:
		return Envelope{}, fmt.Errorf("wire: unrecognised keygen message type %T", msg)
	}
}

// EncodeSign serialises a signing-stage message into an Envelope.
func EncodeSign(id pce.CeremonyID, msg sign.Message) (Envelope, error) {
	switch m := msg.(type) {
	case sign.Commitment1:
		return encode(id, DiscriminantSignCommitment1, commitment1ToWire(m))
	case sign.VerifyCommitment2:
		return encode(id, DiscriminantSignVerifyCommitment2, verifyCommitment2ToWire(m))
	case sign.LocalSig3:
		return encode(id, DiscriminantSignLocalSig3, localSig3ToWire(m))
	case sign.VerifyLocalSig4:
		return encode(id, DiscriminantSignVerifyLocalSig4, verifyLocalSig4ToWire(m))
	default:
		return Envelope{}, fmt.Errorf("wire: unrecognised signing message type %T", msg)
	}
}

// DecodeKeygen reverses EncodeKeygen. It returns ErrUnknownPayload, never a
// wrapped error, for a discriminant this codec build does not recognise.
func DecodeKeygen(env Envelope) (keygen.Message, error) {
	switch env.Discriminant {
	case DiscriminantKeygenComm1:
		var w wireComm1
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantKeygenVerifyComm2:
		var w wireVerifyComm2
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantKeygenSecretShare3:
		var w wireSecretShare3
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantKeygenComplaints4:
		var w wireComplaints4
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain(), nil
	case DiscriminantKeygenVerifyComplaints5:
		var w wireVerifyComplaints5
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain(), nil
	case DiscriminantKeygenBlameResponse6:
		var w wireBlameResponse6
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantKeygenVerifyBlameResponse7:
		var w wireVerifyBlameResponse7
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	default:
		return nil, ErrUnknownPayload{Discriminant: env.Discriminant}
	}
}

// DecodeSign reverses EncodeSign.
func DecodeSign(env Envelope) (sign.Message, error) {
	switch env.Discriminant {
	case DiscriminantSignCommitment1:
		var w wireCommitment1
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantSignVerifyCommitment2:
		var w wireVerifyCommitment2
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantSignLocalSig3:
		var w wireLocalSig3
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	case DiscriminantSignVerifyLocalSig4:
		var w wireVerifyLocalSig4
		if err := protobuf.Decode(env.Body, &w); err != nil {
			return nil, err
		}
		return w.toDomain()
	default:
		return nil, ErrUnknownPayload{Discriminant: env.Discriminant}
	}
}

func encode(id pce.CeremonyID, d Discriminant, body any) (Envelope, error) {
	b, err := protobuf.Encode(body)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{CeremonyID: uint64(id), Discriminant: d, Body: b}, nil
}
