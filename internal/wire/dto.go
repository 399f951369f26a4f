package wire

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/polynomial"
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/schnorrzk"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/keygen"
	"github.com/chainflip-io/multisig-ceremony/internal/protocol/sign"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// The wireXxx types below are the protobuf-facing shadow of their domain
// counterpart: every curve.Point/curve.Scalar field is flattened to its
// compressed byte encoding and every map keyed by ceremony.PartyIndex is
// re-keyed by int32, since protobuf only understands exported fields of
// plain data types.

type wireVSS struct {
	Points [][]byte
}

func vssToWire(c polynomial.Commitment) wireVSS {
	out := wireVSS{Points: make([][]byte, len(c.Points))}
	for i, p := range c.Points {
		b := p.CompressedBytes()
		out.Points[i] = b[:]
	}
	return out
}

func (w wireVSS) toDomain() (polynomial.Commitment, error) {
	points := make([]curve.Point, len(w.Points))
	for i, b := range w.Points {
		p, err := curve.PointFromCompressed(b)
		if err != nil {
			return polynomial.Commitment{}, err
		}
		points[i] = p
	}
	return polynomial.Commitment{Points: points}, nil
}

type wireProof struct {
	R []byte
	S []byte
}

func proofToWire(p schnorrzk.Proof) wireProof {
	r := p.R.CompressedBytes()
	s := p.S.Bytes()
	return wireProof{R: r[:], S: s[:]}
}

func (w wireProof) toDomain() (schnorrzk.Proof, error) {
	r, err := curve.PointFromCompressed(w.R)
	if err != nil {
		return schnorrzk.Proof{}, err
	}
	return schnorrzk.Proof{R: r, S: curve.ScalarFromBytes(w.S)}, nil
}

type wireComm1 struct {
	VSS   wireVSS
	Proof wireProof
}

func comm1ToWire(c keygen.Comm1) wireComm1 {
	return wireComm1{VSS: vssToWire(c.VSS), Proof: proofToWire(c.Proof)}
}

func (w wireComm1) toDomain() (keygen.Comm1, error) {
	vss, err := w.VSS.toDomain()
	if err != nil {
		return keygen.Comm1{}, err
	}
	proof, err := w.Proof.toDomain()
	if err != nil {
		return keygen.Comm1{}, err
	}
	return keygen.Comm1{VSS: vss, Proof: proof}, nil
}

type wireVerifyComm2 struct {
	Received map[int32]wireComm1
}

func verifyComm2ToWire(v keygen.VerifyComm2) wireVerifyComm2 {
	out := make(map[int32]wireComm1, len(v.Received))
	for idx, c := range v.Received {
		out[int32(idx)] = comm1ToWire(c)
	}
	return wireVerifyComm2{Received: out}
}

func (w wireVerifyComm2) toDomain() (keygen.VerifyComm2, error) {
	out := make(map[ceremony.PartyIndex]keygen.Comm1, len(w.Received))
	for idx, c := range w.Received {
		domain, err := c.toDomain()
		if err != nil {
			return keygen.VerifyComm2{}, err
		}
		out[ceremony.PartyIndex(idx)] = domain
	}
	return keygen.VerifyComm2{Received: out}, nil
}

type wireSecretShare3 struct {
	Value []byte
}

func secretShare3ToWire(s keygen.SecretShare3) wireSecretShare3 {
	v := s.Value.Bytes()
	return wireSecretShare3{Value: v[:]}
}

func (w wireSecretShare3) toDomain() (keygen.SecretShare3, error) {
	return keygen.SecretShare3{Value: curve.ScalarFromBytes(w.Value)}, nil
}

type wireComplaints4 struct {
	Against []int32
}

func complaints4ToWire(c keygen.Complaints4) wireComplaints4 {
	out := make([]int32, len(c.Against))
	for i, idx := range c.Against {
		out[i] = int32(idx)
	}
	return wireComplaints4{Against: out}
}

func (w wireComplaints4) toDomain() keygen.Complaints4 {
	out := make([]ceremony.PartyIndex, len(w.Against))
	for i, idx := range w.Against {
		out[i] = ceremony.PartyIndex(idx)
	}
	return keygen.Complaints4{Against: out}
}

type wireVerifyComplaints5 struct {
	Received map[int32]wireComplaints4
}

func verifyComplaints5ToWire(v keygen.VerifyComplaints5) wireVerifyComplaints5 {
	out := make(map[int32]wireComplaints4, len(v.Received))
	for idx, c := range v.Received {
		out[int32(idx)] = complaints4ToWire(c)
	}
	return wireVerifyComplaints5{Received: out}
}

func (w wireVerifyComplaints5) toDomain() keygen.VerifyComplaints5 {
	out := make(map[ceremony.PartyIndex]keygen.Complaints4, len(w.Received))
	for idx, c := range w.Received {
		out[ceremony.PartyIndex(idx)] = c.toDomain()
	}
	return keygen.VerifyComplaints5{Received: out}
}

type wireBlameResponse6 struct {
	RevealedTo map[int32][]byte
}

func blameResponse6ToWire(b keygen.BlameResponse6) wireBlameResponse6 {
	out := make(map[int32][]byte, len(b.RevealedTo))
	for idx, s := range b.RevealedTo {
		v := s.Bytes()
		out[int32(idx)] = v[:]
	}
	return wireBlameResponse6{RevealedTo: out}
}

func (w wireBlameResponse6) toDomain() (keygen.BlameResponse6, error) {
	out := make(map[ceremony.PartyIndex]curve.Scalar, len(w.RevealedTo))
	for idx, b := range w.RevealedTo {
		out[ceremony.PartyIndex(idx)] = curve.ScalarFromBytes(b)
	}
	return keygen.BlameResponse6{RevealedTo: out}, nil
}

type wireVerifyBlameResponse7 struct {
	Received map[int32]wireBlameResponse6
}

func verifyBlameResponse7ToWire(v keygen.VerifyBlameResponse7) wireVerifyBlameResponse7 {
	out := make(map[int32]wireBlameResponse6, len(v.Received))
	for idx, b := range v.Received {
		out[int32(idx)] = blameResponse6ToWire(b)
	}
	return wireVerifyBlameResponse7{Received: out}
}

func (w wireVerifyBlameResponse7) toDomain() (keygen.VerifyBlameResponse7, error) {
	out := make(map[ceremony.PartyIndex]keygen.BlameResponse6, len(w.Received))
	for idx, b := range w.Received {
		domain, err := b.toDomain()
		if err != nil {
			return keygen.VerifyBlameResponse7{}, err
		}
		out[ceremony.PartyIndex(idx)] = domain
	}
	return keygen.VerifyBlameResponse7{Received: out}, nil
}

type wireCommitment1 struct {
	D []byte
	E []byte
}

func commitment1ToWire(c sign.Commitment1) wireCommitment1 {
	d := c.D.CompressedBytes()
	e := c.E.CompressedBytes()
	return wireCommitment1{D: d[:], E: e[:]}
}

func (w wireCommitment1) toDomain() (sign.Commitment1, error) {
	d, err := curve.PointFromCompressed(w.D)
	if err != nil {
		return sign.Commitment1{}, err
	}
	e, err := curve.PointFromCompressed(w.E)
	if err != nil {
		return sign.Commitment1{}, err
	}
	return sign.Commitment1{D: d, E: e}, nil
}

type wireVerifyCommitment2 struct {
	Received map[int32]wireCommitment1
}

func verifyCommitment2ToWire(v sign.VerifyCommitment2) wireVerifyCommitment2 {
	out := make(map[int32]wireCommitment1, len(v.Received))
	for idx, c := range v.Received {
		out[int32(idx)] = commitment1ToWire(c)
	}
	return wireVerifyCommitment2{Received: out}
}

func (w wireVerifyCommitment2) toDomain() (sign.VerifyCommitment2, error) {
	out := make(map[ceremony.PartyIndex]sign.Commitment1, len(w.Received))
	for idx, c := range w.Received {
		domain, err := c.toDomain()
		if err != nil {
			return sign.VerifyCommitment2{}, err
		}
		out[ceremony.PartyIndex(idx)] = domain
	}
	return sign.VerifyCommitment2{Received: out}, nil
}

type wireLocalSig3 struct {
	Z []byte
}

func localSig3ToWire(l sign.LocalSig3) wireLocalSig3 {
	z := l.Z.Bytes()
	return wireLocalSig3{Z: z[:]}
}

func (w wireLocalSig3) toDomain() (sign.LocalSig3, error) {
	return sign.LocalSig3{Z: curve.ScalarFromBytes(w.Z)}, nil
}

type wireVerifyLocalSig4 struct {
	Received map[int32]wireLocalSig3
}

func verifyLocalSig4ToWire(v sign.VerifyLocalSig4) wireVerifyLocalSig4 {
	out := make(map[int32]wireLocalSig3, len(v.Received))
	for idx, l := range v.Received {
		out[int32(idx)] = localSig3ToWire(l)
	}
	return wireVerifyLocalSig4{Received: out}
}

func (w wireVerifyLocalSig4) toDomain() (sign.VerifyLocalSig4, error) {
	out := make(map[ceremony.PartyIndex]sign.LocalSig3, len(w.Received))
	for idx, l := range w.Received {
		domain, err := l.toDomain()
		if err != nil {
			return sign.VerifyLocalSig4{}, err
		}
		out[ceremony.PartyIndex(idx)] = domain
	}
	return sign.VerifyLocalSig4{Received: out}, nil
}
