package sign

import (
	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// AdvanceLocalSig consumes the stage-3 partial signatures received from
// every signer and checks each against the group equation
// z_i*G == (D_i + rho_i*E_i) + lambda_i*c*Y_i, recording per-signer
// validity for stage 4 to act on once broadcast consistency of these very
// messages has itself been established (spec.md §4.4 stage 3).
func (s *State) AdvanceLocalSig(received map[ceremony.PartyIndex]LocalSig3) (Outbound, error) {
	validity := make(map[ceremony.PartyIndex]bool, len(received))

	for idx, sig := range received {
		commitment := s.commitments[idx]
		lambda := lagrangeAtZero(idx, s.params.Signers)
		yi := s.params.PartyPublicShares[idx]

		lhs := curve.BaseMul(sig.Z)
		rhs := curve.Add(
			curve.Add(commitment.D, curve.Mul(s.rho[idx], commitment.E)),
			curve.Mul(lambda.Mul(s.chal), yi),
		)

		validity[idx] = lhs.Equal(rhs)
	}

	s.validity = validity
	s.stage = StageVerifyLocalSig

	cp := make(map[ceremony.PartyIndex]LocalSig3, len(received))
	for idx, sig := range received {
		cp[idx] = sig
	}

	return Outbound{To: nil, Msg: VerifyLocalSig4{Received: cp}}, nil
}
