package sign

import "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// CurrentStage reports the stage this state machine is waiting to advance
// from (spec.md §4.4, §5).
func (s *State) CurrentStage() Stage { return s.stage }

// Signers reports the fixed signer set this run was parameterised with.
func (s *State) Signers() []ceremony.PartyIndex { return s.params.Signers }

// Advance type-asserts a completed stage's message set to the concrete
// type CurrentStage expects and dispatches to the matching per-stage
// function.
func (s *State) Advance(received map[ceremony.PartyIndex]Message) ([]Outbound, *ceremony.Signature, error) {
	switch s.stage {
	case StageCommitments:
		typed, err := assertAll[Commitment1](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceCommitments(typed)
		return wrap(out, err)

	case StageVerifyCommitments:
		typed, err := assertAll[VerifyCommitment2](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceVerifyCommitments(typed)
		return wrap(out, err)

	case StageLocalSig:
		typed, err := assertAll[LocalSig3](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceLocalSig(typed)
		return wrap(out, err)

	case StageVerifyLocalSig:
		typed, err := assertAll[VerifyLocalSig4](received)
		if err != nil {
			return nil, nil, err
		}
		sig, err := s.AdvanceVerifyLocalSig(typed)
		if err != nil {
			return nil, nil, err
		}
		return nil, sig, nil

	default:
		return nil, nil, Fault{Reason: "sign: advance called on terminal state"}
	}
}

func wrap(out Outbound, err error) ([]Outbound, *ceremony.Signature, error) {
	if err != nil {
		return nil, nil, err
	}
	return []Outbound{out}, nil, nil
}

func assertAll[M Message](received map[ceremony.PartyIndex]Message) (map[ceremony.PartyIndex]M, error) {
	out := make(map[ceremony.PartyIndex]M, len(received))
	for idx, msg := range received {
		typed, ok := msg.(M)
		if !ok {
			return nil, Fault{Reason: "sign: message type does not match expected stage", Parties: []ceremony.PartyIndex{idx}}
		}
		out[idx] = typed
	}
	return out, nil
}
