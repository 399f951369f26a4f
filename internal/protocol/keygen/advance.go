package keygen

import "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"

// CurrentStage reports the stage this state machine is waiting to advance
// from. The ceremony runner uses it to decide whether an incoming message
// belongs to the current stage, must be buffered for a future one, or is
// stale (spec.md §4.3, §5).
func (s *State) CurrentStage() Stage { return s.stage }

// Advance type-asserts a completed stage's message set to the concrete
// type CurrentStage expects and dispatches to the matching per-stage
// function. It is the single entry point internal/ceremony.KeygenRunner drives
// the keygen state machine through.
func (s *State) Advance(received map[ceremony.PartyIndex]Message) ([]Outbound, *Result, error) {
	switch s.stage {
	case StageCommitBroadcast:
		typed, err := assertAll[Comm1](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceCommitBroadcast(typed)
		return wrap(out, err)

	case StageVerifyCommit:
		typed, err := assertAll[VerifyComm2](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceVerifyCommit(typed)
		return out, nil, err

	case StageShares:
		typed, err := assertAll[SecretShare3](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceShares(typed)
		return wrap(out, err)

	case StageComplaints:
		typed, err := assertAll[Complaints4](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceComplaints(typed)
		return wrap(out, err)

	case StageVerifyComplaints:
		typed, err := assertAll[VerifyComplaints5](received)
		if err != nil {
			return nil, nil, err
		}
		out, result, err := s.AdvanceVerifyComplaints(typed)
		if err != nil {
			return nil, nil, err
		}
		if result != nil {
			return nil, result, nil
		}
		return []Outbound{*out}, nil, nil

	case StageBlameResponse:
		typed, err := assertAll[BlameResponse6](received)
		if err != nil {
			return nil, nil, err
		}
		out, err := s.AdvanceBlameResponse(typed)
		return wrap(out, err)

	case StageVerifyBlameResponse:
		typed, err := assertAll[VerifyBlameResponse7](received)
		if err != nil {
			return nil, nil, err
		}
		result, err := s.AdvanceVerifyBlameResponse(typed)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil

	default:
		return nil, nil, Fault{Reason: "keygen: advance called on terminal state"}
	}
}

func wrap(out Outbound, err error) ([]Outbound, *Result, error) {
	if err != nil {
		return nil, nil, err
	}
	return []Outbound{out}, nil, nil
}

// assertAll type-asserts every value in a completed stage's message map to
// M, failing closed (as a Fault, not a panic) if a value of the wrong
// concrete type ever reaches this far — which would indicate a bug in the
// runner's stage bookkeeping, not adversarial input.
func assertAll[M Message](received map[ceremony.PartyIndex]Message) (map[ceremony.PartyIndex]M, error) {
	out := make(map[ceremony.PartyIndex]M, len(received))
	for idx, msg := range received {
		typed, ok := msg.(M)
		if !ok {
			return nil, Fault{Reason: "keygen: message type does not match expected stage", Parties: []ceremony.PartyIndex{idx}}
		}
		out[idx] = typed
	}
	return out, nil
}
