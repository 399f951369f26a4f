package ceremony

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned by Manager.OnSigningRequest when the KeyStore
// holds no record for the requested key id (spec.md §4.7).
var ErrUnknownKey = errors.New("ceremony: unknown key id")

// ErrCeremonyUnknown names a CeremonyID with no runner. The Manager creates
// a runner for any id it is given, so none of its methods returns this
// error.
var ErrCeremonyUnknown = errors.New("ceremony: unknown ceremony id")

// ErrDuplicateCeremony is returned when a request or a peer message names
// a CeremonyID that already belongs to a ceremony of the other kind
// (keygen versus signing). A repeat of the same kind is not an error.
var ErrDuplicateCeremony = errors.New("ceremony: duplicate ceremony id")

// BlameReport pairs an AbortReason with the AccountIDs a failure
// implicates, as an error value (spec.md §7). The protocol stage functions
// report failures as keygen.Fault / sign.Fault instead, and the runners
// turn those into an aborted Outcome directly. It generalises the single-offender
// blame of an interactive two-party protocol to the multi-party case: any
// number of parties, including zero, may be named.
type BlameReport struct {
	Reason  AbortReason
	Parties []AccountID
}

// Error satisfies the error interface so a BlameReport can be threaded
// through ordinary Go error-returning functions inside a stage
// implementation before being lifted into an Outcome at the runner
// boundary.
func (b BlameReport) Error() string {
	if len(b.Parties) == 0 {
		return fmt.Sprintf("ceremony: aborted (%s)", b.Reason)
	}
	return fmt.Sprintf("ceremony: aborted (%s), blaming %v", b.Reason, b.Parties)
}

// NewBlame constructs a BlameReport, sorting the blamed set for
// deterministic output and error messages.
func NewBlame(reason AbortReason, parties []AccountID) BlameReport {
	return BlameReport{Reason: reason, Parties: SortAccountIDs(parties)}
}

// AsBlameReport unwraps err into a BlameReport if it is (or wraps) one.
func AsBlameReport(err error) (BlameReport, bool) {
	var b BlameReport
	if errors.As(err, &b) {
		return b, true
	}
	return BlameReport{}, false
}
