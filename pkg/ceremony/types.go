// Package ceremony defines the data model and external interfaces of the
// Multisig Ceremony Engine (spec.md §3, §6): the types the authorising
// layer, the P2P transport, and the persistent key store exchange with the
// core, independent of the internal keygen/signing protocol machinery.
package ceremony

import (
	"fmt"
	"sort"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
)

// AccountID is the stable 32-byte identity of a validator, supplied by the
// authorising layer (spec.md §3).
type AccountID [32]byte

// String renders the account id as hex, for logs and error messages.
func (a AccountID) String() string {
	return fmt.Sprintf("%x", a[:])
}

// Less provides the lexicographic ordering used to derive PartyIndex
// assignments (spec.md §3: "sorting the participating AccountIds
// lexicographically").
func (a AccountID) Less(other AccountID) bool {
	for i := range a {
		if a[i] != other[i] {
			return a[i] < other[i]
		}
	}
	return false
}

// SortAccountIDs returns a sorted copy of ids.
func SortAccountIDs(ids []AccountID) []AccountID {
	out := make([]AccountID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// CeremonyID is the monotonically increasing 64-bit ceremony identifier
// scoped by the authorising layer (spec.md §3). It is the only routing key
// between transport and runner.
type CeremonyID uint64

// PartyIndex is the 1-based local position of a participant within one
// ceremony, assigned by sorting AccountIDs lexicographically (spec.md §3).
// It is not stable across ceremonies and must never leak past the runner
// boundary.
type PartyIndex int

// ThresholdParameters is { n, t } where t is the maximum number of parties
// that may be absent or malicious while a signature can still be produced
// (spec.md §3): t = ceil(n*2/3) - 1.
type ThresholdParameters struct {
	N int
	T int
}

// ThresholdFromPartyCount computes t = ceil(n*2/3) - 1.
func ThresholdFromPartyCount(n int) ThresholdParameters {
	t := (n*2 + 2) / 3 // ceil(n*2/3)
	t--
	if t < 0 {
		t = 0
	}
	return ThresholdParameters{N: n, T: t}
}

// KeyShare is a single party's contribution to a finalised keygen: the
// shared aggregate public key Y and the party's own secret scalar x_i
// (spec.md §3).
type KeyShare struct {
	Y  curve.Point
	Xi curve.Scalar
}

// KeygenResult is a finalised KeyShare plus a table mapping every
// PartyIndex from the original keygen to the public commitment of its
// secret share, needed later as each party's public key during signing
// (spec.md §3).
type KeygenResult struct {
	Share             KeyShare
	PartyPublicShares map[PartyIndex]curve.Point
	Parties           []AccountID // sorted set used in the keygen that produced this result
}

// PublicKeyBytes returns the 33-byte SEC1-compressed aggregate public key,
// the fingerprint used to index the key store (spec.md §4.7).
func (r KeygenResult) PublicKeyBytes() [33]byte {
	return r.Share.Y.CompressedBytes()
}

// AbortReason classifies why a ceremony failed to produce an output
// (spec.md §3, §7).
type AbortReason int

const (
	// AbortUnauthorised: a peer sent ceremony messages the local node was
	// never asked to participate in, or the local node is not a signer.
	AbortUnauthorised AbortReason = iota
	// AbortTimeout: at least one expected peer failed to deliver a stage
	// message within budget.
	AbortTimeout
	// AbortInvalid: a peer produced a cryptographically verifiable
	// protocol violation, or the resulting key is contract-incompatible.
	AbortInvalid
)

func (r AbortReason) String() string {
	switch r {
	case AbortUnauthorised:
		return "unauthorised"
	case AbortTimeout:
		return "timeout"
	case AbortInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a ceremony: either a success value or
// an (AbortReason, blamed parties) pair (spec.md §3's CeremonyOutcome).
// The blamed list is empty on success, and also in the specific case of a
// contract-incompatible aggregate key (spec.md §4.3 stage 2, §7).
type Outcome[T any] struct {
	ID     CeremonyID
	Value  T
	Err    *AbortReason
	Blamed []AccountID
}

// Success constructs a successful outcome.
func Success[T any](id CeremonyID, value T) Outcome[T] {
	return Outcome[T]{ID: id, Value: value}
}

// Abort constructs a failed outcome with the given reason and blame set.
func Abort[T any](id CeremonyID, reason AbortReason, blamed []AccountID) Outcome[T] {
	return Outcome[T]{ID: id, Err: &reason, Blamed: blamed}
}

// Ok reports whether the outcome succeeded.
func (o Outcome[T]) Ok() bool { return o.Err == nil }

// KeygenOutcome is the result of a keygen ceremony; on success its Value
// holds the 33-byte compressed public key (spec.md §6).
type KeygenOutcome = Outcome[[33]byte]

// Signature is the result of a successful signing ceremony (spec.md §6):
// s plus the 33-byte compressed R used as the on-chain key id convention.
type Signature struct {
	S [32]byte
	R [33]byte
}

// SigningOutcome is the result of a signing ceremony (spec.md §6).
type SigningOutcome = Outcome[Signature]

// KeygenRequest is issued by the authorising layer to start a keygen
// ceremony (spec.md §6).
type KeygenRequest struct {
	CeremonyID   CeremonyID
	Participants []AccountID // ordered set
}

// SigningRequest is issued by the authorising layer to start a signing
// ceremony (spec.md §6).
type SigningRequest struct {
	CeremonyID  CeremonyID
	Signers     []AccountID // ordered set, size t+1
	KeyID       [33]byte    // compressed public key identifying the key share to use
	MessageHash [32]byte
}

// KeyStore is the abstract capability the core requires for persisting
// finalised key shares (spec.md §4.7). Persistence itself is external; the
// core only requires that Get observes the effects of a prior Put.
type KeyStore interface {
	Put(publicKeyBytes [33]byte, result KeygenResult) error
	Get(publicKeyBytes [33]byte) (KeygenResult, bool, error)
}
