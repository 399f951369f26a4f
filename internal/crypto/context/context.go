// Package context derives the keygen context that binds stage-1 Schnorr
// proofs to a single ceremony (spec.md §4.1, §9).
//
// This is the one piece of the crypto stack that stays on the standard
// library rather than an ecosystem hashing library: it is a single
// unsalted, fixed-preimage SHA-256 of a protocol tag and a ceremony id —
// there is no commit/decommit step, no variable-length or adversarially
// controlled input, and no third-party library in this corpus does
// straight fixed-preimage hashing any more canonically than crypto/sha256.
package context

import (
	"crypto/sha256"
	"encoding/binary"
)

// protocolTag disambiguates this hash from any other use of ceremony ids as
// hash preimages elsewhere in the system.
const protocolTag = "chainflip-multisig-keygen-v1"

// DeriveKeygenContext computes hash(ceremonyID || protocolTag), the context
// every stage-1 zero-knowledge proof for that ceremony must be bound to.
// It is deterministic in the ceremony id alone, per spec.md §9: it must
// never depend on any network-observable value, or a commitment captured
// from one ceremony could be replayed as valid in another.
func DeriveKeygenContext(ceremonyID uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ceremonyID)

	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte(protocolTag))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
