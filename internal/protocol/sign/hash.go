package sign

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/chainflip-io/multisig-ceremony/internal/crypto/curve"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
)

// hashToScalar reduces SHA-256(parts...) mod n. Like the keygen context
// derivation (internal/crypto/context) and the Schnorr proof challenge
// (internal/crypto/schnorrzk), FROST's binding values and signature
// challenge are fixed-preimage domain-separated hashes over public data;
// crypto/sha256 is exactly as canonical here as any ecosystem hash
// library would be, so the stack stays on the standard library for this
// one function rather than pulling in a hasher with no other use in this
// package.
func hashToScalar(parts ...[]byte) curve.Scalar {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return curve.ScalarFromBytes(h.Sum(nil))
}

func indexBytes(idx ceremony.PartyIndex) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(idx))
	return b[:]
}

// bindingValue computes rho_i = H(i, msg, B), where B is the sorted
// vector of all signers' stage-1 commitments (spec.md §4.4 stage 2).
func bindingValue(signer ceremony.PartyIndex, msgHash [32]byte, commitments map[ceremony.PartyIndex]Commitment1) curve.Scalar {
	signers := make([]ceremony.PartyIndex, 0, len(commitments))
	for idx := range commitments {
		signers = append(signers, idx)
	}
	sort.Slice(signers, func(i, j int) bool { return signers[i] < signers[j] })

	parts := [][]byte{[]byte("frost-binding"), indexBytes(signer), msgHash[:]}
	for _, j := range signers {
		c := commitments[j]
		dBytes := c.D.CompressedBytes()
		eBytes := c.E.CompressedBytes()
		parts = append(parts, indexBytes(j), dBytes[:], eBytes[:])
	}

	return hashToScalar(parts...)
}

// challenge computes c = H(addr(R), Y, msg), where addr is the
// Ethereum-style keccak256 nonce-commitment address the on-chain Key
// Manager contract verifies against, not a raw field element (spec.md
// §4.4 stage 3).
func challenge(r, y curve.Point, msgHash [32]byte) curve.Scalar {
	addr := curve.NonceAddress(r)
	yBytes := y.CompressedBytes()
	return hashToScalar([]byte("frost-challenge"), addr[:], yBytes[:], msgHash[:])
}

// groupCommitment computes R = sum_i (D_i + rho_i*E_i).
func groupCommitment(commitments map[ceremony.PartyIndex]Commitment1, rho map[ceremony.PartyIndex]curve.Scalar) curve.Point {
	r := curve.Infinity()
	for idx, c := range commitments {
		term := curve.Add(c.D, curve.Mul(rho[idx], c.E))
		r = curve.Add(r, term)
	}
	return r
}
