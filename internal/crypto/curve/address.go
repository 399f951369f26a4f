package curve

import "golang.org/x/crypto/sha3"

// NonceAddress derives the 20-byte nonce-commitment address the on-chain
// Schnorr verifier expects in place of a raw group element: the low 20
// bytes of keccak256 of the 64-byte x||y encoding of k*G, the leading
// 0x04 prefix byte of the uncompressed point stripped before hashing
// (spec.md §4.1).
func NonceAddress(p Point) [20]byte {
	uncompressed := p.UncompressedBytes()

	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	digest := h.Sum(nil)

	var addr [20]byte
	copy(addr[:], digest[12:32])
	return addr
}
