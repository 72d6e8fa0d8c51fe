// Package contenthash computes the deterministic digest committed on the
// ledger. The algorithm is configuration, not a constant, so deployments can
// pick the digest their contract was provisioned for.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Algorithm identifies a supported digest.
type Algorithm string

const (
	SHA256    Algorithm = "sha256"
	Keccak256 Algorithm = "keccak256"
)

// Parse validates an algorithm identifier from configuration.
func Parse(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case SHA256, Keccak256:
		return Algorithm(s), nil
	case "":
		return SHA256, nil
	}
	return "", fmt.Errorf("unsupported content hash algorithm %q", s)
}

// Sum digests content with the given algorithm and returns lowercase hex
// without a 0x prefix. Both digests are 32 bytes, which is what the contract's
// bytes32 slot expects.
func Sum(alg Algorithm, content []byte) string {
	switch alg {
	case Keccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(content)
		return hex.EncodeToString(h.Sum(nil))
	default:
		sum := sha256.Sum256(content)
		return hex.EncodeToString(sum[:])
	}
}
