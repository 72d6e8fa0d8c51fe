package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// Contract surface. The selector and event topic are derived from these
// signatures at init, never hard-coded as magic bytes.
const (
	notarizeSignature = "notarize(bytes32,bytes32)"
	notarizedEventSig = "DocumentNotarized(bytes32,bytes32,address)"
)

var (
	notarizeSelector = keccak([]byte(notarizeSignature))[:4]

	// notarizedTopic is topic[0] of the DocumentNotarized log.
	notarizedTopic = "0x" + hex.EncodeToString(keccak([]byte(notarizedEventSig)))
)

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// encodeNotarizeCall builds the call data for notarize(documentId, contentHash).
// The document UUID occupies the low 16 bytes of the first word; the content
// hash is already a full 32-byte word.
func encodeNotarizeCall(documentID uuid.UUID, contentHash string) (string, error) {
	hashWord, err := hashToWord(contentHash)
	if err != nil {
		return "", err
	}

	data := make([]byte, 0, 4+2*32)
	data = append(data, notarizeSelector...)
	data = append(data, documentIDWord(documentID)...)
	data = append(data, hashWord...)
	return "0x" + hex.EncodeToString(data), nil
}

func documentIDWord(id uuid.UUID) []byte {
	word := make([]byte, 32)
	copy(word[16:], id[:])
	return word
}

func hashToWord(contentHash string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(contentHash, "0x"))
	if err != nil {
		return nil, fmt.Errorf("content hash is not hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("content hash must be 32 bytes, got %d", len(raw))
	}
	return raw, nil
}

// decodeNotarizedLog recovers (documentID, contentHash) from a DocumentNotarized
// log entry. The document ID is indexed (topic[1]); the hash is the first data
// word.
func decodeNotarizedLog(topics []string, data string) (string, string, error) {
	if len(topics) < 2 {
		return "", "", fmt.Errorf("notarized log missing indexed document id")
	}
	idWord, err := hex.DecodeString(strings.TrimPrefix(topics[1], "0x"))
	if err != nil || len(idWord) != 32 {
		return "", "", fmt.Errorf("malformed document id topic %q", topics[1])
	}
	id, err := uuid.FromBytes(idWord[16:])
	if err != nil {
		return "", "", fmt.Errorf("decode document id: %w", err)
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil || len(raw) < 32 {
		return "", "", fmt.Errorf("malformed notarized log data")
	}
	return id.String(), hex.EncodeToString(raw[:32]), nil
}
