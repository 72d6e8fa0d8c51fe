package domain

import "time"

// TxHandle identifies a submitted but not necessarily confirmed transaction.
// Submission is not confirmation: holding a handle only means the signer
// accepted the call and the node queued it.
type TxHandle struct {
	TxHash     string
	DocumentID string
	From       string
	Submitted  time.Time
}

// Receipt is the confirmation record for a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Success     bool
	// Event payload recovered from the DocumentNotarized log, used to check
	// that what was mined is what we meant to anchor.
	DocumentID  string
	ContentHash string
	ConfirmedAt time.Time
}

// Matches reports whether the receipt's event payload commits the given
// document and hash. A receipt that does not match must never be used to
// anchor the document.
func (r Receipt) Matches(documentID, contentHash string) bool {
	return r.Success && r.DocumentID == documentID && r.ContentHash == contentHash
}
