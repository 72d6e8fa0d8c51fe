package audit

import "time"

// Action enumerates the auditable operations.
type Action string

const (
	ActionDocumentUploaded  Action = "document_uploaded"
	ActionDocumentDeleted   Action = "document_deleted"
	ActionDocumentVerified  Action = "document_verified"
	ActionNotarizeSubmitted Action = "notarize_submitted"
	ActionNotarizeConfirmed Action = "notarize_confirmed"
	ActionNotarizeFailed    Action = "notarize_failed"
	ActionReconciled        Action = "reconciled"
	ActionWalletConnected   Action = "wallet_connected"
)

// Event is one append-only audit record. Events never carry document bytes,
// only identifiers and outcomes.
type Event struct {
	Action     Action    `json:"action"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
