package handler

// VerifyRequest is the POST /documents/verify body.
type VerifyRequest struct {
	ContentHash string `json:"content_hash"`
}
