// Package handler exposes the notarization orchestrator over REST.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hati/internal/notary"
	"hati/internal/platform/middleware"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/platform/httputil"
	"hati/pkg/requestcontext"
)

// Handler wires notarization endpoints to the orchestrator.
type Handler struct {
	orchestrator *notary.Orchestrator
	logger       *slog.Logger
}

func New(orchestrator *notary.Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, logger: logger}
}

// Register mounts notarization endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.ContentTypeJSON).Post("/documents/verify", h.HandleVerify)
	r.Post("/documents/{id}/notarize", h.HandleNotarize)
	r.Post("/documents/{id}/reconcile", h.HandleReconcile)
}

// HandleNotarize handles POST /documents/{id}/notarize. The call blocks until
// the transaction confirms, fails, or the confirmation deadline passes;
// closing the connection abandons the wait but not the transaction.
func (h *Handler) HandleNotarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	result, err := h.orchestrator.Notarize(ctx, userID, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "notarization failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", id,
			"code", domainerrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "notarization finished",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", id,
		"tx_hash", result.TxHash,
		"warning", result.Warning,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromResult(result))
}

// HandleReconcile handles POST /documents/{id}/reconcile: the manual refresh
// that re-applies a confirmed receipt after an abandoned or timed-out wait.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	doc, err := h.orchestrator.Reconcile(ctx, userID, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromDocument(doc))
}

// HandleVerify handles POST /documents/verify: the lock-free off-chain
// verification path.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.ContentHash == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeInvalidInput, "content_hash is required"))
		return
	}

	doc, err := h.orchestrator.Verify(ctx, req.ContentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document verification decided",
		"request_id", requestcontext.RequestID(ctx),
		"document_id", doc.ID,
		"status", doc.VerificationStatus,
	)
	httputil.WriteJSON(w, http.StatusOK, fromDocument(doc))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed document id"))
		return uuid.Nil, false
	}
	return id, true
}
