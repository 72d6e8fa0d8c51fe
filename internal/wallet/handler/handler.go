// Package handler exposes the wallet connector over REST.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hati/internal/audit"
	"hati/internal/wallet"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/platform/httputil"
	"hati/pkg/requestcontext"
)

// Handler wires wallet endpoints to the connector.
type Handler struct {
	connector *wallet.Connector
	audit     *audit.Publisher
	logger    *slog.Logger
}

func New(connector *wallet.Connector, auditPub *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{connector: connector, audit: auditPub, logger: logger}
}

// Register mounts wallet endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/wallet/session", h.HandleSession)
	r.Post("/wallet/connect", h.HandleConnect)
}

// SessionResponse is the wire view of the wallet session.
type SessionResponse struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

// HandleSession handles GET /wallet/session: a non-prompting probe of the
// signing agent.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.UserID(ctx) == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	session := h.connector.CurrentSession(ctx)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		Connected: session.Connected(),
		Address:   session.Address,
	})
}

// HandleConnect handles POST /wallet/connect: the explicit user action that
// prompts the signing agent for account access.
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.UserID(ctx) == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	session, err := h.connector.Connect(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "wallet connect failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", domainerrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionWalletConnected,
		Outcome: session.Address,
	})
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		Connected: true,
		Address:   session.Address,
	})
}
