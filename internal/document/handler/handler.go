// Package handler exposes the document record service over REST.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hati/internal/document"
	"hati/internal/domain"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/platform/httputil"
	"hati/pkg/requestcontext"
)

// Uploads are bounded before the multipart parser allocates anything.
const maxUploadBytes = 20 << 20

// Handler wires document endpoints to the record service.
type Handler struct {
	service *document.Service
	logger  *slog.Logger
}

func New(service *document.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts document endpoints on the router. The verify, notarize and
// reconcile routes under the same prefix belong to the notary handler.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
	r.Post("/documents", h.HandleUpload)
	r.Get("/documents/{id}", h.HandleGet)
	r.Get("/documents/{id}/download", h.HandleDownload)
	r.Delete("/documents/{id}", h.HandleDelete)
}

// HandleUpload handles POST /documents (multipart form: file, type, title,
// title_sw).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "file part is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "unreadable file part"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.service.Upload(ctx, document.UploadInput{
		OwnerID:      userID,
		Type:         domain.DocumentType(r.FormValue("type")),
		Title:        r.FormValue("title"),
		TitleSwahili: r.FormValue("title_sw"),
		ContentType:  contentType,
		Content:      content,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromDocument(doc))
}

// HandleList handles GET /documents with optional ?type= and ?verified=true
// filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return
	}

	var (
		docs []*domain.Document
		err  error
	)
	switch {
	case r.URL.Query().Get("verified") == "true":
		docs, err = h.service.ListVerified(ctx, userID)
	case r.URL.Query().Get("type") != "":
		docs, err = h.service.ListByType(ctx, userID, domain.DocumentType(r.URL.Query().Get("type")))
	default:
		docs, err = h.service.List(ctx, userID)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromDocuments(docs))
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.service.Get(ctx, userID, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromDocument(doc))
}

// HandleDownload handles GET /documents/{id}/download, streaming the stored
// bytes.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
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

	doc, rc, err := h.service.Content(ctx, userID, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Title+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.ErrorContext(ctx, "document download interrupted",
			"document_id", id,
			"error", err,
		)
	}
}

// HandleDelete handles DELETE /documents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Delete(ctx, userID, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "malformed document id"))
		return uuid.Nil, false
	}
	return id, true
}
