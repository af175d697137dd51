package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

// EmbedHandler handles HTTP requests for embeds using pkg/simpleembed
type EmbedHandler struct {
	service simpleembed.Service
	logger  *slog.Logger
}

// NewEmbedHandler creates a new embed handler
func NewEmbedHandler(service simpleembed.Service, logger *slog.Logger) *EmbedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedHandler{service: service, logger: logger}
}

// Routes returns the routes for embeds
func (h *EmbedHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateEmbed)
	r.Get("/", h.ListEmbeds)
	r.Post("/validate", h.ValidateEmbed)
	r.Get("/{id}", h.GetEmbed)
	r.Put("/{id}", h.UpdateEmbed)
	r.Delete("/{id}", h.DeleteEmbed)
	r.Get("/{id}/render", h.RenderEmbed)

	return r
}

// CreateEmbedRequest is the request body for creating an embed
type CreateEmbedRequest struct {
	SourceURL   string `json:"source_url"`
	Kind        string `json:"kind,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateEmbedRequest is the request body for updating an embed. Omitted
// fields keep their current value.
type UpdateEmbedRequest struct {
	SourceURL   *string `json:"source_url,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// EmbedResponse is the response body for an embed
type EmbedResponse struct {
	*simpleembed.EmbedRecord
	DisplayTitle string `json:"display_title"`
	AssetWarning string `json:"asset_warning,omitempty"`
}

// ValidateResponse is the response body for a validation check
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func newEmbedResponse(rec *simpleembed.EmbedRecord, result *simpleembed.NormalizeResult) EmbedResponse {
	resp := EmbedResponse{EmbedRecord: rec, DisplayTitle: rec.DisplayTitle()}
	if result != nil && result.AssetErr != nil {
		resp.AssetWarning = result.AssetErr.Error()
	}
	return resp
}

// CreateEmbed fetches metadata for a URL and stores a new embed
func (h *EmbedHandler) CreateEmbed(w http.ResponseWriter, r *http.Request) {
	var req CreateEmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.service.NewSession(&simpleembed.EmbedRecord{
		Kind:        req.Kind,
		SourceURL:   req.SourceURL,
		Title:       req.Title,
		Description: req.Description,
	})

	result, err := h.service.Save(r.Context(), sess)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create embed", err)
		return
	}

	h.logger.Info("Embed created", "embed_id", sess.Record.ID, "source_url", sess.Record.SourceURL)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newEmbedResponse(sess.Record, result))
}

// ListEmbeds lists embed summaries, optionally filtered by ?kind=
func (h *EmbedHandler) ListEmbeds(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.ListEmbeds(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list embeds", err)
		return
	}

	summaries := make([]simpleembed.EmbedSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, rec.Summary())
	}
	render.JSON(w, r, summaries)
}

// GetEmbed returns a single embed
func (h *EmbedHandler) GetEmbed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetEmbed(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get embed", err)
		return
	}
	render.JSON(w, r, newEmbedResponse(rec, nil))
}

// UpdateEmbed edits an embed. A changed source URL is fetched again.
func (h *EmbedHandler) UpdateEmbed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateEmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.service.LoadSession(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load embed", err)
		return
	}
	if req.SourceURL != nil {
		sess.Record.SourceURL = *req.SourceURL
	}
	if req.Title != nil {
		sess.Record.Title = *req.Title
	}
	if req.Description != nil {
		sess.Record.Description = *req.Description
	}

	result, err := h.service.Save(r.Context(), sess)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update embed", err)
		return
	}
	render.JSON(w, r, newEmbedResponse(sess.Record, result))
}

// DeleteEmbed soft-deletes an embed
func (h *EmbedHandler) DeleteEmbed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteEmbed(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "Failed to delete embed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderEmbed returns display markup. ?template= overrides the template
// base name and ?class= adds space separated classes.
func (h *EmbedHandler) RenderEmbed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.LoadSession(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load embed", err)
		return
	}
	q := r.URL.Query()
	sess.SetTemplate(q.Get("template"))
	for _, class := range q["class"] {
		sess.AddClass(class)
	}

	out, err := h.service.Render(r.Context(), sess)
	if err != nil {
		h.writeServiceError(w, r, "Failed to render embed", err)
		return
	}
	render.HTML(w, r, out.String())
}

// ValidateEmbed checks a URL against the allow-list without saving
func (h *EmbedHandler) ValidateEmbed(w http.ResponseWriter, r *http.Request) {
	var req CreateEmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.service.NewSession(&simpleembed.EmbedRecord{Kind: req.Kind, SourceURL: req.SourceURL})
	result, err := h.service.Validate(r.Context(), sess)
	if err != nil {
		h.writeServiceError(w, r, "Failed to validate embed", err)
		return
	}

	resp := ValidateResponse{Valid: result.Valid()}
	for _, e := range result.Errors() {
		resp.Errors = append(resp.Errors, e.Error())
	}
	render.JSON(w, r, resp)
}

// AssetHandler serves cached image assets
type AssetHandler struct {
	service simpleembed.Service
	logger  *slog.Logger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(service simpleembed.Service, logger *slog.Logger) *AssetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetHandler{service: service, logger: logger}
}

// Routes returns the routes for assets
func (h *AssetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.GetAsset)
	return r
}

// GetAsset streams the stored bytes of an asset
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rc, asset, err := h.service.OpenAsset(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to open asset", "asset_id", id, "err", err)
		}
		writeError(w, r, status, userMessage("Failed to open asset", status, err))
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+asset.FileName+"\"")
	if asset.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(asset.SizeBytes, 10))
	}
	w.Header().Set("Last-Modified", asset.UpdatedAt.UTC().Format(http.TimeFormat))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("Failed to stream asset", "asset_id", id, "err", err)
	}
}

// ErrorResponse is the body of an error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func (h *EmbedHandler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "err", err)
	}
	writeError(w, r, status, userMessage(msg, status, err))
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, simpleembed.ErrEmbedNotFound), errors.Is(err, simpleembed.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, simpleembed.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, simpleembed.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, simpleembed.ErrFetchFailed), errors.Is(err, simpleembed.ErrNoFetcher):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the client-facing text for err. Server-side failures
// get the generic msg; their detail stays in the log.
func userMessage(msg string, status int, err error) string {
	if status >= http.StatusInternalServerError {
		return msg
	}
	var validation *simpleembed.ValidationError
	if errors.As(err, &validation) {
		return validation.Error()
	}
	return err.Error()
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
