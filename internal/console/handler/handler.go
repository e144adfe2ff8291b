// Package handler serves the operator console API: group policies, the
// whitelist and the audit trail, plus health and metrics endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	id "joingate/pkg/domain"
	dErrors "joingate/pkg/domain-errors"
	"joingate/pkg/platform/httputil"
	"joingate/pkg/platform/middleware/admin"
	"joingate/pkg/platform/middleware/metadata"
	"joingate/pkg/platform/middleware/request"
	"joingate/pkg/platform/middleware/requesttime"
	"joingate/pkg/platform/sentinel"
	"joingate/pkg/requestcontext"
)

const requestTimeout = 15 * time.Second

// PolicyCache is the policy resolver as seen by the console.
type PolicyCache interface {
	Resolve(ctx context.Context, groupID id.GroupID) models.GroupPolicy
	Defaults(groupID id.GroupID) models.GroupPolicy
	Invalidate(groupID id.GroupID)
}

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler wires console endpoints to storage and the policy resolver.
type Handler struct {
	store  ports.Store
	cache  PolicyCache
	logger *slog.Logger
	health []HealthCheck
}

// New constructs a console handler.
func New(store ports.Store, cache PolicyCache, logger *slog.Logger, health ...HealthCheck) *Handler {
	return &Handler{
		store:  store,
		cache:  cache,
		logger: logger,
		health: health,
	}
}

// Router assembles the console: /healthz and /metrics are public, /api is
// guarded by the admin token.
func (h *Handler) Router(adminTokenHash string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", h.HandleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(requestTimeout))
		api.Use(admin.RequireAdminToken(adminTokenHash, h.logger))
		h.Register(api)
	})
	return r
}

// Register mounts the API endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/group-configs", h.HandleListPolicies)
	r.Get("/group-configs/{groupID}", h.HandleGetPolicy)
	r.Put("/group-configs/{groupID}", h.HandleUpdatePolicy)
	r.Get("/whitelist", h.HandleListWhitelist)
	r.Post("/whitelist", h.HandleAddWhitelist)
	r.Delete("/whitelist/{userID}", h.HandleRemoveWhitelist)
	r.Get("/records", h.HandleListRecords)
}

// HandleListPolicies handles GET /api/group-configs.
func (h *Handler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policies, err := h.store.ListPolicies(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list group configs", err)
		return
	}
	resp := PolicyListResponse{Configs: make([]PolicyResponse, 0, len(policies)), Total: len(policies)}
	for _, p := range policies {
		resp.Configs = append(resp.Configs, FromPolicy(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetPolicy handles GET /api/group-configs/{groupID}. A group without a
// stored config gets the defaults, which are persisted on first read.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(h.cache.Resolve(r.Context(), groupID)))
}

// HandleUpdatePolicy handles PUT /api/group-configs/{groupID}.
func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req PolicyRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var policy models.GroupPolicy
	stored, err := h.store.GetPolicy(ctx, groupID)
	switch {
	case err == nil:
		policy = *stored
	case errors.Is(err, sentinel.ErrNotFound):
		policy = h.cache.Defaults(groupID)
	default:
		h.fail(ctx, w, "failed to load group config", err)
		return
	}

	req.Apply(&policy)
	if err := policy.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.store.SavePolicy(ctx, policy); err != nil {
		h.fail(ctx, w, "failed to save group config", err)
		return
	}
	h.cache.Invalidate(groupID)

	h.logger.InfoContext(ctx, "group config updated from console",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", metadata.GetClientIP(ctx),
		"group_id", groupID,
		"mode", policy.Mode,
		"timeout_seconds", policy.TimeoutSeconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(policy))
}

// HandleListWhitelist handles GET /api/whitelist.
func (h *Handler) HandleListWhitelist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.store.ListWhitelist(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list whitelist", err)
		return
	}
	resp := WhitelistListResponse{Entries: make([]WhitelistResponse, 0, len(entries)), Total: len(entries)}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, WhitelistResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAddWhitelist handles POST /api/whitelist.
func (h *Handler) HandleAddWhitelist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req WhitelistRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry := models.WhitelistEntry{UserID: req.UserID, Remark: req.Remark, CreatedAt: requestcontext.Now(ctx)}
	if err := h.store.AddWhitelist(ctx, entry); err != nil {
		h.fail(ctx, w, "failed to add whitelist entry", err)
		return
	}
	h.logger.InfoContext(ctx, "whitelist entry added from console",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", metadata.GetClientIP(ctx),
		"user_id", req.UserID,
	)
	httputil.WriteJSON(w, http.StatusCreated, WhitelistResponse(entry))
}

// HandleRemoveWhitelist handles DELETE /api/whitelist/{userID}.
func (h *Handler) HandleRemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.store.RemoveWhitelist(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "user %d is not whitelisted", userID))
			return
		}
		h.fail(ctx, w, "failed to remove whitelist entry", err)
		return
	}
	h.logger.InfoContext(ctx, "whitelist entry removed from console",
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", metadata.GetClientIP(ctx),
		"user_id", userID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleListRecords handles GET /api/records?group_id=&user_id=&limit=.
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseAuditFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.store.ListAudit(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list audit records", err)
		return
	}
	if records == nil {
		records = []models.AuditRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, RecordsResponse{Records: records, Total: len(records)})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.health) > 0 {
		resp.Checks = make(map[string]string, len(h.health))
	}
	for _, hc := range h.health {
		if err := hc.Check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", hc.Name, "error", err)
			resp.Checks[hc.Name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

func parseAuditFilter(r *http.Request) (models.AuditFilter, error) {
	q := r.URL.Query()
	var filter models.AuditFilter
	if raw := q.Get("group_id"); raw != "" {
		groupID, err := id.ParseGroupID(raw)
		if err != nil {
			return filter, err
		}
		filter.GroupID = groupID
	}
	if raw := q.Get("user_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return filter, err
		}
		filter.UserID = userID
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// fail logs a storage error and answers 500 without leaking the cause.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
}
