// Package handler contains the HTTP layer.
//
// This file implements the metered generation endpoint: access check,
// generation call, then usage/cost recording only after full success.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ycliang/scriptly/internal/ai"
	"github.com/ycliang/scriptly/internal/domain"
	"github.com/ycliang/scriptly/internal/metrics"
	"github.com/ycliang/scriptly/internal/middleware"
	"github.com/ycliang/scriptly/internal/service"
)

// GenerationStore is the audit write the handler needs.
// Implemented by *repository.Queries.
type GenerationStore interface {
	InsertGeneration(ctx context.Context, gen domain.Generation) (uuid.UUID, error)
}

// GenerateHandler handles metered generation requests.
type GenerateHandler struct {
	access    service.AccessService
	recorder  service.RecorderService
	generator ai.Generator
	store     GenerationStore
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(
	access service.AccessService,
	recorder service.RecorderService,
	generator ai.Generator,
	store GenerationStore,
	model string,
	timeout time.Duration,
	logger *slog.Logger,
) *GenerateHandler {
	return &GenerateHandler{
		access:    access,
		recorder:  recorder,
		generator: generator,
		store:     store,
		model:     model,
		timeout:   timeout,
		logger:    logger,
	}
}

// RegisterRoutes registers generation routes with the identity middleware.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux, withIdentity func(http.Handler) http.Handler) {
	mux.Handle("POST /api/generate", withIdentity(http.HandlerFunc(h.Generate)))
	mux.Handle("GET /api/quota", withIdentity(http.HandlerFunc(h.Quota)))
}

type generateRequest struct {
	Feature string `json:"feature"`
	Prompt  string `json:"prompt"`
}

type tokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type generateResponse struct {
	Content   string      `json:"content"`
	Model     string      `json:"model"`
	Tokens    tokenCounts `json:"tokens"`
	Remaining interface{} `json:"remaining"`
}

// Generate runs one metered generation call.
//
// The access check is read-only and the usage increment happens after the
// generation, so two concurrent requests at the last remaining credit can
// both pass and overshoot the limit by one. Known, accepted trade-off.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("generate.decode", "invalid request body"))
		return
	}

	feature, err := domain.ParseFeature(req.Feature)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	decision, err := h.access.CheckAccess(r.Context(), identity, feature)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Generation may run long; a disconnecting caller cancels the context,
	// the call fails, and nothing below runs. A canceled generation must
	// not consume quota or record cost.
	genCtx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.generator.Generate(genCtx, ai.GenerateParams{
		Feature: string(feature),
		Prompt:  req.Prompt,
		Model:   h.model,
	})
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(string(feature), "error").Inc()
		h.logger.Error("generation failed", "feature", feature, "error", err)
		ErrorResponse(w, r, h.logger, domain.Internal(err, "generate.call", "generation failed"))
		return
	}

	metrics.GenerationsTotal.WithLabelValues(string(feature), "success").Inc()

	// From here on the caller gets their content regardless of what
	// bookkeeping does. Recording is detached from the request context so
	// a disconnect after success cannot lose the rows.
	recordCtx := context.WithoutCancel(r.Context())
	generationID := h.auditGeneration(recordCtx, identity, feature, result)

	h.recorder.RecordUsage(identity, feature)
	h.recorder.RecordCost(identity, feature, result.Model, result.InputTokens, result.OutputTokens, generationID)

	remaining := decision.Remaining
	if remaining != domain.Unlimited {
		remaining-- // this call consumed one credit
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Content: result.Content,
		Model:   result.Model,
		Tokens: tokenCounts{
			Input:  result.InputTokens,
			Output: result.OutputTokens,
			Total:  result.InputTokens + result.OutputTokens,
		},
		Remaining: remainingValue(remaining),
	})
}

// auditTimeout bounds the synchronous generations insert so a hung store
// cannot hold a response the caller has already earned.
const auditTimeout = 10 * time.Second

// auditGeneration writes the generations audit row. Best-effort: a failed
// write loses the cost record's content link, not the request.
func (h *GenerateHandler) auditGeneration(ctx context.Context, identity domain.Identity, feature domain.Feature, result *ai.GenerateResult) uuid.NullUUID {
	ctx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	var accountID uuid.NullUUID
	if identity.IsSubscriber() {
		accountID = uuid.NullUUID{UUID: *identity.AccountID, Valid: true}
	}

	id, err := h.store.InsertGeneration(ctx, domain.Generation{
		ID:        uuid.New(),
		AccountID: accountID,
		Feature:   feature,
		Model:     result.Model,
		Content:   result.Content,
	})
	if err != nil {
		h.logger.Error("failed to persist generation record", "feature", feature, "error", err)
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

type quotaResponse struct {
	Allowed   bool        `json:"allowed"`
	Remaining interface{} `json:"remaining"`
}

// Quota reports the caller's current allowance for a feature without
// consuming anything.
func (h *GenerateHandler) Quota(w http.ResponseWriter, r *http.Request) {
	featureParam := r.URL.Query().Get("feature")
	if featureParam == "" {
		featureParam = string(domain.FeatureScript)
	}

	feature, err := domain.ParseFeature(featureParam)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	decision, err := h.access.CheckAccess(r.Context(), middleware.GetIdentity(r.Context()), feature)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, quotaResponse{
		Allowed:   decision.Allowed,
		Remaining: remainingValue(decision.Remaining),
	})
}

// remainingValue renders the remaining count for JSON: an integer, or the
// string "unlimited" for uncapped tiers.
func remainingValue(remaining int) interface{} {
	if remaining == domain.Unlimited {
		return "unlimited"
	}
	return remaining
}
