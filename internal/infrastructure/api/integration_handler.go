package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ledgerpay-shopify-layer/internal/application"
	"ledgerpay-shopify-layer/internal/domain"
	"ledgerpay-shopify-layer/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Commands accepted by the integration settings endpoint.
const (
	CommandSaveCredentials  = "ShopifySaveCredentials"
	CommandClearCredentials = "ShopifyClearCredentials"
)

// IntegrationHandler exposes the Shopify integration HTTP surface: order
// reconciliation, the storefront script, and credential management.
type IntegrationHandler struct {
	reconciler   *application.ReconciliationService
	integrations *application.IntegrationService
	scripts      *application.ScriptService
	logger       zerolog.Logger
}

// NewIntegrationHandler creates a new integration handler.
func NewIntegrationHandler(
	reconciler *application.ReconciliationService,
	integrations *application.IntegrationService,
	scripts *application.ScriptService,
	logger zerolog.Logger,
) *IntegrationHandler {
	return &IntegrationHandler{
		reconciler:   reconciler,
		integrations: integrations,
		scripts:      scripts,
		logger:       logger,
	}
}

// ReconcileOrder handles GET /stores/{storeID}/integrations/shopify/{orderID}.
// Responses: 200 with {invoiceId,status}, 200 with {} (checkOnly, nothing
// found yet), 404 when no invoice exists or may be created, 502 when Shopify
// is unreachable, 500 on store failures.
func (h *IntegrationHandler) ReconcileOrder(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	orderID := chi.URLParam(r, "orderID")
	checkOnly, _ := strconv.ParseBool(r.URL.Query().Get("checkOnly"))

	result, err := h.reconciler.Reconcile(r.Context(), storeID, orderID, checkOnly)
	switch {
	case err == nil && result != nil:
		outcome := "matched"
		if result.Created {
			outcome = "created"
		}
		metrics.ReconcileOutcomes.WithLabelValues(outcome).Inc()
		writeJSON(w, http.StatusOK, result)
	case err == nil:
		metrics.ReconcileOutcomes.WithLabelValues("accepted").Inc()
		writeJSON(w, http.StatusOK, struct{}{})
	case errors.Is(err, domain.ErrNotFound):
		metrics.ReconcileOutcomes.WithLabelValues("not_found").Inc()
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		metrics.ReconcileOutcomes.WithLabelValues("error").Inc()
		h.logger.Error().Err(err).Str("storeId", storeID).Str("orderId", orderID).Msg("Reconciliation failed")
		var remoteErr *domain.RemoteError
		if errors.As(err, &remoteErr) {
			http.Error(w, "Shopify unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Script handles GET /stores/{storeID}/integrations/shopify/shopify.js. It
// is unauthenticated: Shopify storefront pages load it directly.
func (h *IntegrationHandler) Script(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	content, err := h.scripts.ScriptFor(storeID)
	if err != nil {
		h.logger.Error().Err(err).Str("storeId", storeID).Msg("Failed to assemble Shopify script")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write([]byte(content))
}

// GetSettings handles GET /stores/{storeID}/integrations/shopify.
func (h *IntegrationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	view, err := h.integrations.Settings(r.Context(), storeID)
	if err != nil {
		h.writeError(w, storeID, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// settingsCommand is the POST body for the settings endpoint. Credentials
// arrive either as explicit fields or as a single example URL to parse.
type settingsCommand struct {
	Command    string `json:"command"`
	APIKey     string `json:"apiKey"`
	APISecret  string `json:"apiSecret"`
	ShopName   string `json:"shopName"`
	ExampleURL string `json:"exampleUrl"`
}

type settingsResponse struct {
	Message  string                    `json:"message"`
	Settings *application.SettingsView `json:"settings,omitempty"`
}

// SaveSettings handles POST /stores/{storeID}/integrations/shopify.
func (h *IntegrationHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	var cmd settingsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate := &domain.ShopifySettings{
		APIKey:    cmd.APIKey,
		APISecret: cmd.APISecret,
		ShopName:  cmd.ShopName,
	}
	command := cmd.Command
	if cmd.ExampleURL != "" {
		parsed, err := domain.SettingsFromExampleURL(cmd.ExampleURL)
		if err != nil {
			h.writeError(w, storeID, err)
			return
		}
		candidate = parsed
		command = CommandSaveCredentials
	}

	switch command {
	case CommandSaveCredentials:
		if err := h.integrations.Activate(r.Context(), storeID, candidate); err != nil {
			h.writeError(w, storeID, err)
			return
		}
		h.respondWithSettings(w, r, storeID, "Shopify integration successfully updated")
	case CommandClearCredentials:
		if err := h.integrations.Deactivate(r.Context(), storeID); err != nil {
			h.writeError(w, storeID, err)
			return
		}
		h.respondWithSettings(w, r, storeID, "Shopify integration credentials cleared")
	default:
		http.Error(w, "Unknown command", http.StatusBadRequest)
	}
}

func (h *IntegrationHandler) respondWithSettings(w http.ResponseWriter, r *http.Request, storeID, message string) {
	view, err := h.integrations.Settings(r.Context(), storeID)
	if err != nil {
		h.writeError(w, storeID, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Message: message, Settings: view})
}

// writeError maps the domain error taxonomy onto HTTP responses. Validation,
// auth and permission failures carry their message to the user; everything
// else is logged and masked.
func (h *IntegrationHandler) writeError(w http.ResponseWriter, storeID string, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": validationErr.Message})
	case errors.Is(err, domain.ErrCredentialsRejected):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "Shopify rejected the provided credentials, please correct the values and try again",
		})
	case errors.Is(err, domain.ErrScopesInsufficient):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "Please grant the private app permissions for read_orders, write_script_tags",
		})
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Store not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrConcurrentEdit):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "The settings were changed by another session, please reload and try again",
		})
	default:
		h.logger.Error().Err(err).Str("storeId", storeID).Msg("Integration settings request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
