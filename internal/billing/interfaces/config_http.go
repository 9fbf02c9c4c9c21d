package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fulfillment-billing/internal/audit"
	"fulfillment-billing/internal/auth"
	billingapp "fulfillment-billing/internal/billing/application"
	billing "fulfillment-billing/internal/billing/domain"
)

// ConfigHandler handles billing configuration APIs under
// /api/v1/billing-configs.
type ConfigHandler struct {
	service     *billingapp.ConfigService
	auditLogger audit.Logger
}

// NewConfigHandler constructs a handler.
func NewConfigHandler(service *billingapp.ConfigService, auditLogger audit.Logger) (*ConfigHandler, error) {
	if service == nil {
		return nil, errors.New("config handler: nil service")
	}
	return &ConfigHandler{service: service, auditLogger: auditLogger}, nil
}

type configResponse struct {
	CompanyID string                      `json:"companyId"`
	Services  []billing.ServiceDefinition `json:"services"`
	Stored    bool                        `json:"stored"`
}

func toConfigResponse(c *billing.Config) configResponse {
	return configResponse{
		CompanyID: c.CompanyID,
		Services:  c.Services,
		Stored:    c.ID != "",
	}
}

// ServeHTTP handles configuration routes.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/billing-configs" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/billing-configs/") {
		companyID := strings.TrimPrefix(path, "/api/v1/billing-configs/")
		if companyID == "" || strings.Contains(companyID, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, companyID)
		case http.MethodPut:
			h.handlePut(w, r, companyID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ConfigHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	configs, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]configResponse, 0, len(configs))
	for _, c := range configs {
		resp = append(resp, toConfigResponse(c))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *ConfigHandler) handleGet(w http.ResponseWriter, r *http.Request, companyID string) {
	userID := auth.UserIDFromContext(r.Context())
	cfg, err := h.service.Get(r.Context(), userID, companyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toConfigResponse(cfg))
}

func (h *ConfigHandler) handlePut(w http.ResponseWriter, r *http.Request, companyID string) {
	var req struct {
		Services []billing.ServiceDefinition `json:"services"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	cfg, err := h.service.Put(r.Context(), userID, companyID, req.Services)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toConfigResponse(cfg))

	if h.auditLogger != nil && userID != "" {
		meta, _ := json.Marshal(map[string]any{"services": len(cfg.Services)})
		_ = h.auditLogger.Log(r.Context(), audit.Entry{
			UserID:       userID,
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "billing_config.update",
			ResourceType: "billing_config",
			ResourceID:   cfg.ID,
			CompanyID:    companyID,
			Metadata:     meta,
			IP:           audit.ClientIP(r),
			UserAgent:    r.UserAgent(),
		})
	}
}
