package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fulfillment-billing/internal/audit"
	"fulfillment-billing/internal/auth"
	companyapp "fulfillment-billing/internal/company/application"
	company "fulfillment-billing/internal/company/domain"
)

// CompanyHandler handles company APIs under /api/v1/companies.
type CompanyHandler struct {
	service     *companyapp.CompanyService
	auditLogger audit.Logger
}

// NewCompanyHandler constructs a handler.
func NewCompanyHandler(service *companyapp.CompanyService, auditLogger audit.Logger) (*CompanyHandler, error) {
	if service == nil {
		return nil, errors.New("company handler: nil service")
	}
	return &CompanyHandler{service: service, auditLogger: auditLogger}, nil
}

type companyPayload struct {
	Name          string `json:"name"`
	INN           string `json:"inn"`
	LegalAddress  string `json:"legalAddress"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	WBAPIKey      string `json:"wbApiKey"`
}

type companyResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	INN           string `json:"inn"`
	LegalAddress  string `json:"legalAddress,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	HasAPIKey     bool   `json:"hasApiKey"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// The marketplace key never leaves the service; responses only say
// whether one is set.
func toCompanyResponse(c *company.Company) companyResponse {
	return companyResponse{
		ID:            c.ID,
		Name:          c.Name,
		INN:           c.INN,
		LegalAddress:  c.LegalAddress,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Phone:         c.Phone,
		HasAPIKey:     c.WBAPIKey != "",
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
}

// ServeHTTP handles company routes.
func (h *CompanyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/companies" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if strings.HasPrefix(path, "/api/v1/companies/") {
		rest := strings.TrimPrefix(path, "/api/v1/companies/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *CompanyHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
			return
		case http.MethodPut:
			h.handleUpdate(w, r, id)
			return
		case http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		}
	}
	if len(parts) == 2 && parts[1] == "validate-key" && r.Method == http.MethodPost {
		h.handleValidateKey(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *CompanyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req companyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	c, err := h.service.Create(r.Context(), userID, toInput(req))
	if err != nil {
		respondCompanyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toCompanyResponse(c))
	h.logAudit(r, c.ID, "company.create", map[string]any{"inn": c.INN})
}

func (h *CompanyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	companies, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondCompanyError(w, err)
		return
	}
	resp := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		resp = append(resp, toCompanyResponse(c))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *CompanyHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondCompanyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toCompanyResponse(c))
}

func (h *CompanyHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req companyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	c, err := h.service.Update(r.Context(), userID, id, toInput(req))
	if err != nil {
		respondCompanyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toCompanyResponse(c))
	h.logAudit(r, c.ID, "company.update", map[string]any{"inn": c.INN})
}

func (h *CompanyHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondCompanyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, id, "company.delete", nil)
}

func (h *CompanyHandler) handleValidateKey(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	valid, err := h.service.ValidateKey(r.Context(), userID, id)
	if err != nil {
		respondCompanyError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"valid": valid})
}

func (h *CompanyHandler) logAudit(r *http.Request, companyID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		UserID:       userID,
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "company",
		ResourceID:   companyID,
		CompanyID:    companyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toInput(req companyPayload) companyapp.CreateCompanyInput {
	return companyapp.CreateCompanyInput{
		Name:          req.Name,
		INN:           req.INN,
		LegalAddress:  req.LegalAddress,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		WBAPIKey:      req.WBAPIKey,
	}
}

func respondCompanyError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, company.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, company.ErrINNConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
