package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fulfillment-billing/internal/audit"
	"fulfillment-billing/internal/auth"
	billingapp "fulfillment-billing/internal/billing/application"
	billing "fulfillment-billing/internal/billing/domain"
	company "fulfillment-billing/internal/company/domain"
	"fulfillment-billing/internal/observability/metrics"
)

// BillingHandler handles billing record APIs under /api/v1/billings.
type BillingHandler struct {
	service     *billingapp.BillingService
	companies   billingapp.CompanyProvider
	auditLogger audit.Logger
}

// NewBillingHandler constructs a handler.
func NewBillingHandler(service *billingapp.BillingService, companies billingapp.CompanyProvider, auditLogger audit.Logger) (*BillingHandler, error) {
	if service == nil {
		return nil, errors.New("billing handler: nil service")
	}
	if companies == nil {
		return nil, errors.New("billing handler: nil company provider")
	}
	return &BillingHandler{service: service, companies: companies, auditLogger: auditLogger}, nil
}

type billingResponse struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"companyId"`
	CompanyName     string          `json:"companyName,omitempty"`
	CompanyINN      string          `json:"companyInn,omitempty"`
	PeriodStart     string          `json:"periodStart"`
	PeriodEnd       string          `json:"periodEnd"`
	Status          string          `json:"status"`
	TotalAmount     float64         `json:"totalAmount"`
	Calculations    json.RawMessage `json:"calculations,omitempty"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

func toBillingResponse(b *billing.Billing, companyName, companyINN string) billingResponse {
	resp := billingResponse{
		ID:          b.ID,
		CompanyID:   b.CompanyID,
		CompanyName: companyName,
		CompanyINN:  companyINN,
		PeriodStart: b.PeriodStart.Format(time.RFC3339),
		PeriodEnd:   b.PeriodEnd.Format(time.RFC3339),
		Status:      b.Status,
		TotalAmount: b.TotalAmount,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Calculations != "" {
		resp.Calculations = json.RawMessage(b.Calculations)
	}
	return resp
}

// ServeHTTP handles billing routes.
func (h *BillingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/billings" {
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
	if strings.HasPrefix(path, "/api/v1/billings/") {
		rest := strings.TrimPrefix(path, "/api/v1/billings/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *BillingHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
		case http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		}
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "generate":
			if r.Method == http.MethodPost {
				h.handleGenerate(w, r, id)
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, id, "xlsx")
				return
			}
		case "export.csv":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, id, "csv")
				return
			}
		case "data":
			if r.Method == http.MethodGet {
				h.handleData(w, r, id)
				return
			}
		case "status":
			if r.Method == http.MethodPatch {
				h.handleStatus(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *BillingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID   string `json:"companyId"`
		PeriodStart string `json:"periodStart"`
		PeriodEnd   string `json:"periodEnd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	periodStart, err := parsePeriodBound(req.PeriodStart)
	if err != nil {
		http.Error(w, "invalid periodStart", http.StatusBadRequest)
		return
	}
	periodEnd, err := parsePeriodBound(req.PeriodEnd)
	if err != nil {
		http.Error(w, "invalid periodEnd", http.StatusBadRequest)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.Create(r.Context(), userID, req.CompanyID, periodStart, periodEnd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toBillingResponse(b, "", ""))
}

func (h *BillingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]billingResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toBillingResponse(item.Billing, item.CompanyName, item.CompanyINN))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *BillingHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	name, inn := h.companySummary(r, b.CompanyID, userID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toBillingResponse(b, name, inn))
}

func (h *BillingHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "", id, "billing.delete", nil)
}

func (h *BillingHandler) handleGenerate(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.Generate(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	name, inn := h.companySummary(r, b.CompanyID, userID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toBillingResponse(b, name, inn))
	h.logAudit(r, b.CompanyID, b.ID, "billing.generate", map[string]any{
		"periodStart": b.PeriodStart.Format(time.RFC3339),
		"periodEnd":   b.PeriodEnd.Format(time.RFC3339),
		"totalAmount": b.TotalAmount,
	})
}

func (h *BillingHandler) handleExport(w http.ResponseWriter, r *http.Request, id, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if b.Calculations == "" {
		result = metrics.ResultError
		http.Error(w, "billing not generated", http.StatusConflict)
		return
	}
	var calc billing.CalculationResult
	if err := json.Unmarshal([]byte(b.Calculations), &calc); err != nil {
		result = metrics.ResultError
		http.Error(w, "stored calculations unreadable", http.StatusInternalServerError)
		return
	}
	name, _ := h.companySummary(r, b.CompanyID, userID)

	var data []byte
	var contentType string
	switch format {
	case "xlsx":
		data, err = BuildBillingXLSX(b, name, calc)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, err = BuildBillingCSV(b, name, calc)
		contentType = "text/csv"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="billing-`+b.ID+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, b.CompanyID, b.ID, "billing.export", map[string]any{"format": format})
}

func (h *BillingHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.UpdateStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toBillingResponse(b, "", ""))
	h.logAudit(r, b.CompanyID, b.ID, "billing.status", map[string]any{"status": b.Status})
}

// handleData serves the raw stored activity bundle, useful when checking
// a disputed invoice against what the marketplace reported.
func (h *BillingHandler) handleData(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if b.MarketplaceData == "" {
		http.Error(w, "billing not generated", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(b.MarketplaceData))
}

func (h *BillingHandler) companySummary(r *http.Request, companyID, userID string) (string, string) {
	c, err := h.companies.Get(r.Context(), companyID, userID)
	if err != nil || c == nil {
		return "", ""
	}
	return c.Name, c.INN
}

func (h *BillingHandler) logAudit(r *http.Request, companyID, billingID, action string, meta map[string]any) {
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
		ResourceType: "billing",
		ResourceID:   billingID,
		CompanyID:    companyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// parsePeriodBound accepts RFC3339 timestamps or bare dates.
func parsePeriodBound(value string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, value); err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02", value)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, company.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, billingapp.ErrConfigMissing), errors.Is(err, billingapp.ErrAPIKeyMissing):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, company.ErrINNConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
