package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Handler serves the admin audit log listing at /api/v1/audit.
type Handler struct {
	repo *Repository
}

// NewHandler constructs the handler.
func NewHandler(repo *Repository) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("audit handler: nil repository")
	}
	return &Handler{repo: repo}, nil
}

type entryResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Role          string          `json:"role,omitempty"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resourceType"`
	ResourceID    string          `json:"resourceId,omitempty"`
	CompanyID     string          `json:"companyId,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	PayloadDigest string          `json:"payloadDigest,omitempty"`
	IP            string          `json:"ip,omitempty"`
	UserAgent     string          `json:"userAgent,omitempty"`
	CreatedAt     string          `json:"createdAt"`
}

// ServeHTTP lists recent entries, newest first. Role enforcement happens
// in the auth middleware.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "audit listing failed", http.StatusInternalServerError)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryResponse{
			ID:            e.ID,
			UserID:        e.UserID,
			Role:          e.Role,
			Action:        e.Action,
			ResourceType:  e.ResourceType,
			ResourceID:    e.ResourceID,
			CompanyID:     e.CompanyID,
			Metadata:      e.Metadata,
			PayloadDigest: e.PayloadDigest,
			IP:            e.IP,
			UserAgent:     e.UserAgent,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
