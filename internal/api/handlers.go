package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spidjo/billing-analyzer/internal/anomaly"
	"github.com/spidjo/billing-analyzer/internal/auth"
	"github.com/spidjo/billing-analyzer/internal/billing"
	"github.com/spidjo/billing-analyzer/internal/config"
	"github.com/spidjo/billing-analyzer/internal/dispatch"
	"github.com/spidjo/billing-analyzer/internal/report"
	"github.com/spidjo/billing-analyzer/internal/storage"
	"github.com/spidjo/billing-analyzer/pkg/models"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	config     *config.Config
	store      storage.Store
	auth       *auth.Service
	billing    *billing.Engine
	dispatcher *dispatch.Service

	scorer    *anomaly.Scorer
	assembler *report.Assembler
	renderer  *report.PDFRenderer
}

// NewHandlers creates new handlers
func NewHandlers(cfg *config.Config, store storage.Store, authSvc *auth.Service, engine *billing.Engine, dispatcher *dispatch.Service) *Handlers {
	return &Handlers{
		config:     cfg,
		store:      store,
		auth:       authSvc,
		billing:    engine,
		dispatcher: dispatcher,
		scorer:     anomaly.NewScorer(cfg.Anomaly.Threshold),
		assembler:  report.NewAssembler(cfg.Report.Title),
		renderer:   report.NewPDFRenderer(),
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "billing-analyzer",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Auth handlers

// Login authenticates a user and returns a session token
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// User handlers

// ListUsers lists all dashboard users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, users)
}

// CreateUser creates a new dashboard user
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string          `json:"username"`
		Password string          `json:"password"`
		Email    string          `json:"email"`
		Role     models.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email, req.Role)
	if errors.Is(err, storage.ErrDuplicate) {
		respondError(w, http.StatusConflict, "Username or email already exists")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusCreated, user)
}

// DeleteUser deletes a dashboard user by ID
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.DeleteUser(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Record handlers

// ListRecords lists all billing records
func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListRecords(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, records)
}

// IngestRecords inserts a batch of billing records, skipping duplicates
func (h *Handlers) IngestRecords(w http.ResponseWriter, r *http.Request) {
	var records []models.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusBadRequest, "No records provided")
		return
	}
	for _, rec := range records {
		if rec.CustomerID == "" || rec.BillingDate.IsZero() {
			respondError(w, http.StatusBadRequest, "Each record needs customer_id and billing_date")
			return
		}
	}

	inserted, err := h.store.InsertRecords(r.Context(), records)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusCreated, map[string]int{
		"inserted": inserted,
		"skipped":  len(records) - inserted,
	})
}

// GetCustomerHistory returns the most recent records for one customer
func (h *Handlers) GetCustomerHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := queryInt(r, "limit", 50)

	records, err := h.store.CustomerHistory(r.Context(), id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, records)
}

// Analytics handlers

// GetRevenueByMonth returns total revenue per calendar month
func (h *Handlers) GetRevenueByMonth(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.billing.RevenueByMonth(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, revenue)
}

// GetTopCustomers returns the highest-spending customers
func (h *Handlers) GetTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	top, err := h.billing.TopCustomers(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, top)
}

// GetAnomalies scores the full record set and returns flagged outliers
func (h *Handlers) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	threshold := h.thresholdFromQuery(r)

	records, err := h.store.ListRecords(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := h.scorer.Score(records, anomaly.ColumnCost, threshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, anomalies := anomaly.Summarize(res)

	respond(w, http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"stats":     stats,
		"anomalies": anomalies,
	})
}

// Report handlers

// DownloadAnomalyReport renders the anomaly report as a PDF download
func (h *Handlers) DownloadAnomalyReport(w http.ResponseWriter, r *http.Request) {
	threshold := h.thresholdFromQuery(r)

	records, err := h.store.ListRecords(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := h.scorer.Score(records, anomaly.ColumnCost, threshold)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, anomalies := anomaly.Summarize(res)

	payload := h.assembler.Assemble(stats, anomalies, h.config.Report.MaxRows, time.Now())
	pdf, err := h.renderer.Render(payload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="anomaly_report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// DispatchReport generates the anomaly report and emails it
func (h *Handlers) DispatchReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string  `json:"recipient"`
		CCSelf    bool    `json:"cc_self"`
		Threshold float64 `json:"threshold"`
		Message   string  `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	threshold := h.clampThreshold(req.Threshold)
	spec := dispatch.RecipientSpec{Primary: req.Recipient, CCSelf: req.CCSelf}

	receipt, err := h.dispatcher.Dispatch(r.Context(), dispatch.TriggerManual, spec, threshold, req.Message)
	if err != nil {
		var vErr *dispatch.ValidationError
		var dErr *dispatch.DeliveryError
		switch {
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, vErr.Error())
		case errors.As(err, &dErr):
			respondError(w, http.StatusBadGateway, dErr.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respond(w, http.StatusOK, receipt)
}

// Billing handlers

// RunMonthlyBilling charges every client the flat monthly fee
func (h *Handlers) RunMonthlyBilling(w http.ResponseWriter, r *http.Request) {
	result, err := h.billing.RunMonthlyBilling(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, result)
}

// Helper functions

// thresholdFromQuery reads the threshold query parameter, falling back to
// the configured sensitivity, and clamps it to the allowed range.
func (h *Handlers) thresholdFromQuery(r *http.Request) float64 {
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if t, err := strconv.ParseFloat(raw, 64); err == nil {
			return h.clampThreshold(t)
		}
	}
	if h.config.Anomaly.Sensitivity != "" {
		return h.clampThreshold(anomaly.ThresholdForSensitivity(h.config.Anomaly.Sensitivity))
	}
	return h.clampThreshold(h.config.Anomaly.Threshold)
}

func (h *Handlers) clampThreshold(t float64) float64 {
	if t <= 0 {
		t = h.config.Anomaly.Threshold
	}
	if t < h.config.Anomaly.MinThreshold {
		return h.config.Anomaly.MinThreshold
	}
	if t > h.config.Anomaly.MaxThreshold {
		return h.config.Anomaly.MaxThreshold
	}
	return t
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
