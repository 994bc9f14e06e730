// Package handlers provides HTTP handlers for the compliance API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/internal/api/middleware"
	"github.com/afyapos/compliance/internal/domain/dispensing"
	"github.com/afyapos/compliance/internal/domain/order"
	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/insurance"
	"github.com/afyapos/compliance/internal/observability/metrics"
	"github.com/afyapos/compliance/internal/register"
	"github.com/afyapos/compliance/internal/verification"
)

// LotLister feeds the batch selector with candidate lots.
type LotLister interface {
	ListByProduct(ctx context.Context, productID string) ([]*dispensing.Lot, error)
}

// PrescriptionStore loads prescriptions for matching and dispensing.
type PrescriptionStore interface {
	Get(ctx context.Context, id string) (*prescription.Prescription, error)
	ListDispensable(ctx context.Context, limit int) ([]*prescription.Prescription, error)
}

// Finalizer persists the post-sale effects of a finalized order.
type Finalizer interface {
	SaveFinalization(ctx context.Context, rx *prescription.Prescription, entries []register.Entry) error
}

// Verifier issues the remote insurance and history checks.
type Verifier interface {
	VerifyInsurance(ctx context.Context, memberNumber, providerID string) *verification.Result
	PatientHistory(ctx context.Context, patientID string, days int) []verification.HistoryItem
}

// ComplianceHandler serves the POS-facing compliance endpoints.
type ComplianceHandler struct {
	lots      LotLister
	rxStore   PrescriptionStore
	finalizer Finalizer
	verifier  Verifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewComplianceHandler creates the handler. metrics may be nil.
func NewComplianceHandler(lots LotLister, rxStore PrescriptionStore, finalizer Finalizer, verifier Verifier, m *metrics.Metrics, logger *zap.Logger) *ComplianceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceHandler{
		lots:      lots,
		rxStore:   rxStore,
		finalizer: finalizer,
		verifier:  verifier,
		metrics:   m,
		logger:    logger,
	}
}

// Routes returns the handler routes
func (h *ComplianceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products/{productID}/lots", h.CandidateLots)
	r.Get("/prescriptions", h.SearchPrescriptions)
	r.Get("/prescriptions/{id}", h.GetPrescription)
	r.Post("/orders/evaluate", h.EvaluateOrder)
	r.Post("/orders/finalize", h.FinalizeOrder)
	r.Post("/insurance/claims/draft", h.DraftClaim)
	r.Post("/verify/insurance", h.VerifyInsurance)
	r.Post("/verify/patient-history", h.PatientHistory)
	return r
}

// LotsResponse lists FEFO-ordered candidates with the default selection.
type LotsResponse struct {
	Candidates   []dispensing.View `json:"candidates"`
	DefaultLotID string            `json:"default_lot_id,omitempty"`
}

// CandidateLots handles GET /products/{productID}/lots. An optional `date`
// query parameter (YYYY-MM-DD) overrides the reference date, which auditors
// use to replay past selections.
func (h *ComplianceHandler) CandidateLots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "productID")

	tracer := otel.Tracer("compliance-handler")
	ctx, span := tracer.Start(ctx, "candidate_lots")
	defer span.End()
	span.SetAttributes(attribute.String("product_id", productID))

	today := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.jsonError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		today = parsed
	}

	lots, err := h.lots.ListByProduct(ctx, productID)
	if err != nil {
		h.logger.Error("list lots failed", zap.String("product_id", productID), zap.Error(err))
		h.jsonError(w, "failed to list lots", http.StatusInternalServerError)
		return
	}

	picker := dispensing.NewBatchPicker(lots, today)

	resp := LotsResponse{Candidates: make([]dispensing.View, 0, len(picker.Candidates()))}
	for _, lot := range picker.Candidates() {
		resp.Candidates = append(resp.Candidates, dispensing.Evaluate(lot, today, dispensing.DefaultAlertWindowDays))
	}
	if selected, ok := picker.Selected(); ok {
		resp.DefaultLotID = selected.ID
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// SearchPrescriptions handles GET /prescriptions?q=. An empty query returns
// every dispensable prescription.
func (h *ComplianceHandler) SearchPrescriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := h.rxStore.ListDispensable(ctx, 200)
	if err != nil {
		h.logger.Error("list prescriptions failed", zap.Error(err))
		h.jsonError(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}

	matched := prescription.Filter(all, r.URL.Query().Get("q"))
	if matched == nil {
		matched = []*prescription.Prescription{}
	}
	h.writeJSON(w, http.StatusOK, matched)
}

// GetPrescription handles GET /prescriptions/{id}
func (h *ComplianceHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	rx, err := h.rxStore.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, prescription.ErrNotFound) {
			h.jsonError(w, "prescription not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "failed to load prescription", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rx)
}

// EvaluateResponse carries the recomputed compliance flags for an order.
type EvaluateResponse struct {
	HasPrescriptionItems    bool            `json:"has_prescription_items"`
	HasControlledSubstances bool            `json:"has_controlled_substances"`
	Extension               order.Extension `json:"extension"`
}

// EvaluateOrder handles POST /orders/evaluate. The POS posts the order
// after every line change and stores the returned extension.
func (h *ComplianceHandler) EvaluateOrder(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ck := order.NewCheckout(&o)
	ck.Evaluate()
	if h.metrics != nil {
		h.metrics.OrdersEvaluated.Inc()
	}

	h.writeJSON(w, http.StatusOK, EvaluateResponse{
		HasPrescriptionItems:    o.Pharmacy.HasPrescriptionItems,
		HasControlledSubstances: order.HasControlledSubstances(&o),
		Extension:               o.Pharmacy,
	})
}

// FinalizeRequest is the request body for finalizing an order.
type FinalizeRequest struct {
	Order               order.Order               `json:"order"`
	AuthorizedBy        string                    `json:"authorized_by"`
	VerificationOutcome order.VerificationOutcome `json:"verification_outcome,omitempty"`
}

// FinalizeResponse reports the post-sale effects.
type FinalizeResponse struct {
	Status              string              `json:"status"`
	RegisterEntries     int                 `json:"register_entries"`
	PrescriptionStatus  prescription.Status `json:"prescription_status,omitempty"`
	VerificationOutcome string              `json:"verification_outcome,omitempty"`
}

// FinalizeOrder handles POST /orders/finalize. It replays the compliance
// gates server-side, records prescription dispensing and queues the
// controlled drugs register entries.
func (h *ComplianceHandler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("compliance-handler")
	ctx, span := tracer.Start(ctx, "finalize_order")
	defer span.End()

	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order_id", req.Order.ID))

	ck := order.NewCheckout(&req.Order)
	ck.Evaluate()
	if err := ck.ReadyForVerification(); err != nil {
		if h.metrics != nil {
			h.metrics.ComplianceBlocks.WithLabelValues("prescription_required").Inc()
		}
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	outcome := req.VerificationOutcome
	if outcome == order.VerificationNotRun {
		outcome = order.VerificationPassed
	}
	if err := ck.RecordVerification(outcome); err != nil {
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := ck.Finalize(); err != nil {
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var rx *prescription.Prescription
	if req.Order.Pharmacy.PrescriptionID != nil {
		var err error
		rx, err = h.rxStore.Get(ctx, *req.Order.Pharmacy.PrescriptionID)
		if err != nil {
			if errors.Is(err, prescription.ErrNotFound) {
				h.jsonError(w, "linked prescription not found", http.StatusUnprocessableEntity)
				return
			}
			h.jsonError(w, "failed to load prescription", http.StatusInternalServerError)
			return
		}

		for i := range req.Order.Lines {
			line := &req.Order.Lines[i]
			if line.Product == nil {
				continue
			}
			err := rx.RecordDispense(line.Product.ID, line.Quantity)
			if errors.Is(err, prescription.ErrLineNotFound) {
				// Non-prescription items ride on the same order.
				continue
			}
			if err != nil {
				if h.metrics != nil {
					h.metrics.ComplianceBlocks.WithLabelValues("dispense_rejected").Inc()
				}
				h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
		}
	}

	authorizedBy := req.AuthorizedBy
	if authorizedBy == "" {
		authorizedBy = middleware.GetTerminalID(ctx)
	}
	entries := register.BuildEntries(&req.Order, rx, authorizedBy, time.Now())

	if err := h.finalizer.SaveFinalization(ctx, rx, entries); err != nil {
		h.logger.Error("finalization save failed",
			zap.String("order_id", req.Order.ID),
			zap.Error(err))
		h.jsonError(w, "failed to save finalization", http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.OrdersFinalized.Inc()
		h.metrics.RegisterEntriesBuilt.Add(float64(len(entries)))
	}
	h.logger.Info("order finalized",
		zap.String("order_id", req.Order.ID),
		zap.Int("register_entries", len(entries)),
		zap.String("verification", string(outcome)))

	resp := FinalizeResponse{
		Status:              "finalized",
		RegisterEntries:     len(entries),
		VerificationOutcome: string(outcome),
	}
	if rx != nil {
		resp.PrescriptionStatus = rx.Status
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ClaimRequest is the request body for drafting an insurance claim.
type ClaimRequest struct {
	Order    order.Order        `json:"order"`
	Provider insurance.Provider `json:"provider"`
}

// ClaimResponse returns the adjudicated claim draft.
type ClaimResponse struct {
	Claim        *insurance.Claim `json:"claim"`
	NeedsPreauth bool             `json:"needs_preauth"`
}

// DraftClaim handles POST /insurance/claims/draft
func (h *ComplianceHandler) DraftClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Provider.Validate(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	claim, err := insurance.DraftClaim(&req.Order, &req.Provider, time.Now())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, ClaimResponse{
		Claim:        claim,
		NeedsPreauth: req.Provider.NeedsPreauth(claim.Split.Total),
	})
}

// VerifyRequest is the request body for insurance verification.
type VerifyRequest struct {
	MemberNumber string `json:"member_number"`
	ProviderID   string `json:"provider_id"`
}

// VerifyInsurance handles POST /verify/insurance. The response is always
// 200; an unavailable check is reported in the payload's error field so the
// POS can warn without aborting checkout.
func (h *ComplianceHandler) VerifyInsurance(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := h.verifier.VerifyInsurance(r.Context(), req.MemberNumber, req.ProviderID)
	if h.metrics != nil {
		outcome := "ok"
		if result.Unavailable() {
			outcome = "unavailable"
		}
		h.metrics.VerificationRequests.WithLabelValues("insurance", outcome).Inc()
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HistoryRequest is the request body for a patient history lookup.
type HistoryRequest struct {
	PatientID string `json:"patient_id"`
	Days      int    `json:"days,omitempty"`
}

// PatientHistory handles POST /verify/patient-history. Unavailable history
// degrades to an empty list, never a failure status.
func (h *ComplianceHandler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	items := h.verifier.PatientHistory(r.Context(), req.PatientID, req.Days)
	if h.metrics != nil {
		h.metrics.VerificationRequests.WithLabelValues("history", "ok").Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"products": items})
}

func (h *ComplianceHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *ComplianceHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
