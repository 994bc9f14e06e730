// Package verification implements the gateway to remote insurance
// eligibility and patient purchase-history endpoints. Remote failures never
// escape this package as errors; they are normalized to value-level
// "unavailable" results so a network blip cannot crash a checkout.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/afyapos/compliance/pkg/circuitbreaker"
)

// UnavailableMessage is the canonical error marker callers check for. It is
// part of the wire contract with the POS client.
const UnavailableMessage = "Verification failed"

// DefaultHistoryDays is the lookback window for patient purchase history.
const DefaultHistoryDays = 30

// Result is an insurance eligibility response. A non-empty Error means the
// check was unavailable; all payload fields are then meaningless.
type Result struct {
	Eligible           bool    `json:"eligible,omitempty"`
	CoveragePercentage float64 `json:"coverage_percentage,omitempty"`
	CopayPercentage    float64 `json:"copay_percentage,omitempty"`
	RequiresPreauth    bool    `json:"requires_preauth,omitempty"`
	PreauthThreshold   float64 `json:"preauth_threshold,omitempty"`
	MemberName         string  `json:"member_name,omitempty"`
	ValidUntil         string  `json:"valid_until,omitempty"`
	Error              string  `json:"error,omitempty"`
}

// Unavailable reports whether the verification could not be performed.
func (r *Result) Unavailable() bool { return r.Error != "" }

// HistoryItem is one recently purchased pharmaceutical, used by downstream
// interaction checks.
type HistoryItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	GenericName  string `json:"generic_name,omitempty"`
	Date         string `json:"date"`
	Interactions string `json:"interactions,omitempty"`
}

// Config holds gateway configuration
type Config struct {
	// BaseURL of the verification service, without trailing slash
	BaseURL string
	// APIKey sent on every request
	APIKey string
	// RequestTimeout bounds each remote call
	RequestTimeout time.Duration
}

// DefaultConfig returns defaults for a local verification stub.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8090",
		RequestTimeout: 5 * time.Second,
	}
}

// Gateway issues the remote checks. Insurance and history calls are
// independent and may be issued concurrently; each is guarded by its own
// circuit breaker.
type Gateway struct {
	cfg       Config
	client    *http.Client
	logger    *zap.Logger
	tracer    trace.Tracer
	insurance *circuitbreaker.Breaker
	history   *circuitbreaker.Breaker
}

// New creates a gateway.
func New(cfg Config, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	insurance, err := circuitbreaker.New(circuitbreaker.DefaultConfig("insurance-verification"), logger)
	if err != nil {
		return nil, err
	}
	history, err := circuitbreaker.New(circuitbreaker.DefaultConfig("patient-history"), logger)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:    logger,
		tracer:    otel.Tracer("verification-gateway"),
		insurance: insurance,
		history:   history,
	}, nil
}

// VerifyInsurance checks member eligibility with the provider. It always
// returns a usable value: either the provider payload or the unavailable
// marker. Callers decide whether an unavailable check blocks the sale.
func (g *Gateway) VerifyInsurance(ctx context.Context, memberNumber, providerID string) *Result {
	ctx, span := g.tracer.Start(ctx, "verify_insurance",
		trace.WithAttributes(attribute.String("provider_id", providerID)))
	defer span.End()

	body := map[string]string{
		"member_number": memberNumber,
		"provider_id":   providerID,
	}

	out, err := g.insurance.Execute(ctx, func() (any, error) {
		var res Result
		if err := g.post(ctx, "/verify_insurance", body, &res); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		g.logger.Warn("insurance verification unavailable",
			zap.String("provider_id", providerID),
			zap.Error(err))
		span.RecordError(err)
		return &Result{Error: UnavailableMessage}
	}

	res := out.(*Result)
	if res.Unavailable() {
		// Remote reported a business-level error; pass it through as-is.
		return res
	}
	return res
}

// PatientHistory returns the patient's pharmaceutical purchases within the
// lookback window, or an empty list when the endpoint is unavailable. It
// never returns an error.
func (g *Gateway) PatientHistory(ctx context.Context, patientID string, days int) []HistoryItem {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	ctx, span := g.tracer.Start(ctx, "patient_history",
		trace.WithAttributes(attribute.Int("days", days)))
	defer span.End()

	body := map[string]any{
		"patient_id": patientID,
		"days":       days,
	}

	out, err := g.history.Execute(ctx, func() (any, error) {
		var res struct {
			Products []HistoryItem `json:"products"`
			Error    string        `json:"error,omitempty"`
		}
		if err := g.post(ctx, "/get_patient_history", body, &res); err != nil {
			return nil, err
		}
		if res.Error != "" {
			return nil, fmt.Errorf("remote error: %s", res.Error)
		}
		return res.Products, nil
	})
	if err != nil {
		g.logger.Warn("patient history unavailable",
			zap.String("patient_id", patientID),
			zap.Error(err))
		span.RecordError(err)
		return []HistoryItem{}
	}

	items, _ := out.([]HistoryItem)
	if items == nil {
		items = []HistoryItem{}
	}
	return items
}

func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
