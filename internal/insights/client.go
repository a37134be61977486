// Package insights talks to the external AI insight service.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrosync/agrosync-api/internal/observability"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"github.com/sony/gobreaker"
)

// Analysis types understood by the insight service
const (
	AnalysisYieldPrediction  = "yield_prediction"
	AnalysisFinancialOutlook = "financial_outlook"
)

// DefaultModel is reported when the service does not name the model it used.
const DefaultModel = "gpt-4"

// ErrUnavailable is returned when no insight service is configured or the breaker is open.
var ErrUnavailable = errors.New("insight service unavailable")

// Request is the payload sent to the insight service.
type Request struct {
	OrganizationID string  `json:"organizationId"`
	UserID         string  `json:"userId"`
	FarmID         *string `json:"farmId,omitempty"`
	AnalysisType   string  `json:"analysisType"`
	Data           any     `json:"data,omitempty"`
}

// Result is what the insight service returns.
type Result struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
	Model           string   `json:"model"`
}

// Client generates insights. Implementations must honour ctx cancellation.
type Client interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Disabled is used when INSIGHT_SERVICE_URL is empty.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (*Result, error) {
	return nil, ErrUnavailable
}

// HTTPClient calls the insight service over HTTP behind a circuit breaker.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPClient builds a client for baseURL. The breaker trips after at least five calls with a 60% failure
// ratio and stays open for 30 seconds.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "insight-service",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		}),
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) (*Result, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.InsightRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		observability.InsightRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	observability.InsightRequests.WithLabelValues("ok").Inc()

	result := out.(*Result)
	if result.Model == "" {
		result.Model = DefaultModel
	}
	return result, nil
}

func (c *HTTPClient) do(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode insight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/insights", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build insight request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call insight service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("insight service returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode insight response: %w", err)
	}
	return &result, nil
}
