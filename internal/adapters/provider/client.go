package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/pkg/logger"
	"github.com/ecolens/ecolens/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 512

	minScore = 0
	maxScore = 10
)

// HTTPClient implements Provider against the analyzer's POST /analyze
// endpoint.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	cache   *resultCache
	logger  logger.Logger
}

// NewHTTPClient creates a client for the analyzer at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		cache:   newResultCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("provider")
	}
	return c
}

// analyzeRequest mirrors the analyzer's request schema.
type analyzeRequest struct {
	ProductName string `json:"product_name"`
}

// rawAnalysis mirrors the analyzer's loosely-typed response. Pointer fields
// distinguish absent from zero so validation can reject what is missing and
// backfill what is optional.
type rawAnalysis struct {
	Item                string              `json:"item"`
	SustainabilityScore *float64            `json:"sustainabilityScore"`
	XPGained            *int                `json:"xpGained"`
	CarbonFootprint     float64             `json:"carbonFootprint"`
	WaterUsage          float64             `json:"waterUsage"`
	LandfillTime        float64             `json:"landfillTime"`
	Recyclability       float64             `json:"recyclability"`
	Stages              map[string]rawStage `json:"stages"`
	Description         string              `json:"description"`
	Confidence          string              `json:"confidence"`
	DataSources         string              `json:"dataSources"`
	Error               string              `json:"error"`
}

type rawStage struct {
	Score  *float64 `json:"score"`
	Impact string   `json:"impact"`
}

// Analyze resolves an item name to a validated analysis, serving repeat
// lookups for the same normalized item from the cache.
func (c *HTTPClient) Analyze(ctx context.Context, item string) (model.Analysis, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return model.Analysis{}, fmt.Errorf("%w: empty item name", ErrInvalidItem)
	}

	cacheKey := strings.ToLower(item)
	if a, ok := c.cache.get(cacheKey); ok {
		metrics.RecordProviderCacheHit()
		return a, nil
	}

	start := time.Now()
	raw, err := c.post(ctx, item)
	metrics.RecordProviderLatency(time.Since(start))
	if err != nil {
		metrics.RecordProviderError()
		return model.Analysis{}, err
	}

	analysis, err := validate(raw)
	if err != nil {
		metrics.RecordProviderError()
		return model.Analysis{}, err
	}

	c.cache.put(cacheKey, analysis)
	return analysis, nil
}

func (c *HTTPClient) post(ctx context.Context, item string) (rawAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{ProductName: item})
	if err != nil {
		return rawAnalysis{}, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return rawAnalysis{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return rawAnalysis{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn(ctx, "analyzer returned non-OK status",
			logger.Int("status", resp.StatusCode),
			logger.String("item", item),
		)
		return rawAnalysis{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var raw rawAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return rawAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return raw, nil
}

// validate maps the loosely-typed payload to a strict Analysis, rejecting
// malformed responses before they can reach the progression engine. When the
// payload carries no xpGained, the XP is recomputed locally from the scores.
func validate(raw rawAnalysis) (model.Analysis, error) {
	if raw.Error != "" {
		return model.Analysis{}, fmt.Errorf("%w: %s", ErrInvalidItem, raw.Error)
	}
	if strings.TrimSpace(raw.Item) == "" {
		return model.Analysis{}, fmt.Errorf("%w: missing item", ErrMalformedPayload)
	}
	if raw.SustainabilityScore == nil {
		return model.Analysis{}, fmt.Errorf("%w: missing sustainabilityScore", ErrMalformedPayload)
	}
	score := *raw.SustainabilityScore
	if score < minScore || score > maxScore {
		return model.Analysis{}, fmt.Errorf("%w: sustainabilityScore %v out of range", ErrMalformedPayload, score)
	}

	stages := make(map[string]model.StageImpact, len(raw.Stages))
	for name, st := range raw.Stages {
		stageScore := score
		if st.Score != nil && *st.Score >= minScore && *st.Score <= maxScore {
			stageScore = *st.Score
		}
		stages[name] = model.StageImpact{Score: stageScore, Impact: st.Impact}
	}

	a := model.Analysis{
		Item:                strings.TrimSpace(raw.Item),
		SustainabilityScore: score,
		CarbonFootprint:     raw.CarbonFootprint,
		WaterUsage:          raw.WaterUsage,
		LandfillTime:        raw.LandfillTime,
		Recyclability:       raw.Recyclability,
		Stages:              stages,
		Description:         raw.Description,
		Confidence:          raw.Confidence,
		DataSources:         raw.DataSources,
	}
	if raw.XPGained != nil {
		a.XPGained = *raw.XPGained
	} else {
		a.XPGained = xpForAnalysis(score, stages)
	}
	return a, nil
}
