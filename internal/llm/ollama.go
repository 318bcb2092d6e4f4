package llm

// Package llm talks to a local Ollama server for the optional AI-assisted
// comparison. Models are prompted for strict JSON; responses from reasoning
// models wrap the payload in a thinking block and some models emit almost,
// but not quite, valid JSON, so extraction tolerates both.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wara/internal/config"
	"wara/internal/model"
)

// fallbackSummary is used when the model response is not parseable JSON.
const fallbackSummary = "Automatic analysis completed, but the response could not be parsed as structured data."

// thinkClose terminates the reasoning block emitted by deepseek-style models.
const thinkClose = "</think>"

// sentimentPromptChars caps the document excerpt used for tone analysis.
// A short excerpt is enough; sentiment rarely shifts past the opening pages.
const sentimentPromptChars = 2000

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ModelInfo describes one model installed on the Ollama server.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// Client is a minimal Ollama API client.
type Client struct {
	baseURL        string
	model          string
	maxPromptChars int
	httpClient     *http.Client
}

// NewClient builds a Client from configuration. Outbound requests are traced.
func NewClient(cfg config.OllamaConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		maxPromptChars: cfg.MaxPromptChars,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Model returns the configured default model name.
func (c *Client) Model() string {
	return c.model
}

// Available reports whether the Ollama server answers on /api/tags.
func (c *Client) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Models lists the models installed on the server.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build ollama request failed: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse ollama json failed: %w", err)
	}
	return parsed.Models, nil
}

// Generate runs a single non-streaming completion and returns the raw text.
func (c *Client) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	if modelName == "" {
		modelName = c.model
	}

	reqBody := map[string]any{
		"model":  modelName,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0.1,
			"top_p":       0.9,
			"num_predict": numPredict(modelName),
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build ollama request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse ollama json failed: %w", err)
	}
	return parsed.Response, nil
}

// numPredict sizes the completion budget. Reasoning models spend a large
// share of tokens on the thinking block before the JSON payload.
func numPredict(modelName string) int {
	if strings.Contains(modelName, "deepseek") {
		return 4096
	}
	return 2048
}

// CompareDocuments asks the model for a structured comparison of two
// processed revisions. The result always has a usable Summary; if the model
// output is not valid JSON a fallback analysis wrapping the raw text is
// returned instead of an error.
func (c *Client) CompareDocuments(ctx context.Context, base, compared *model.Document) (*model.LLMAnalysis, error) {
	prompt := c.buildComparePrompt(base, compared)
	raw, err := c.Generate(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}
	return ExtractAnalysis(raw), nil
}

// KeyPoints asks the model to extract the main points of one document.
func (c *Client) KeyPoints(ctx context.Context, doc *model.Document) ([]model.KeyPoint, error) {
	prompt := c.buildKeyPointsPrompt(doc)
	raw, err := c.Generate(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}

	payload, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("key point response is not valid json")
	}
	var parsed struct {
		KeyPoints []model.KeyPoint `json:"key_points"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parse key point json failed: %w", err)
	}
	return parsed.KeyPoints, nil
}

func (c *Client) buildComparePrompt(base, compared *model.Document) string {
	var b strings.Builder
	b.WriteString("You are an expert document reviewer. Compare two revisions of a document and respond with JSON only, no prose.\n\n")
	b.WriteString("Respond with exactly this structure:\n")
	b.WriteString(`{"summary": "...", "similarities": ["..."], "differences": [{"type": "added|removed|modified", "description": "...", "location": "...", "old_value": "...", "new_value": "...", "significance": "high|medium|low"}], "recommendations": ["..."], "overall_assessment": "..."}`)
	b.WriteString("\n\n=== DOCUMENT 1: ")
	b.WriteString(base.Title)
	b.WriteString(" ===\n")
	b.WriteString(truncate(base.ContentText, c.maxPromptChars))
	b.WriteString("\n\n=== DOCUMENT 2: ")
	b.WriteString(compared.Title)
	b.WriteString(" ===\n")
	b.WriteString(truncate(compared.ContentText, c.maxPromptChars))
	return b.String()
}

// Sentiment asks the model for the overall tone of one document. Like
// CompareDocuments it degrades to a neutral fallback carrying the raw text
// when the model output is not valid JSON.
func (c *Client) Sentiment(ctx context.Context, doc *model.Document) (*model.SentimentAnalysis, error) {
	prompt := c.buildSentimentPrompt(doc)
	raw, err := c.Generate(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}

	payload, ok := extractJSON(raw)
	if !ok {
		return fallbackSentiment(raw), nil
	}
	var parsed model.SentimentAnalysis
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return fallbackSentiment(raw), nil
	}
	if parsed.Sentiment == "" {
		parsed.Sentiment = "neutral"
	}
	if parsed.Emotions == nil {
		parsed.Emotions = []string{}
	}
	return &parsed, nil
}

func (c *Client) buildKeyPointsPrompt(doc *model.Document) string {
	var b strings.Builder
	b.WriteString("Extract the key points of the following document. Respond with JSON only:\n")
	b.WriteString(`{"key_points": [{"point": "...", "importance": "high|medium|low", "category": "..."}]}`)
	b.WriteString("\n\n=== DOCUMENT: ")
	b.WriteString(doc.Title)
	b.WriteString(" ===\n")
	b.WriteString(truncate(doc.ContentText, c.maxPromptChars))
	return b.String()
}

func (c *Client) buildSentimentPrompt(doc *model.Document) string {
	var b strings.Builder
	b.WriteString("Analyze the sentiment and tone of the following document. Respond with JSON only:\n")
	b.WriteString(`{"sentiment": "positive|negative|neutral", "confidence": 0.0-1.0, "emotions": ["..."], "summary": "..."}`)
	b.WriteString("\n\n=== DOCUMENT: ")
	b.WriteString(doc.Title)
	b.WriteString(" ===\n")
	b.WriteString(truncate(doc.ContentText, sentimentPromptChars))
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n... [truncated]"
}

// ExtractAnalysis parses a model response into an LLMAnalysis, recovering
// from reasoning blocks and sloppy JSON. It never returns nil.
func ExtractAnalysis(raw string) *model.LLMAnalysis {
	payload, ok := extractJSON(raw)
	if !ok {
		return fallbackAnalysis(raw)
	}
	var out model.LLMAnalysis
	if err := json.Unmarshal(payload, &out); err != nil {
		return fallbackAnalysis(raw)
	}
	if out.Summary == "" {
		out.Summary = fallbackSummary
		out.RawAnalysis = raw
	}
	return &out
}

// extractJSON finds the JSON object embedded in a model response. It strips
// a leading thinking block, slices from the first '{' to the last '}' and
// repairs trailing commas before giving up.
func extractJSON(raw string) ([]byte, bool) {
	s := raw
	if idx := strings.LastIndex(s, thinkClose); idx >= 0 {
		s = s[idx+len(thinkClose):]
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := []byte(s[start : end+1])

	if json.Valid(candidate) {
		return candidate, true
	}
	repaired := trailingComma.ReplaceAll(candidate, []byte("$1"))
	if json.Valid(repaired) {
		return repaired, true
	}
	return nil, false
}

func fallbackSentiment(raw string) *model.SentimentAnalysis {
	return &model.SentimentAnalysis{
		Sentiment:   "neutral",
		Confidence:  0,
		Emotions:    []string{},
		Summary:     fallbackSummary,
		RawResponse: raw,
	}
}

func fallbackAnalysis(raw string) *model.LLMAnalysis {
	return &model.LLMAnalysis{
		Summary:           fallbackSummary,
		Similarities:      []string{},
		Differences:       []model.LLMDifference{},
		Recommendations:   []string{},
		OverallAssessment: "See raw_analysis for the unstructured model output.",
		RawAnalysis:       raw,
	}
}

// ConfidenceFor maps a model-reported significance to a change confidence.
func ConfidenceFor(significance string) float64 {
	switch strings.ToLower(significance) {
	case "high":
		return 0.9
	case "low":
		return 0.5
	default:
		return 0.7
	}
}
