// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm asks a language model which numbers in a piece of text are
// monetary amounts. It backs the extractor's fallback when pattern matching
// cannot read the text, for example digits in a non-Latin script.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/unit-converter/internal/httputil"
	"github.com/pdiddy/unit-converter/pkg/types"
)

// classifyPromptTmpl is the prompt sent for each cell.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`You read single cells from financial statements. List every monetary amount that appears in the cell text below.

Rules:
- Read digits in any script and any digit grouping (for example 1,50,000 or १,५०,०००).
- Ignore dates, years, financial-year labels, phone numbers, and registration or identity numbers.
- Report each amount as a plain number without separators or currency symbols, in the order it appears.

Respond with a JSON object of the form {"amounts": [150000]}. Use an empty array when there is no amount. Do not include any text outside the JSON object.

Cell text:
{{.Text}}
`))

// apiURL is the Claude API endpoint. Package-level var for test substitution.
var apiURL = "https://api.anthropic.com/v1/messages"

const maxTokens = 256

// ErrService marks a failure talking to the model.
var ErrService = errors.New("classifier service failure")

// ServiceError describes a failed classification call.
type ServiceError struct {
	Op     string
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", ErrService, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrService, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() []error { return []error{ErrService, e.Err} }

// Client calls the Claude Messages API.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client

	logger *zap.Logger
}

// NewClient builds a Client from cfg.
func NewClient(cfg types.ClassifierConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = types.DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	return &Client{
		APIKey:     cfg.APIKey,
		Model:      model,
		BaseURL:    cfg.BaseURL,
		Timeout:    timeout,
		MaxRetries: retries,
		HTTPClient: http.DefaultClient,
		logger:     logger,
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// amountsResponse is the JSON object the prompt asks for.
type amountsResponse struct {
	Amounts []float64 `json:"amounts"`
}

// Classify returns the monetary amounts the model finds in text. Each call
// is bounded by c.Timeout and transient failures are retried.
func (c *Client) Classify(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	prompt, err := renderPrompt(text)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := apiURL
	if c.BaseURL != "" {
		url = c.BaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, &ServiceError{Op: "calling Claude API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ServiceError{Op: "calling Claude API", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, &ServiceError{Op: "decoding Claude response", Err: err}
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		amounts, err := parseAmounts(block.Text)
		if err != nil {
			return nil, &ServiceError{Op: "parsing amounts", Err: err}
		}
		c.logger.Debug("classified text",
			zap.String("op", "llm.Classify"),
			zap.Int("amounts", len(amounts)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return amounts, nil
	}
	return nil, &ServiceError{Op: "reading Claude response", Err: errors.New("no text content")}
}

// parseAmounts reads the JSON object from a model reply, ignoring any
// prose around it.
func parseAmounts(reply string) ([]float64, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in reply %q", reply)
	}
	var out amountsResponse
	if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err != nil {
		return nil, err
	}
	return out.Amounts, nil
}

// renderPrompt executes the classification prompt template with text.
func renderPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := classifyPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
