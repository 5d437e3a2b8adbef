// Package gemini implements the LLM client against a generateContent-style
// REST endpoint. Calls are rate limited, retried with capped exponential
// backoff behind a circuit breaker, and bounded by a per-attempt wall-clock
// timeout.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/infrastructure/resilience"
)

type Client struct {
	baseURL        string
	apiKey         string
	model          string
	attemptTimeout time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	recorder   CallRecorder
}

// CallRecorder receives one observation per generate call, successful or not.
type CallRecorder interface {
	RecordLLMCall(operation string, duration time.Duration, err error)
}

type Options struct {
	AttemptTimeout time.Duration
	RatePerSecond  float64
	Burst          int
	Policy         resilience.Policy
	Recorder       CallRecorder
}

func New(baseURL, apiKey, model string, options Options) *Client {
	attemptTimeout := options.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = 60 * time.Second
	}
	ratePerSecond := options.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	burst := options.Burst
	if burst <= 0 {
		burst = 2
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		model:          model,
		attemptTimeout: attemptTimeout,
		// The overall deadline lives in the per-attempt context.
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		executor:   resilience.NewExecutor(options.Policy),
		recorder:   options.Recorder,
	}
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Chatter answers chat turns with optional multimodal document context.
type Chatter struct {
	client *Client
}

func NewChatter(client *Client) *Chatter {
	return &Chatter{client: client}
}

func (c *Chatter) Complete(ctx context.Context, history []domain.ChatMessage, message string, parts []domain.FilePart) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Content}},
		})
	}

	turn := content{Role: "user", Parts: []part{{Text: message}}}
	for _, filePart := range parts {
		turn.Parts = append(turn.Parts, part{
			InlineData: &inlineData{
				MimeType: filePart.MimeType,
				Data:     base64.StdEncoding.EncodeToString(filePart.Data),
			},
		})
	}
	contents = append(contents, turn)

	return c.client.generate(ctx, "chat", contents)
}

// Analyzer runs the fixed analysis prompt against a single document and
// parses the model's reply into a structured extraction result.
type Analyzer struct {
	client     *Client
	categories []string
}

func NewAnalyzer(client *Client, categories []string) *Analyzer {
	return &Analyzer{client: client, categories: categories}
}

func (a *Analyzer) Analyze(ctx context.Context, filePart domain.FilePart) (*domain.ExtractionResult, error) {
	contents := []content{{
		Role: "user",
		Parts: []part{
			{Text: BuildAnalysisPrompt(a.categories)},
			{InlineData: &inlineData{
				MimeType: filePart.MimeType,
				Data:     base64.StdEncoding.EncodeToString(filePart.Data),
			}},
		},
	}}

	raw, err := a.client.generate(ctx, "analyze", contents)
	if err != nil {
		return nil, err
	}
	return ParseExtraction(raw)
}

func (c *Client) generate(ctx context.Context, operation string, contents []content) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}

	request := map[string]any{"contents": contents}
	var text string
	start := time.Now()
	err := c.executor.Execute(ctx, "gemini."+operation, func(parentCtx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(parentCtx, c.attemptTimeout)
		defer cancel()

		var response generateResponse
		if err := c.postJSON(attemptCtx, c.generatePath(), request, &response, operation); err != nil {
			return attemptTimeoutAsTemporary(parentCtx, operation, err)
		}

		text = response.firstCandidateText()
		if strings.TrimSpace(text) == "" {
			// Treated as transient: the provider occasionally returns an
			// empty candidate list under load.
			return domain.WrapError(domain.ErrTemporary, operation, fmt.Errorf("response contains no candidate text"))
		}
		return nil
	}, classifyGenerateError)
	if c.recorder != nil {
		c.recorder.RecordLLMCall(operation, time.Since(start), err)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) firstCandidateText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
