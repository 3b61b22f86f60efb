package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/r0cstar09/jobtailor/internal/ai"
	"github.com/r0cstar09/jobtailor/internal/logger"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultMaxRetries     = 3
	defaultMaxLogLength   = 200

	baseBackoff = 2 * time.Second
	// Quota errors sometimes ask for waits of minutes. Sitting that out in
	// the middle of a run is worse than failing the job.
	maxQuotaWait = 30 * time.Second
)

// Output token budgets per purpose. A score is a single number, the
// documents need room.
var outputBudgets = map[ai.Purpose]int32{
	ai.PurposeScore:       200,
	ai.PurposeResume:      2000,
	ai.PurposeCoverLetter: 1500,
}

var sleep = time.Sleep

// modelCaller is the slice of the genai client the Client talks to,
// separated so tests can inject responses and failures.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type genaiCaller struct {
	client *genai.Client
}

func (g *genaiCaller) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, config)
}

func (g *genaiCaller) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	return g.client.Models.EmbedContent(ctx, model, contents, config)
}

type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// MaxRetries is the total number of attempts per call, not the number
	// of retries after the first.
	MaxRetries   int
	Timeout      time.Duration
	MaxLogLength int
}

// Client implements ai.Completer and ai.Embedder on the Gemini API.
type Client struct {
	caller         modelCaller
	model          string
	embeddingModel string
	maxRetries     int
	timeout        time.Duration
	maxLogLen      int
	logger         *zap.Logger
}

func New(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		caller:         &genaiCaller{client: genaiClient},
		model:          model,
		embeddingModel: embeddingModel,
		maxRetries:     maxRetries,
		timeout:        cfg.Timeout,
		maxLogLen:      maxLogLen,
		logger:         log,
	}, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends one prompt to Gemini and returns the first textual response.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", &ai.ModelError{Purpose: req.Purpose, Kind: ai.KindInvalid, Err: errors.New("prompt must not be empty")}
	}

	config := &genai.GenerateContentConfig{}
	if budget, ok := outputBudgets[req.Purpose]; ok {
		config.MaxOutputTokens = budget
	}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	c.logger.Debug("gemini generate content request",
		zap.String("purpose", string(req.Purpose)),
		zap.String("model", c.model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	var resp *genai.GenerateContentResponse
	err := c.withRetries(ctx, req.Purpose, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = c.caller.GenerateContent(callCtx, c.model, genai.Text(prompt), config)
		return callErr
	})
	if err != nil {
		return "", err
	}

	output := collectText(resp)
	if output == "" {
		return "", &ai.ModelError{Purpose: req.Purpose, Kind: ai.KindEmpty, Err: errors.New("gemini api returned empty response")}
	}

	c.logger.Debug("gemini generate content response",
		zap.String("purpose", string(req.Purpose)),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ai.ModelError{Purpose: ai.PurposeScore, Kind: ai.KindInvalid, Err: errors.New("text must not be empty")}
	}

	var resp *genai.EmbedContentResponse
	err := c.withRetries(ctx, ai.PurposeScore, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = c.caller.EmbedContent(callCtx, c.embeddingModel, genai.Text(trimmed), nil)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, &ai.ModelError{Purpose: ai.PurposeScore, Kind: ai.KindEmpty, Err: errors.New("gemini api returned no embedding")}
	}

	return resp.Embeddings[0].Values, nil
}

// withRetries runs the call up to maxRetries times total, backing off
// between attempts on transient failures. Quota errors asking for a wait
// longer than maxQuotaWait are returned without retrying.
func (c *Client) withRetries(ctx context.Context, purpose ai.Purpose, call func(context.Context) error) error {
	backoff := baseBackoff

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.do(ctx, call)
		if err == nil {
			return nil
		}

		kind, retryable, wait := classify(err)
		lastErr = &ai.ModelError{Purpose: purpose, Kind: kind, Err: err}

		if !retryable || attempt == c.maxRetries {
			return lastErr
		}

		if wait <= 0 {
			wait = backoff
			backoff *= 2
		}

		c.logger.Warn("retrying gemini call",
			zap.String("purpose", string(purpose)),
			zap.String("error_kind", kind),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxRetries),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		if waitErr := waitFor(ctx, wait); waitErr != nil {
			return &ai.ModelError{Purpose: purpose, Kind: kind, Err: waitErr}
		}
	}

	return lastErr
}

func (c *Client) do(ctx context.Context, call func(context.Context) error) error {
	if c.timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return call(callCtx)
}

func classify(err error) (kind string, retryable bool, wait time.Duration) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return ai.KindTransient, true, 0
		}
		return ai.KindUnknown, false, 0
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		hint := retryDelayHint(apiErr.Message)
		if hint > maxQuotaWait {
			return ai.KindRateLimited, false, 0
		}
		return ai.KindRateLimited, true, hint
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return ai.KindTransient, true, 0
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return ai.KindInvalid, false, 0
	default:
		return ai.KindUnknown, false, 0
	}
}

var retryDelayRE = regexp.MustCompile(`(?i)retry\s?(?:after|delay)\D*(\d+(?:\.\d+)?)\s*s`)

// retryDelayHint pulls the requested wait out of a quota error message,
// e.g. "retry after 60 seconds" or a retryDelay of "21s".
func retryDelayHint(message string) time.Duration {
	match := retryDelayRE.FindStringSubmatch(message)
	if match == nil {
		return 0
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
