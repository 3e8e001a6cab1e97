package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"github.com/yungbote/skillbridge-backend/internal/observability"
	"github.com/yungbote/skillbridge-backend/internal/platform/httpx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

// Client is the language-model surface used by extraction. GenerateJSON returns the raw
// message text; decoding is the caller's concern so malformed output can be captured.
type Client interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (string, error)
	Model() string
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	RPS         float64
	Burst       int
	Temperature float32
}

// chatAPI is the subset of *goopenai.Client we call.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type client struct {
	log        *logger.Logger
	api        chatAPI
	model      string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	temp       float32

	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// ErrRefused is returned when the model declines to answer.
var ErrRefused = errors.New("openai: model refused")

// ErrEmptyOutput is returned when no choice or content came back.
var ErrEmptyOutput = errors.New("openai: empty output")

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	oc := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		oc.BaseURL = base
	}
	oc.HTTPClient = &http.Client{}
	return newClient(log, goopenai.NewClientWithConfig(oc), cfg), nil
}

func newClient(log *logger.Logger, api chatAPI, cfg Config) *client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &client{
		log:         log.With("client", "OpenAIClient", "model", model),
		api:         api,
		model:       model,
		timeout:     timeout,
		maxRetries:  maxRetries,
		limiter:     rate.NewLimiter(limit, burst),
		temp:        cfg.Temperature,
		baseBackoff: time.Second,
		maxBackoff:  10 * time.Second,
	}
}

func (c *client) Model() string { return c.model }

func (c *client) GenerateJSON(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (string, error) {
	if schemaName == "" {
		return "", errors.New("schemaName required")
	}
	if schema == nil {
		return "", errors.New("schema required")
	}
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temp,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	ctx, span := observability.StartSpan(ctx, "openai.GenerateJSON")
	defer span.End()

	start := time.Now()
	metrics := observability.Current()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		// Waits for a token; fails early if ctx ends first.
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := c.once(ctx, req)
		if err == nil {
			metrics.ObserveLLMRequest(schemaName, "ok", time.Since(start))
			return text, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			break
		}

		sleepFor := httpx.JitterSleep(httpx.Backoff(c.baseBackoff, attempt, c.maxBackoff))
		c.log.Warn("OpenAI request retrying",
			"schema", schemaName,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		metrics.IncLLMRetry(schemaName)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return "", err
		}
	}
	metrics.ObserveLLMRequest(schemaName, "error", time.Since(start))
	return "", lastErr
}

func (c *client) once(ctx context.Context, req goopenai.ChatCompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}
	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Refusal) != "" {
		return "", fmt.Errorf("%w: %s", ErrRefused, msg.Refusal)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyOutput
	}
	return msg.Content, nil
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai http %d: %v", e.status, e.err)
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) HTTPStatusCode() int { return e.status }

// wrapAPIError exposes the HTTP status of go-openai errors to httpx.IsRetryableError.
func wrapAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &statusError{status: apiErr.HTTPStatusCode, err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &statusError{status: reqErr.HTTPStatusCode, err: err}
	}
	return err
}

// ErrNotConfigured is returned by the client from Unconfigured.
var ErrNotConfigured = errors.New("openai: no api key configured")

type unconfigured struct{}

// Unconfigured returns a Client whose calls all fail with ErrNotConfigured, so read-only
// deployments can start without an API key.
func Unconfigured() Client { return unconfigured{} }

func (unconfigured) Model() string { return "" }

func (unconfigured) GenerateJSON(context.Context, string, string, string, *jsonschema.Definition) (string, error) {
	return "", ErrNotConfigured
}
