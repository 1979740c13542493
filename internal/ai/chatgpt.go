package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/algorecall/pkg/models"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

const (
	defaultAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultModel  = "gpt-3.5-turbo"
)

var (
	// ErrDisabled is returned by New when no API key is configured
	ErrDisabled = errors.New("ai: OPENAI_API_KEY is not set")
	// ErrRejected marks a 4xx answer other than 429; such requests are not retried
	ErrRejected = errors.New("ai: request rejected")
)

// ChatGPT is a client for an OpenAI-compatible chat completions endpoint
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client

	retryConfig retry.Config
	timeout     time.Duration
}

// Option customizes a ChatGPT client
type Option func(*ChatGPT)

// WithBaseURL points the client at another chat completions URL
func WithBaseURL(url string) Option {
	return func(c *ChatGPT) { c.apiURL = url }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *ChatGPT) { c.httpClient = client }
}

// WithRetry sets the number of attempts and the initial backoff delay
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *ChatGPT) {
		c.retryConfig.MaxAttempts = attempts
		c.retryConfig.InitialDelay = delay
	}
}

// WithTimeout bounds a whole Hint call, retries included
func WithTimeout(d time.Duration) Option {
	return func(c *ChatGPT) { c.timeout = d }
}

// New creates a new ChatGPT client
func New(apiKey, model string, opts ...Option) (*ChatGPT, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	if model == "" {
		model = defaultModel
	}
	c := &ChatGPT{
		apiKey:      apiKey,
		apiURL:      defaultAPIURL,
		model:       model,
		maxTokens:   300,
		temperature: 0.7,
		httpClient:  http.DefaultClient,
		retryConfig: retry.Config{
			MaxAttempts:        2,
			InitialDelay:       time.Second,
			BackoffPolicy:      retry.BackoffExponential,
			NonRetryableErrors: []error{ErrRejected},
		},
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const hintSystemPrompt = "You are a coding interview coach. Give a short hint that points " +
	"towards the key idea of the problem without revealing the full solution or any code."

// Hint asks for a nudge towards solving p
func (c *ChatGPT) Hint(ctx context.Context, p *models.Problem) (string, error) {
	prompt := fmt.Sprintf(
		"Problem: %s (topic: %s, %s). Give me a hint in at most three sentences.",
		p.Name, p.Topic, p.Link,
	)
	return c.complete(ctx, []Message{
		{Role: "system", Content: hintSystemPrompt},
		{Role: "user", Content: prompt},
	})
}

// HintWithFallback returns a generic hint when the API call fails
func (c *ChatGPT) HintWithFallback(ctx context.Context, p *models.Problem) string {
	hint, err := c.Hint(ctx, p)
	if err != nil {
		fmt.Printf("Error generating hint for '%s': %v\n", p.Name, err)
		return fmt.Sprintf("Think about which %s technique fits '%s', then try a small example by hand.", p.Topic, p.Name)
	}
	return hint
}

func (c *ChatGPT) complete(ctx context.Context, messages []Message) (string, error) {
	r := retry.New[string](c.retryConfig)
	t := timeout.New[string](timeout.Config{DefaultTimeout: c.timeout})

	return t.Execute(ctx, c.timeout, func(ctx context.Context) (string, error) {
		return r.Do(ctx, func(ctx context.Context) (string, error) {
			return c.send(ctx, messages)
		})
	})
}

func (c *ChatGPT) send(ctx context.Context, messages []Message) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&response)
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if decodeErr == nil && response.Error != nil {
			err = fmt.Errorf("API error (status %d): %s", resp.StatusCode, response.Error.Message)
		}
		if isRejected(resp.StatusCode) {
			return "", fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return "", err
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// isRejected reports whether repeating the request cannot succeed
func isRejected(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
