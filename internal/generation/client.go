package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
)

// Options tune a single completion call.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int // num_predict; 0 = model default
}

// DefaultOptions returns the options used by the orchestrators.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, TopP: 0.9}
}

// Generator sends a prompt to the completion backend and returns raw
// text. Implementations: Client (Ollama).
type Generator interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Client is an HTTP client for Ollama's /api/generate endpoint. Each
// call is bounded by the configured timeout and attempted exactly once;
// the backend serves one completion at a time, so callers must not fan
// out requests.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL, model, and
// per-call timeout.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete sends the prompt and returns the completion text verbatim.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", goerr.New("prompt is empty", goerr.T(apperr.TagInvalidInput))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", goerr.Wrap(err, "marshal generate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "create generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", goerr.Wrap(err, "completion timed out",
				goerr.T(apperr.TagTimeout), goerr.V("timeout", c.timeout))
		}
		if errors.Is(err, context.Canceled) {
			return "", goerr.Wrap(err, "completion canceled")
		}
		return "", goerr.Wrap(err, "completion service unreachable",
			goerr.T(apperr.TagUnavailable), goerr.V("url", c.baseURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", goerr.New("completion service returned error",
			goerr.T(apperr.TagUpstream),
			goerr.V("status", resp.StatusCode), goerr.V("body", string(respBody)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The deadline can also fire mid-body, after a successful Do.
		if errors.Is(err, context.DeadlineExceeded) {
			return "", goerr.Wrap(err, "completion timed out",
				goerr.T(apperr.TagTimeout), goerr.V("timeout", c.timeout))
		}
		return "", goerr.Wrap(err, "decode generate response", goerr.T(apperr.TagUpstream))
	}

	if strings.TrimSpace(result.Response) == "" {
		return "", goerr.New("completion response was empty", goerr.T(apperr.TagEmptyResponse))
	}

	return result.Response, nil
}
