package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/krishnasinghprojects/kpsyche/internal/apperr"
)

// Client generates embeddings via Ollama's /api/embeddings endpoint.
// It holds no state beyond the connection settings and performs no retries;
// retry policy belongs to the caller. Each call is bounded by the
// configured timeout.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the given Ollama base URL, model, and
// per-call timeout.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed converts text to a vector. Empty or whitespace-only text is
// rejected; input longer than MaxInputChars is truncated before sending.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("embedding input is empty", goerr.T(apperr.TagInvalidInput))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: Truncate(text)})
	if err != nil {
		return nil, goerr.Wrap(err, "marshal embedding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "create embedding request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, goerr.Wrap(err, "embedding timed out",
				goerr.T(apperr.TagTimeout), goerr.V("timeout", c.timeout))
		}
		if errors.Is(err, context.Canceled) {
			return nil, goerr.Wrap(err, "embedding canceled")
		}
		return nil, goerr.Wrap(err, "embedding service unreachable",
			goerr.T(apperr.TagUnavailable), goerr.V("url", c.baseURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, goerr.New("embedding service returned error",
			goerr.T(apperr.TagUpstream),
			goerr.V("status", resp.StatusCode), goerr.V("body", string(respBody)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, goerr.Wrap(err, "embedding timed out",
				goerr.T(apperr.TagTimeout), goerr.V("timeout", c.timeout))
		}
		return nil, goerr.Wrap(err, "decode embedding response", goerr.T(apperr.TagUpstream))
	}

	if len(result.Embedding) == 0 {
		return nil, goerr.New("embedding response contained no vector", goerr.T(apperr.TagEmptyResponse))
	}

	vec := result.Embedding
	normalizeVector(vec)
	return vec, nil
}

// normalizeVector scales vec to unit length in place. Zero vectors are
// left untouched.
func normalizeVector(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
