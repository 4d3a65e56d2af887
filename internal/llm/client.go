package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable wraps every transport or upstream failure.
var ErrUnavailable = errors.New("language model unavailable")

// HTTPDoer abstracts the HTTP client so tests can substitute one.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is one prompt. Zero Temperature and MaxTokens take the defaults.
type Request struct {
	System      string
	Context     string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// BuildPrompt renders the plain-text transcript sent to the model.
func BuildPrompt(r Request) string {
	var b strings.Builder
	if r.System != "" {
		fmt.Fprintf(&b, "System: %s\n\n", r.System)
	}
	if r.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", r.Context)
	}
	fmt.Fprintf(&b, "User: %s\n\nAssistant:", r.Prompt)
	return b.String()
}

// Client talks to an Ollama server.
type Client struct {
	BaseURL string
	Model   string
	HTTP    HTTPDoer
	Timeout time.Duration
}

func NewClient(baseURL, model string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Model: model, HTTP: doer, Timeout: timeout}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: %d %s", ErrUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// Health reports whether the server answers /api/tags.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out struct {
		Models []Model `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode tags: %v", ErrUnavailable, err)
	}
	if out.Models == nil {
		out.Models = []Model{}
	}
	return out.Models, nil
}

func (c *Client) payload(r Request, stream bool) generateRequest {
	model := r.Model
	if model == "" {
		model = c.Model
	}
	temp := r.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return generateRequest{
		Model:   model,
		Prompt:  BuildPrompt(r),
		Stream:  stream,
		Options: generateOptions{Temperature: temp, NumPredict: maxTokens},
	}
}

// Generate returns the whole completion, trimmed.
func (c *Client) Generate(ctx context.Context, r Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodPost, "/api/generate", c.payload(r, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out generateChunk
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

// Stream calls emit for each chunk of the completion until the server reports
// done. Lines that are not valid JSON are skipped. An error from emit stops
// the stream and is returned as is.
func (c *Client) Stream(ctx context.Context, r Request, emit func(chunk string) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodPost, "/api/generate", c.payload(r, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnavailable, chunk.Error)
		}
		if chunk.Response != "" {
			if err := emit(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %v", ErrUnavailable, err)
	}
	return nil
}
