package musicgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClientOptions controls how the music API client is configured.
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	MinSeconds int
	MaxSeconds int
}

// Client calls the hosted music generation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	minSecs    int
	maxSecs    int
}

// NewClient constructs a music API client with sane defaults.
func NewClient(opts ClientOptions) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.sunoapi.org/api/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	minSecs := opts.MinSeconds
	if minSecs <= 0 {
		minSecs = 10
	}
	maxSecs := opts.MaxSeconds
	if maxSecs <= 0 {
		maxSecs = 300
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		minSecs:    minSecs,
		maxSecs:    maxSecs,
	}
}

type generateRequest struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"durationSeconds"`
	CustomMode      bool   `json:"customMode"`
	Instrumental    bool   `json:"instrumental"`
	CallbackURL     string `json:"callbackUrl"`
	Model           string `json:"model,omitempty"`
}

type generateResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

// Submit sends the generation request and extracts the external task ID.
// Anything other than a code-200 response carrying a task ID is a
// *SubmissionError.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if c.apiKey == "" {
		return "", &SubmissionError{Reason: "api key is missing"}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &SubmissionError{Reason: "prompt is empty"}
	}

	payload := generateRequest{
		Prompt:          req.Prompt,
		DurationSeconds: ClampDuration(req.DurationSeconds, c.minSecs, c.maxSecs),
		CustomMode:      true,
		Instrumental:    req.Instrumental,
		CallbackURL:     req.CallbackURL,
		Model:           c.model,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &SubmissionError{Reason: "encode request", Err: err}
	}

	endpoint := c.baseURL + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &SubmissionError{Reason: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &SubmissionError{Reason: "service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &SubmissionError{Reason: fmt.Sprintf("http %d", resp.StatusCode)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &SubmissionError{Reason: "malformed response", Err: err}
	}
	if out.Code != 200 {
		reason := fmt.Sprintf("service code %d", out.Code)
		if out.Msg != "" {
			reason += ": " + out.Msg
		}
		return "", &SubmissionError{Reason: reason}
	}
	taskID := strings.TrimSpace(out.Data.TaskID)
	if taskID == "" {
		return "", &SubmissionError{Reason: "response missing task id"}
	}
	return taskID, nil
}

// Name identifies the backend in logs and diagnostics.
func (c *Client) Name() string {
	return "real"
}

var _ Backend = (*Client)(nil)
