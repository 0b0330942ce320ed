package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

type resultEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		AudioURL string `json:"audio_url"`
		Title    string `json:"title"`
		Duration int    `json:"duration"`
		ImageURL string `json:"image_url"`
		Error    string `json:"error"`
	} `json:"data"`
}

// NewHTTPResolve builds a ResolveFunc against a running server's result
// endpoint. sessionID pins the caller's account so settlement lands on the
// right balance.
func NewHTTPResolve(baseURL string, client *http.Client, sessionID string) ResolveFunc {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return func(ctx context.Context, taskID string) (domain.Resolution, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/result/"+taskID, nil)
		if err != nil {
			return domain.Resolution{}, err
		}
		if sessionID != "" {
			req.Header.Set("X-Session-ID", sessionID)
		}
		resp, err := client.Do(req)
		if err != nil {
			return domain.Resolution{}, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return domain.Resolution{}, fmt.Errorf("poller: result endpoint returned %d", resp.StatusCode)
		}
		var envelope resultEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return domain.Resolution{}, fmt.Errorf("poller: decode result: %w", err)
		}
		return domain.Resolution{
			Status:          domain.ResolveStatus(envelope.Data.Status),
			AudioURL:        envelope.Data.AudioURL,
			Title:           envelope.Data.Title,
			DurationSeconds: envelope.Data.Duration,
			ImageURL:        envelope.Data.ImageURL,
			ErrorMessage:    envelope.Data.Error,
		}, nil
	}
}
