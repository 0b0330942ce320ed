package musicgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSubmit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Prompt != "calm piano over rain" {
			t.Fatalf("prompt mismatch: %q", payload.Prompt)
		}
		if !payload.CustomMode {
			t.Fatalf("customMode must be set")
		}
		if payload.DurationSeconds != 30 {
			t.Fatalf("duration mismatch: %d", payload.DurationSeconds)
		}
		if payload.CallbackURL != "https://app.example.com/v1/callback/music" {
			t.Fatalf("callback url mismatch: %q", payload.CallbackURL)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "data": map[string]any{"taskId": "abc123"}})
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: ts.URL})
	taskID, err := client.Submit(context.Background(), SubmitRequest{
		Prompt:          "calm piano over rain",
		DurationSeconds: 30,
		CallbackURL:     "https://app.example.com/v1/callback/music",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if taskID != "abc123" {
		t.Fatalf("unexpected task id: %s", taskID)
	}
}

func TestClientSubmitClampsDuration(t *testing.T) {
	var captured generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "data": map[string]any{"taskId": "abc123"}})
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: ts.URL, MinSeconds: 10, MaxSeconds: 120})
	if _, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p", DurationSeconds: 900}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if captured.DurationSeconds != 120 {
		t.Fatalf("duration not clamped: %d", captured.DurationSeconds)
	}

	if _, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p", DurationSeconds: 0}); err == nil {
		if captured.DurationSeconds != 10 {
			t.Fatalf("zero duration not raised to minimum: %d", captured.DurationSeconds)
		}
	}
}

func TestClientSubmitServiceCodeFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 429, "msg": "insufficient credits"})
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p", DurationSeconds: 30})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("got %v, want *SubmissionError", err)
	}
}

func TestClientSubmitHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p", DurationSeconds: 30})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("got %v, want *SubmissionError", err)
	}
}

func TestClientSubmitMissingTaskID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "data": map[string]any{}})
	}))
	defer ts.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p", DurationSeconds: 30}); err == nil {
		t.Fatalf("expected error for response without task id")
	}
}

func TestClientSubmitMissingKey(t *testing.T) {
	client := NewClient(ClientOptions{})
	if _, err := client.Submit(context.Background(), SubmitRequest{Prompt: "p"}); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestClampDuration(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 10},
		{0, 10},
		{10, 10},
		{42, 42},
		{300, 300},
		{301, 300},
	}
	for _, tc := range cases {
		if got := ClampDuration(tc.in, 10, 300); got != tc.want {
			t.Fatalf("ClampDuration(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
