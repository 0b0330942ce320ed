package musicgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/storage"
)

// CompletionSink receives the terminal result of a demo job. Wired to the
// task registry's completion upsert so demo jobs travel the same path as
// real callbacks.
type CompletionSink func(ctx context.Context, taskID string, result domain.CompletionResult, raw []byte)

// DemoOptions configures the demo backend.
type DemoOptions struct {
	Store          *storage.FileStore
	StorageBaseURL string
	Complete       CompletionSink
	Delay          time.Duration
	Logger         zerolog.Logger
}

// Demo synthesizes deterministic placeholder tracks locally. It keeps the
// whole pipeline (registration, completion upsert, resolution, debit)
// exercised without the external API. Selected only via MUSIC_BACKEND=demo.
type Demo struct {
	store    *storage.FileStore
	baseURL  string
	complete CompletionSink
	delay    time.Duration
	logger   zerolog.Logger
}

// NewDemo constructs the demo backend.
func NewDemo(opts DemoOptions) *Demo {
	delay := opts.Delay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Demo{
		store:    opts.Store,
		baseURL:  strings.TrimRight(opts.StorageBaseURL, "/"),
		complete: opts.Complete,
		delay:    delay,
		logger:   opts.Logger,
	}
}

// Submit assigns a local task ID and schedules a synthetic completion.
func (d *Demo) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &SubmissionError{Reason: "prompt is empty"}
	}
	taskID := "demo-" + uuid.NewString()

	go d.deliver(taskID, req)

	return taskID, nil
}

// Name identifies the backend in logs and diagnostics.
func (d *Demo) Name() string {
	return "demo"
}

func (d *Demo) deliver(taskID string, req SubmitRequest) {
	time.Sleep(d.delay)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	audioURL := ""
	if d.store != nil {
		key := fmt.Sprintf("demo/%s.mp3", taskID)
		if saved, err := d.store.Write(ctx, key, demoTrackBytes(taskID)); err != nil {
			d.logger.Warn().Err(err).Str("task_id", taskID).Msg("demo: persist placeholder track failed")
		} else {
			audioURL = d.baseURL + "/" + saved
		}
	}
	if audioURL == "" {
		audioURL = d.baseURL + "/demo/placeholder.mp3"
	}

	result := domain.CompletionResult{
		AudioURL:        audioURL,
		Title:           demoTitle(req.Prompt),
		DurationSeconds: ClampDuration(req.DurationSeconds, 10, 300),
	}
	raw, _ := json.Marshal(map[string]any{
		"taskId":    taskID,
		"audio_url": result.AudioURL,
		"title":     result.Title,
		"duration":  result.DurationSeconds,
		"source":    "demo",
	})

	if d.complete == nil {
		d.logger.Warn().Str("task_id", taskID).Msg("demo: no completion sink configured")
		return
	}
	d.complete(ctx, taskID, result, raw)
	d.logger.Info().Str("task_id", taskID).Msg("demo: delivered synthetic completion")
}

func demoTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	if len(words) == 0 {
		return "Demo Track"
	}
	return strings.Join(words, " ")
}

// demoTrackBytes returns a tiny MP3-shaped payload. Deterministic per task so
// repeated runs are diffable.
func demoTrackBytes(taskID string) []byte {
	header := []byte{0xFF, 0xFB, 0x90, 0x00}
	return append(header, []byte(taskID)...)
}

var _ Backend = (*Demo)(nil)
