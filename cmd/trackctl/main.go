package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"server/internal/domain"
	"server/pkg/poller"
)

// trackctl submits a generation to a running server and polls until the
// track is done, printing progress along the way.
func main() {
	_ = godotenv.Load()

	var (
		serverFlag       string
		moodFlag         string
		genreFlag        string
		durationFlag     int
		instrumentalFlag bool
		sessionFlag      string
		intervalFlag     time.Duration
		timeoutFlag      time.Duration
		welcomeFlag      bool
	)
	flag.StringVar(&serverFlag, "server", envOr("TRACKCTL_SERVER", "http://localhost:8080"), "base URL of the API server")
	flag.StringVar(&moodFlag, "mood", "", "mood/scene description (required)")
	flag.StringVar(&genreFlag, "genre", "", "genre hint")
	flag.IntVar(&durationFlag, "duration", 60, "track duration in seconds")
	flag.BoolVar(&instrumentalFlag, "instrumental", true, "instrumental track")
	flag.StringVar(&sessionFlag, "session", envOr("TRACKCTL_SESSION", ""), "session ID to reuse an account (new one generated when empty)")
	flag.DurationVar(&intervalFlag, "interval", poller.DefaultInterval, "poll interval")
	flag.DurationVar(&timeoutFlag, "timeout", poller.DefaultTimeout, "maximum wait before reporting timeout")
	flag.BoolVar(&welcomeFlag, "welcome", false, "claim the welcome bonus before submitting")
	flag.Parse()

	if moodFlag == "" {
		fmt.Fprintln(os.Stderr, "-mood is required")
		os.Exit(1)
	}
	if sessionFlag == "" {
		sessionFlag = "trackctl-" + uuid.NewString()
		fmt.Printf("session: %s (pass -session %s to reuse this balance)\n", sessionFlag, sessionFlag)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if welcomeFlag {
		if err := claimWelcome(ctx, client, serverFlag, sessionFlag); err != nil {
			fmt.Fprintf(os.Stderr, "welcome bonus: %v\n", err)
		}
	}

	taskID, err := submit(ctx, client, serverFlag, sessionFlag, moodFlag, genreFlag, durationFlag, instrumentalFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("task %s submitted, polling every %s\n", taskID, intervalFlag)

	p := poller.New(poller.NewHTTPResolve(serverFlag, client, sessionFlag), intervalFlag, timeoutFlag)
	p.OnCheck = func(res domain.Resolution, err error) {
		switch {
		case err != nil:
			fmt.Printf("  check failed: %v\n", err)
		case !res.Terminal():
			fmt.Println("  still processing")
		}
	}

	res, err := p.Wait(ctx, taskID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "polling aborted: %v\n", err)
		os.Exit(1)
	}
	if res.Status == domain.ResolveFailed {
		fmt.Fprintf(os.Stderr, "generation failed: %s\n", res.ErrorMessage)
		os.Exit(1)
	}

	fmt.Printf("done: %s\n", res.AudioURL)
	if res.Title != "" {
		fmt.Printf("title: %s\n", res.Title)
	}
	if res.DurationSeconds > 0 {
		fmt.Printf("duration: %ds\n", res.DurationSeconds)
	}
}

type submitResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func submit(ctx context.Context, client *http.Client, server, session, mood, genre string, duration int, instrumental bool) (string, error) {
	payload, _ := json.Marshal(map[string]any{
		"mood":             mood,
		"genre":            genre,
		"duration_seconds": duration,
		"instrumental":     instrumental,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", session)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !out.Success || out.Data.TaskID == "" {
		if out.Error.Code == "insufficient_tokens" {
			return "", fmt.Errorf("%s (try -welcome for the signup bonus)", out.Error.Message)
		}
		return "", fmt.Errorf("server refused: %s %s", out.Error.Code, out.Error.Message)
	}
	return out.Data.TaskID, nil
}

func claimWelcome(ctx context.Context, client *http.Client, server, session string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/v1/tokens/welcome", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Session-ID", session)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out struct {
		Data struct {
			Granted bool  `json:"granted"`
			Balance int64 `json:"balance"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.Data.Granted {
		fmt.Printf("welcome bonus granted, balance %d\n", out.Data.Balance)
	} else {
		fmt.Printf("welcome bonus already claimed, balance %d\n", out.Data.Balance)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
