package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/musicgen"
	"server/internal/providers/prompt"
)

type generateRequest struct {
	Mood            string `json:"mood"`
	Scene           string `json:"scene"`
	Genre           string `json:"genre"`
	DurationSeconds int    `json:"duration_seconds"`
	Instrumental    bool   `json:"instrumental"`
}

// Generate validates the form, composes a music prompt, submits the job to
// the music backend and registers the pending task. The response is an
// immediate processing handle; the client follows status_url from there.
// No token is debited here: charging happens on confirmed delivery.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "mood is required")
		return
	}
	if scene := strings.TrimSpace(req.Scene); scene != "" {
		mood = mood + ", " + scene
	}

	// Pre-check so a user with an empty balance is sent to the purchase flow
	// before any upstream work happens. The authoritative guard is still the
	// ledger debit at delivery time.
	if a.Config.TokenCostPerTrack > 0 {
		balance, err := a.Ledger.Balance(r.Context(), accountID)
		if err != nil {
			a.Logger.Error().Err(err).Str("account_id", accountID).Msg("generate: balance check failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to check balance")
			return
		}
		if balance < a.Config.TokenCostPerTrack {
			a.error(w, http.StatusPaymentRequired, "insufficient_tokens", "not enough tokens, purchase required")
			return
		}
	}

	duration := musicgen.ClampDuration(req.DurationSeconds, a.Config.MusicMinSecs, a.Config.MusicMaxSecs)

	composed, err := a.Composer.Compose(r.Context(), prompt.ComposeRequest{
		Mood:            mood,
		Genre:           strings.TrimSpace(req.Genre),
		Instrumental:    req.Instrumental,
		DurationSeconds: duration,
	})
	if err != nil || composed == nil || strings.TrimSpace(composed.Prompt) == "" {
		a.Logger.Warn().Err(err).Msg("generate: prompt composition failed, using raw mood")
		composed = &prompt.ComposeResponse{Prompt: mood}
	}

	taskID, err := a.Music.Submit(r.Context(), musicgen.SubmitRequest{
		Prompt:          composed.Prompt,
		DurationSeconds: duration,
		Instrumental:    req.Instrumental,
		CallbackURL:     a.Config.CallbackURL(),
	})
	if err != nil {
		var subErr *musicgen.SubmissionError
		if errors.As(err, &subErr) {
			a.Logger.Error().Err(subErr).Str("backend", a.Music.Name()).Msg("generate: submission rejected")
			a.error(w, http.StatusBadGateway, "submission_failed", "music service rejected the request")
			return
		}
		a.Logger.Error().Err(err).Msg("generate: submission failed")
		a.error(w, http.StatusBadGateway, "submission_failed", "music service unavailable")
		return
	}

	task := &domain.GenerationTask{
		TaskID:    taskID,
		AccountID: accountID,
		Status:    domain.TaskStatusPending,
		Prompt:    composed.Prompt,
	}
	if err := a.Registry.Register(r.Context(), task); err != nil && !errors.Is(err, domain.ErrDuplicateTask) {
		// The job is already running upstream, so the handle is still
		// returned; the completion path creates the record defensively.
		a.Logger.Error().Err(err).Str("task_id", taskID).Msg("generate: register failed")
	}

	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"task_id":    taskID,
			"status":     "processing",
			"status_url": strings.TrimRight(a.Config.BaseURL, "/") + "/v1/result/" + taskID,
		},
	})
}
