package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

// Result reports the current state of a generation task. The endpoint always
// answers HTTP 200; success and data.status carry the real outcome so
// clients do not branch on HTTP status for an expected "still working"
// condition. A task the registry has never seen resolves as processing
// because the callback may simply not have arrived yet.
//
// Delivery is also the charge point: the first completed resolution debits
// one generation's worth of tokens, and a failed resolution refunds a debit
// if one was already taken.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "taskId required")
		return
	}

	task, err := a.Registry.Get(r.Context(), taskID)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		a.Logger.Error().Err(err).Str("task_id", taskID).Msg("result: registry read failed")
		task = nil
	}

	res := domain.Resolve(task)
	if res.Terminal() {
		a.settle(r, taskID, task, res)
	}

	data := map[string]any{
		"id":     taskID,
		"status": string(res.Status),
	}
	if res.AudioURL != "" {
		data["audio_url"] = res.AudioURL
	}
	if res.Title != "" {
		data["title"] = res.Title
	}
	if res.DurationSeconds > 0 {
		data["duration"] = res.DurationSeconds
	}
	if res.ImageURL != "" {
		data["image_url"] = res.ImageURL
	}
	if res.ErrorMessage != "" {
		data["error"] = res.ErrorMessage
	}

	a.json(w, http.StatusOK, map[string]any{
		"success": res.Status != domain.ResolveFailed,
		"data":    data,
	})
}

// settle applies pay-on-success accounting for a terminal resolution. The
// ledger enforces at-most-once semantics per task, so re-polling a finished
// task is harmless. A charge failure never blocks delivery of a track the
// user is already looking at; it is logged for reconciliation.
func (a *App) settle(r *http.Request, taskID string, task *domain.GenerationTask, res domain.Resolution) {
	cost := a.Config.TokenCostPerTrack
	if cost <= 0 {
		return
	}
	accountID := ""
	if task != nil {
		accountID = task.AccountID
	}
	if accountID == "" {
		accountID = a.currentAccountID(r)
	}
	if accountID == "" {
		a.Logger.Warn().Str("task_id", taskID).Msg("settle: no account to charge")
		return
	}

	ctx := r.Context()
	switch res.Status {
	case domain.ResolveCompleted:
		_, err := a.Ledger.Debit(ctx, accountID, cost, "music generation", taskID)
		switch {
		case err == nil:
			a.Logger.Info().Str("task_id", taskID).Str("account_id", accountID).Msg("settle: generation charged")
		case errors.Is(err, domain.ErrDuplicateOperation):
			// Already charged on an earlier poll.
		case errors.Is(err, domain.ErrInsufficientTokens):
			a.Logger.Warn().Str("task_id", taskID).Str("account_id", accountID).Msg("settle: charge refused, delivering anyway")
		default:
			a.Logger.Error().Err(err).Str("task_id", taskID).Msg("settle: debit failed")
		}
	case domain.ResolveFailed:
		_, err := a.Ledger.Refund(ctx, accountID, cost, "failed generation refund", taskID)
		switch {
		case err == nil:
			a.Logger.Info().Str("task_id", taskID).Str("account_id", accountID).Msg("settle: failed generation refunded")
		case errors.Is(err, domain.ErrNoUsageToRefund), errors.Is(err, domain.ErrDuplicateOperation):
			// Nothing was charged, or the refund already went through.
		default:
			a.Logger.Error().Err(err).Str("task_id", taskID).Msg("settle: refund failed")
		}
	}
}
