package handlers

import (
	"net/http"
	"strconv"

	"server/internal/domain"
)

// TasksList is a diagnostics listing of recent tasks, optionally filtered
// to completed ones.
func (a *App) TasksList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	var (
		tasks []domain.GenerationTask
		err   error
	)
	switch r.URL.Query().Get("status") {
	case "completed":
		tasks, err = a.Registry.ListCompleted(r.Context(), limit)
	case "":
		tasks, err = a.Registry.ListAll(r.Context(), limit)
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported status filter")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("tasks: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list tasks")
		return
	}

	items := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		item := map[string]any{
			"task_id":    task.TaskID,
			"status":     string(task.Status),
			"created_at": task.CreatedAt,
		}
		if task.AudioURL != "" {
			item["audio_url"] = task.AudioURL
		}
		if task.Title != "" {
			item["title"] = task.Title
		}
		if task.ErrorMessage != "" {
			item["error"] = task.ErrorMessage
		}
		if task.CompletedAt != nil {
			item["completed_at"] = task.CompletedAt
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"items": items},
	})
}
