package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"server/internal/callback"
)

const maxCallbackBody = 1 << 20

// MusicCallback receives completion notifications from the music service.
// The sender has no recovery action on error, so the endpoint always
// acknowledges with 200; anything that goes wrong internally is logged for
// monitoring instead of surfaced to the caller.
func (a *App) MusicCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("callback: read body failed")
		a.json(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	note, err := callback.Parse(body)
	if err != nil {
		if errors.Is(err, callback.ErrNoTaskID) {
			a.Logger.Warn().RawJSON("payload", sanitizeRaw(body)).Msg("callback: unattributable payload")
		} else {
			a.Logger.Warn().Err(err).Msg("callback: parse failed")
		}
		a.json(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if _, err := a.Registry.UpsertCompletion(r.Context(), note.TaskID, note.Result, note.Raw); err != nil {
		a.Logger.Error().Err(err).Str("task_id", note.TaskID).Msg("callback: persist completion failed")
	} else {
		a.Logger.Info().
			Str("task_id", note.TaskID).
			Str("status", string(note.Result.TerminalStatus())).
			Msg("callback: completion recorded")
	}

	a.json(w, http.StatusOK, map[string]any{"success": true, "taskId": note.TaskID})
}

// sanitizeRaw keeps log lines valid when the body was not JSON at all.
func sanitizeRaw(body []byte) []byte {
	if !json.Valid(body) {
		return []byte(`{}`)
	}
	return body
}
