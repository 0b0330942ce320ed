package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/musicgen"
	"server/internal/providers/prompt"
)

// App wires the HTTP handlers to the domain services. Everything behind an
// interface so tests can run against the in-memory stores.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Registry domain.TaskRegistry
	Ledger   domain.TokenLedger
	Music    musicgen.Backend
	Composer prompt.Composer
	Geo      geoip.CountryResolver
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"success": false,
		"error":   map[string]string{"code": errCode, "message": message},
	})
}

func (a *App) currentAccountID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
