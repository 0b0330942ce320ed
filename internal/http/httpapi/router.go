package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// NewRouter assembles the HTTP surface. The webhook endpoints sit outside
// the rate limiter: the music service and the payment gateway retry on
// failure and must never be throttled into dropping a result.
func NewRouter(app *handlers.App, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	// Inbound webhooks authenticate themselves (HMAC for payments, opaque
	// task IDs for music callbacks) and carry no user session.
	r.Post(app.Config.CallbackPath, app.MusicCallback)
	r.Post("/v1/tokens/purchase/webhook", app.PurchaseWebhook)

	r.Group(func(r chi.Router) {
		if app.Config.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.Session(app.Config.JWTSecret))

		r.Post("/v1/generate", app.Generate)
		r.Get("/v1/result/{taskId}", app.Result)
		r.Get("/v1/tokens", app.TokensBalance)
		r.Post("/v1/tokens/welcome", app.TokensWelcome)
		r.Get("/v1/tasks", app.TasksList)
	})

	if staticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
