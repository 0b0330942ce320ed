package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/middleware"
)

func contextWithAccount(ctx context.Context, accountID string) context.Context {
	return middleware.ContextWithUserID(ctx, accountID)
}

// withChiParam injects a URL parameter the way the chi router would.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
