package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/kronos/internal/logging"
	"github.com/Shivanand-hulikatti/kronos/internal/model"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"
)

// GamerHeader carries the acting gamer's id. Session handling lives in front
// of this service.
const GamerHeader = "X-Gamer-ID"

type ctxKey struct{}

// GamerID returns the acting gamer stored by RequireGamer.
func GamerID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequireGamer rejects requests without a gamer header.
func RequireGamer(next http.Handler) http.Handler {
	rnd := render.New()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(GamerHeader))
		if id == "" {
			_ = rnd.JSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "missing " + GamerHeader + " header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// Logger writes one access log line per request.
func Logger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("%s %s %d %dB %s req=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Microsecond), chimiddleware.GetReqID(r.Context()))
		})
	}
}

// CORS allows browser clients from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+GamerHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
