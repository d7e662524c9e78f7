package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/cardgate/internal/auth"
	"github.com/ovaphlow/cardgate/internal/config"
	"github.com/ovaphlow/cardgate/internal/session"
	"github.com/ovaphlow/cardgate/internal/token"
	"github.com/ovaphlow/cardgate/internal/user"
	"github.com/ovaphlow/cardgate/internal/web"
	"github.com/ovaphlow/cardgate/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware tags every request with a snowflake request id and logs
// method, path, status, duration and size at debug level.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := utilities.NewSnowflakeID(1)
			w.Header().Set("X-Request-Id", requestID)
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets conservative defaults that work with both
// the JSON API and the rendered pages.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes wires services and mounts both HTTP surfaces on a standard
// library ServeMux: the bearer-token JSON API under /cardgate-api and the
// session-backed views at the root.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, cfg *config.Config) http.Handler {
	userSvc := user.NewService(db, user.BcryptHasher{Cost: cfg.Password.Cost}, logger)
	tokens := token.NewService(cfg.Token)
	sessions := session.NewManager(cfg.Session)
	gate := auth.NewGate(tokens, sessions, userSvc)

	apiHandler := auth.NewHandler(userSvc, tokens, logger)
	webHandler := web.NewHandler(userSvc, sessions, gate, logger)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /cardgate-api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// token surface
	mux.HandleFunc("POST /cardgate-api/auth/register", apiHandler.Register)
	mux.HandleFunc("POST /cardgate-api/auth/login", apiHandler.Login)
	mux.Handle("GET /cardgate-api/auth/me", gate.RequireUser(http.HandlerFunc(apiHandler.Me)))
	mux.HandleFunc("POST /cardgate-api/auth/logout", apiHandler.Logout)
	mux.HandleFunc("POST /cardgate-api/auth/password-reset", apiHandler.PasswordReset)
	mux.HandleFunc("POST /cardgate-api/auth/password-reset/confirm", apiHandler.PasswordResetConfirm)

	// session surface
	mux.HandleFunc("GET /{$}", webHandler.Home)
	mux.HandleFunc("GET /login", webHandler.LoginPage)
	mux.HandleFunc("POST /login", webHandler.Login)
	mux.HandleFunc("GET /register", webHandler.RegisterPage)
	mux.HandleFunc("POST /register", webHandler.Register)
	mux.HandleFunc("GET /logout", webHandler.Logout)

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
