package api

import (
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/tyncan/internal/logging"
)

const authRealm = `Basic realm="TynCan API"`

// HTTPLoggingMiddleware logs HTTP requests with appropriate log levels based on status codes.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	logAttrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query := ctx.URL().RawQuery; query != "" {
		logAttrs = append(logAttrs, slog.String("query", query))
	}
	if userAgent := ctx.Header("User-Agent"); userAgent != "" {
		logAttrs = append(logAttrs, slog.String("user_agent", userAgent))
	}

	next(ctx)

	status := ctx.Status()
	logAttrs = append(logAttrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	level := slog.LevelInfo
	switch {
	case method == http.MethodOptions:
		level = slog.LevelDebug
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx.Context(), level, "HTTP request completed", logAttrs...)
}

// corsMiddleware allows read-only cross-origin access so dashboards on other
// nodes can poll the inventory.
func corsMiddleware(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	ctx.SetHeader("Access-Control-Allow-Methods", "GET, OPTIONS")
	ctx.SetHeader("Access-Control-Allow-Headers", "Authorization, Accept, Content-Type")
	next(ctx)
}

// addPreflightHandler answers CORS preflight requests, which never reach
// Huma middleware because no operation is registered for OPTIONS.
func addPreflightHandler(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Accept, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
	})
}

// basicAuthMiddleware enforces HTTP basic auth on operations that declare a
// security requirement.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		if reason := checkBasicAuth(ctx.Header("Authorization"), username, password); reason != "" {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, reason)
			return
		}

		next(ctx)
	}
}

// requireBasicAuth guards handlers mounted on the mux outside huma, such as
// /metrics, with the same credentials as the API.
func requireBasicAuth(username, password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := checkBasicAuth(r.Header.Get("Authorization"), username, password); reason != "" {
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, reason, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBasicAuth returns an empty string when header carries the expected
// credentials, otherwise the reason to report.
func checkBasicAuth(header, username, password string) string {
	user, pass, reason := parseBasicAuth(header)
	if reason != "" {
		return reason
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
	if !userOK || !passOK {
		return "Invalid credentials"
	}
	return ""
}

// parseBasicAuth returns the credentials or a client-facing failure reason.
func parseBasicAuth(header string) (user, pass, reason string) {
	if header == "" {
		return "", "", "Authentication required"
	}

	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", "Invalid authentication type"
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", "Invalid credentials format"
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", "Invalid credentials format"
	}
	return user, pass, ""
}
