package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/grand-campaign/internal/logger"
)

// maxLoggedBody caps debug body logging; state snapshots run far larger.
const maxLoggedBody = 8 << 10

// quietPaths are logged at debug level only.
var quietPaths = []string{"/healthz"}

// Logger logs each request with a request ID, the campaign it targets,
// status and duration. Bodies are logged at debug level.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.NewRequestID())
		r = r.WithContext(ctx)

		lc := logger.ForRequest(ctx).With().
			Str("method", r.Method).
			Str("path", r.URL.Path)
		if id := campaignFromPath(r.URL.Path); id != "" {
			lc = lc.Str("campaignId", id)
		}
		l := lc.Logger()

		level := zerolog.InfoLevel
		if slices.Contains(quietPaths, r.URL.Path) {
			level = zerolog.DebugLevel
		}

		if r.Body != nil {
			bodyBytes, err := io.ReadAll(r.Body)
			if err == nil && len(bodyBytes) > 0 {
				logBody(l, "Request body", bodyBytes)
				r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}
		}
		l.WithLevel(level).Msg("Request received")

		rw := &responseWriter{ResponseWriter: w, buf: &bytes.Buffer{}, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.buf.Len() > 0 {
			logBody(l, "Response body", rw.buf.Bytes())
		}
		l.WithLevel(level).
			Int("status", rw.status).
			Int("bytes", rw.size).
			Dur("durationMs", time.Since(start)).
			Msg("Request completed")
	})
}

func logBody(l zerolog.Logger, msg string, body []byte) {
	if len(body) > maxLoggedBody {
		l.Debug().Int("bytes", len(body)).Msg(msg)
		return
	}
	l.Debug().RawJSON("body", compactJSON(body)).Msg(msg)
}

// campaignFromPath extracts {id} from /api/v1/campaigns/{id}/...
func campaignFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/v1/campaigns/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

// OriginAllowed reports whether origin may call the API. "*" allows all.
func OriginAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || (origin != "" && slices.Contains(allowed, origin))
}

// CORS adds Cross-Origin Resource Sharing headers for the allowed origins.
func CORS(allowed []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowed, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case OriginAllowed(allowed, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// JSON sets the Content-Type header to application/json for all responses.
func JSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Chain applies middleware in order (first applied = outermost).
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// compactJSON returns b without insignificant whitespace, or b quoted as a
// JSON string when it is not valid JSON.
func compactJSON(b []byte) []byte {
	var out bytes.Buffer
	if err := json.Compact(&out, b); err != nil {
		quoted, _ := json.Marshal(string(b))
		return quoted
	}
	return out.Bytes()
}

// responseWriter records status, size and (up to maxLoggedBody+1 bytes) body.
type responseWriter struct {
	http.ResponseWriter
	buf    *bytes.Buffer
	status int
	size   int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody + 1 - w.buf.Len(); room > 0 {
		w.buf.Write(b[:min(room, len(b))])
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the logging middleware.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
