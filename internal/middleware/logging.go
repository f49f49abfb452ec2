package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

type loggingWriter struct {
	http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (w *loggingWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	w.hijacked = true
	return h.Hijack()
}

// loggedURI is the request URI with the session token query value masked.
func loggedURI(u *url.URL) string {
	query := u.Query()
	if !query.Has("token") {
		return u.RequestURI()
	}
	query.Set("token", "REDACTED")
	redacted := *u
	redacted.RawQuery = query.Encode()
	return redacted.RequestURI()
}

func Logging(log logrus.FieldLogger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uri := loggedURI(r.URL)
			log.Debugf("--> %s %s", r.Method, uri)
			start := time.Now()

			wrapped := &loggingWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.WithFields(logrus.Fields{
				"status_code": wrapped.statusCode,
				"hijacked":    wrapped.hijacked,
				"remote_addr": r.RemoteAddr,
				"xff_header":  r.Header.Get("X-Forwarded-For"),
				"method":      r.Method,
				"uri":         uri,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("handled request")
		})
	}
}
