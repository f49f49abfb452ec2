package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/config"
)

func TestMain(m *testing.M) {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	os.Exit(m.Run())
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(http.NotFoundHandler(), tag("inner"), tag("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/game?x=1", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "handled request", entry.Message)
	assert.Equal(t, http.StatusTeapot, entry.Data["status_code"])
	assert.Equal(t, "/v1/game?x=1", entry.Data["uri"])
	assert.Equal(t, http.MethodPost, entry.Data["method"])
}

func TestLoggingMasksToken(t *testing.T) {
	j, err := config.NewJWT(config.JwtConfig{Secret: "secret"})
	require.NoError(t, err)
	token, err := j.SignSession(7, time.Now())
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := Wrap(http.NotFoundHandler(), SessionToken(logger, j), Logging(logger))
	h.ServeHTTP(
		httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/v1/game/7/connect?token="+token+"&x=1", nil),
	)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.NotContains(t, entry.Message, token)
		for k, v := range entry.Data {
			assert.NotContains(t, fmt.Sprint(v), token, k)
		}
	}
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "/v1/game/7/connect?token=REDACTED&x=1", last.Data["uri"])
}

func TestSessionToken(t *testing.T) {
	j, err := config.NewJWT(config.JwtConfig{Secret: "secret"})
	require.NoError(t, err)
	token, err := j.SignSession(7, time.Now())
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	h := SessionToken(logger, j)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := SessionClaims(r.Context())
		if !ok {
			io.WriteString(w, "anonymous")
			return
		}
		io.WriteString(w, strconv.FormatInt(claims.SessionID, 10))
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"none", "", "", "anonymous"},
		{"bearer", "Bearer " + token, "", "7"},
		{"query", "", "?token=" + token, "7"},
		{"garbage", "Bearer not-a-token", "", "anonymous"},
		{"wrong scheme", "Basic " + token, "", "anonymous"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/"+test.query, nil)
			if test.header != "" {
				r.Header.Set("Authorization", test.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, test.want, w.Body.String())
		})
	}
}

func TestCors(t *testing.T) {
	h := Cors([]string{"https://mines.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://mines.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "https://mines.example", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
