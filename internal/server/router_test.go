package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/playlistd/internal/shared"
)

type echoHandler struct{}

func (echoHandler) Routes() []string { return []string{"GET /a", "POST /b"} }

func (echoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, r.Method+" "+r.URL.Path)
}

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected 200 pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Handler registers every route", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(echoHandler{})

		for _, tc := range []struct{ method, path string }{{http.MethodGet, "/a"}, {http.MethodPost, "/b"}} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if want := tc.method + " " + tc.path; rec.Body.String() != want {
				t.Errorf("expected %q, got %q", want, rec.Body.String())
			}
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Use(tag("outer", &order), tag("inner", &order))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if got := strings.Join(order, ","); got != "outer,inner,handler" {
			t.Errorf("expected outer,inner,handler, got %s", got)
		}
	})

	t.Run("Use only wraps later handlers", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/before", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		router.Use(tag("mw", &order))
		router.Handle(http.MethodGet, "/after", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/before", nil))
		if len(order) != 0 {
			t.Errorf("expected no middleware on /before, got %v", order)
		}
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/after", nil))
		if len(order) != 1 {
			t.Errorf("expected middleware on /after, got %v", order)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Recoverer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		router := NewBasicRouter()
		router.Use(RequestLogger(logger, NewMetrics()), Recoverer(logger))
		router.Handle(http.MethodGet, "/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "internal_error") {
			t.Errorf("expected JSON error body, got %s", rec.Body.String())
		}
		if !strings.Contains(buf.String(), "panic in handler") {
			t.Errorf("expected panic to be logged, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), "request_id") {
			t.Errorf("expected log to carry the request id, got %s", buf.String())
		}
	})

	t.Run("RequestLogger records status", func(t *testing.T) {
		var buf bytes.Buffer
		metrics := NewMetrics()
		router := NewBasicRouter()
		router.Use(RequestLogger(shared.NewLogger(&buf), metrics))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		if rec.Header().Get(requestIDHeader) == "" {
			t.Error("expected a request id header")
		}
		if !strings.Contains(buf.String(), "status=418") {
			t.Errorf("expected status in log, got %s", buf.String())
		}
	})
}
