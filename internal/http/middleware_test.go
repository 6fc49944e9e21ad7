package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOperator struct {
	enabled bool
	key     string
	err     error
}

func (f fakeOperator) Enabled() bool { return f.enabled }

func (f fakeOperator) Authenticate(key string) error {
	if f.err != nil {
		return f.err
	}
	if key != f.key {
		return application.ErrUnauthorized
	}
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestRequireOperator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		auth         OperatorAuthenticator
		header       string
		expectedCode int
		expectedErr  string
		reachesNext  bool
		asOperator   bool
	}{
		{
			name:         "disabled authenticator admits everyone",
			auth:         fakeOperator{},
			expectedCode: http.StatusNoContent,
			reachesNext:  true,
		},
		{
			name:         "nil authenticator admits everyone",
			expectedCode: http.StatusNoContent,
			reachesNext:  true,
		},
		{
			name:         "missing key",
			auth:         fakeOperator{enabled: true, key: "s3cret"},
			expectedCode: http.StatusUnauthorized,
			expectedErr:  "OPERATOR_KEY_REQUIRED",
		},
		{
			name:         "non bearer scheme",
			auth:         fakeOperator{enabled: true, key: "s3cret"},
			header:       "Basic s3cret",
			expectedCode: http.StatusUnauthorized,
			expectedErr:  "OPERATOR_KEY_REQUIRED",
		},
		{
			name:         "wrong key",
			auth:         fakeOperator{enabled: true, key: "s3cret"},
			header:       "Bearer nope",
			expectedCode: http.StatusForbidden,
			expectedErr:  "OPERATOR_FORBIDDEN",
		},
		{
			name:         "verification failure",
			auth:         fakeOperator{enabled: true, err: errors.New("corrupt hash")},
			header:       "Bearer s3cret",
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:         "matching key",
			auth:         fakeOperator{enabled: true, key: "s3cret"},
			header:       "bearer s3cret",
			expectedCode: http.StatusNoContent,
			reachesNext:  true,
			asOperator:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			reached := false
			operator := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				operator = IsOperator(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodPost, "/seed", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireOperator(tc.auth, discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tc.expectedCode {
				t.Fatalf("expected status %d, got %d", tc.expectedCode, rec.Code)
			}
			if reached != tc.reachesNext {
				t.Fatalf("expected next reached=%v, got %v", tc.reachesNext, reached)
			}
			if operator != tc.asOperator {
				t.Fatalf("expected operator flag %v, got %v", tc.asOperator, operator)
			}
			if tc.expectedErr != "" {
				if body := decodeError(t, rec); body.ErrorCode != tc.expectedErr {
					t.Fatalf("expected error code %s, got %+v", tc.expectedErr, body)
				}
			}
		})
	}
}

func TestClientRateLimiter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.May, 10, 19, 0, 0, 0, time.UTC)
	limiter := NewClientRateLimiter(1, 2, func() time.Time { return now })

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("expected burst of two to be admitted")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected third request in the same instant to be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("expected other clients to have their own bucket")
	}

	now = now.Add(time.Second)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected a token to refill after one second")
	}

	now = now.Add(time.Hour)
	limiter.Allow("10.0.0.3")
	limiter.mu.Lock()
	clients := len(limiter.clients)
	limiter.mu.Unlock()
	if clients != 1 {
		t.Fatalf("expected idle clients to be swept, got %d buckets", clients)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.May, 10, 19, 0, 0, 0, time.UTC)
	limiter := NewClientRateLimiter(1, 1, func() time.Time { return now })
	handler := RateLimit(limiter, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(remote, forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("192.0.2.10:5000", ""); rec.Code != http.StatusCreated {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := send("192.0.2.10:6000", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the same IP on another port, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if body := decodeError(t, rec); body.ErrorCode != "RATE_LIMITED" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if rec := send("192.0.2.10:7000", "203.0.113.7, 192.0.2.10"); rec.Code != http.StatusCreated {
		t.Fatalf("expected forwarded client to get its own bucket, got %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("assigns a request id and exposes the logger", func(t *testing.T) {
		t.Parallel()

		var seenID string
		var hasLogger bool
		handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID, _ = RequestIDFromContext(r.Context())
			hasLogger = LoggerFromContext(r.Context()) != nil
			w.WriteHeader(http.StatusAccepted)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected handler status to pass through, got %d", rec.Code)
		}
		if seenID == "" || rec.Header().Get("X-Request-ID") != seenID {
			t.Fatalf("expected request id header %q to match context %q", rec.Header().Get("X-Request-ID"), seenID)
		}
		if !hasLogger {
			t.Fatal("expected request scoped logger in context")
		}
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		t.Parallel()

		handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "edge-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "edge-42" {
			t.Fatalf("expected edge-42, got %q", got)
		}
	})
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mark("outer"), nil, mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
