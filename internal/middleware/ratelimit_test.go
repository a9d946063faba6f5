package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLimiterStore_AllowAndCleanup(t *testing.T) {
	// allow 5 events immediately then the 6th should be rejected
	s := NewLimiterStore(5, 5, 100*time.Millisecond)
	defer s.Stop()

	key := "test@example.com"
	for i := 0; i < 5; i++ {
		if !s.Allow(key) {
			t.Fatalf("expected allow at iteration %d", i)
		}
	}

	if s.Allow(key) {
		t.Fatalf("expected limiter to block after burst consumed")
	}
}

func TestRateLimit_KeysByEmail(t *testing.T) {
	s := NewLimiterStore(1, 1, time.Minute)
	defer s.Stop()

	var hits int
	h := RateLimit(s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	do := func(email string) int {
		body := strings.NewReader(`{"email":"` + email + `","password":"x"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", body)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("a@example.com"); code != http.StatusOK {
		t.Fatalf("first request for a@: got %d", code)
	}
	if code := do("a@example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("second request for a@: got %d, want 429", code)
	}

	// a different email from the same address has its own bucket
	if code := do("b@example.com"); code != http.StatusOK {
		t.Fatalf("first request for b@: got %d", code)
	}

	if hits != 2 {
		t.Fatalf("handler ran %d times, want 2", hits)
	}
}

func TestRateLimit_BodyRestored(t *testing.T) {
	s := NewLimiterStore(10, 10, time.Minute)
	defer s.Stop()

	var got string
	h := RateLimit(s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, 128)
		n, _ := r.Body.Read(b)
		got = string(b[:n])
	}))

	payload := `{"email":"a@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(payload))
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != payload {
		t.Fatalf("handler saw body %q, want %q", got, payload)
	}
}
