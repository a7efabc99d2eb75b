package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeImageFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "IMG_0001.jpg")
	if err := os.WriteFile(path, []byte("fake-jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func completionBody(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(raw)
}

func TestAnalyzeImageDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("unexpected model: %v", req["model"])
		}
		_, _ = w.Write([]byte(completionBody(`{"Titel": "Holzfassade"}`)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"})
	payload, err := client.AnalyzeImage(context.Background(), writeImageFixture(t), "describe")
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if value, _ := payload.String("Titel"); value != "Holzfassade" {
		t.Fatalf("unexpected payload: %q", value)
	}
}

func TestAnalyzeImageRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(completionBody(`{"ok": true}`)))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "key", BaseURL: server.URL, Model: "m", MaxAttempts: 3},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.AnalyzeImage(context.Background(), writeImageFixture(t), "describe"); err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != 7*time.Second {
		t.Fatalf("expected Retry-After to drive the delay, got %v", slept)
	}
}

func TestAnalyzeImageDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "key", BaseURL: server.URL, Model: "m", MaxAttempts: 3},
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.AnalyzeImage(context.Background(), writeImageFixture(t), "describe"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("400 must not be retried, got %d attempts", calls.Load())
	}
}

func TestAnalyzeImageRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.AnalyzeImage(context.Background(), "x.jpg", "describe"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(
		Config{APIKey: "k"},
		WithRetryBackoff(time.Second, 5*time.Second),
	)
	if got := client.backoffDelay(1); got != time.Second {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := client.backoffDelay(2); got != 2*time.Second {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := client.backoffDelay(4); got != 5*time.Second {
		t.Fatalf("attempt 4 should cap: got %v", got)
	}
}
