package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHTTPClientComplete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(completionBody("hello from the model"))); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", "gpt-3.5-turbo", time.Second, nil)
	reply, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "preamble"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello from the model" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "gpt-3.5-turbo" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestHTTPClientStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","code":"invalid_api_key"}}`, ErrUnauthorized},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"quota","code":"insufficient_quota"}}`, ErrQuotaExceeded},
		{"invalid model", http.StatusNotFound, `{"error":{"message":"The model does not exist","code":"model_not_found"}}`, ErrInvalidModel},
		{"upstream", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, ErrUpstream},
		{"upstream no body", http.StatusBadGateway, `not json`, ErrUpstream},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				if _, err := w.Write([]byte(tc.body)); err != nil {
					t.Errorf("write response: %v", err)
				}
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "test-key", "gpt-3.5-turbo", time.Second, nil)
			_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(server.URL, "test-key", "gpt-3.5-turbo", 50*time.Millisecond, nil)
	start := time.Now()
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected prompt cancellation, took %s", elapsed)
	}
}

func TestHTTPClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"choices":[]}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", "gpt-3.5-turbo", time.Second, nil)
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream for empty choices, got %v", err)
	}
}
