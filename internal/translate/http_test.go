package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClient_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/translate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "牛肉面" || req.Source != "zh" || req.Target != "en" || req.Format != "text" {
			t.Errorf("request = %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "beef noodles"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 0)

	got, err := c.Translate(context.Background(), "牛肉面", "zh", "en")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "beef noodles" {
		t.Errorf("Translate() = %q, want %q", got, "beef noodles")
	}
}

func TestHTTPClient_TranslateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(translateResponse{Error: "invalid api key"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "bad-key", 0)

	_, err := c.Translate(context.Background(), "noodles", "zh", "en")
	if err == nil {
		t.Fatal("Translate() error = nil, want service error")
	}
}

func TestHTTPClient_TranslateEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "   "})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 0)

	_, err := c.Translate(context.Background(), "noodles", "zh", "en")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("Translate() error = %v, want ErrEmptyResult", err)
	}
}

func TestHTTPClient_TranslateContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Translate(ctx, "noodles", "zh", "en"); err == nil {
		t.Fatal("Translate() error = nil, want timeout")
	}
}
