package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchImageSuccess(t *testing.T) {
	payload := []byte("fake jpeg bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "Go-Defect-Analyzer/1.0" {
			t.Errorf("Unexpected user agent: %s", r.Header.Get("User-Agent"))
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, 1<<20)
	data, err := fetcher.FetchImage(context.Background(), server.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("Fetched bytes do not match served bytes")
	}
}

func TestFetchImageClientErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, 1<<20)
	_, err := fetcher.FetchImage(context.Background(), server.URL+"/missing.jpg")
	if err == nil {
		t.Fatal("Expected an error for 404")
	}
	if calls != 1 {
		t.Errorf("Expected exactly one attempt for a 4xx, got %d", calls)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestFetchImageRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(10*time.Second, 1<<20)
	data, err := fetcher.FetchImage(context.Background(), server.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Expected recovery on third attempt, got %v", err)
	}
	if string(data) != "recovered" {
		t.Errorf("Unexpected body: %s", data)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestFetchImageRespectsContextDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	fetcher := NewHTTPImageFetcher(5*time.Second, 1<<20)
	start := time.Now()
	_, err := fetcher.FetchImage(ctx, server.URL+"/photo.jpg")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Backoff ignored context cancellation, took %s", elapsed)
	}
}

func TestFetchImageCapsResponseSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, 1024)
	data, err := fetcher.FetchImage(context.Background(), server.URL+"/big.jpg")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if len(data) != 1024 {
		t.Errorf("Expected body capped at 1024 bytes, got %d", len(data))
	}
}
