package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("sitefeed-test/1.0", 5*time.Second)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body: %q", body)
	}
	if gotUA != "sitefeed-test/1.0" {
		t.Errorf("expected user agent to be sent, got %q", gotUA)
	}
}

func TestHTTPFetcher_DecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in latin-1
		w.Write([]byte{'c', 'a', 'f', 0xE9})
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 5*time.Second)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != "café" {
		t.Errorf("expected decoded body, got %q", body)
	}
}

func TestHTTPFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 5*time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestHTTPFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher("", time.Second)
	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Fatal("expected transport error, got nil")
	}
}

func TestHTTPFetcher_WithClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", time.Second, withClient(srv.Client()))
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if body != "ok" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestHTTPFetcher_TooLarge(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", maxBodySize, false},
		{"over limit", maxBodySize + 1<<20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const tail = "<article>tail</article>"
			page := strings.Repeat("x", tt.size-len(tail)) + tail
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write([]byte(page))
			}))
			defer srv.Close()

			f := NewHTTPFetcher("", 10*time.Second)
			body, err := f.Fetch(context.Background(), srv.URL)
			if tt.wantErr {
				if !errors.Is(err, ErrTooLarge) {
					t.Fatalf("expected ErrTooLarge, got %v", err)
				}
				if body != "" {
					t.Errorf("expected no partial body, got %d bytes", len(body))
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if !strings.HasSuffix(body, tail) {
				t.Errorf("expected body to end with %q", tail)
			}
		})
	}
}
