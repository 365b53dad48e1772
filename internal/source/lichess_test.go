package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const ratedBody = `{
	"game": {"id": "g1", "pgn": "1. e4 e5 2. Nf3 Nc6"},
	"puzzle": {"id": "p1", "initialPly": 4, "solution": ["f1b5"], "rating": 1450}
}`

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, 5*time.Second, zerolog.Nop())
	client.backoff = time.Millisecond
	return client, server
}

func TestClientRated(t *testing.T) {
	var gotPath, gotLower, gotUpper string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLower = r.URL.Query().Get("lowerBound")
		gotUpper = r.URL.Query().Get("upperBound")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratedBody))
	}))

	raw, err := client.Rated(context.Background(), 1200, 1600)
	if err != nil {
		t.Fatalf("Rated: %v", err)
	}
	if gotPath != "/api/puzzle/rated" {
		t.Errorf("path = %q", gotPath)
	}
	if gotLower != "1200" || gotUpper != "1600" {
		t.Errorf("bounds = %q..%q, want 1200..1600", gotLower, gotUpper)
	}
	if raw.ID != "p1" || raw.InitialPly != 4 || raw.Rating != 1450 {
		t.Errorf("raw = %+v", raw)
	}
	if raw.GamePGN != "1. e4 e5 2. Nf3 Nc6" {
		t.Errorf("GamePGN = %q", raw.GamePGN)
	}
	if len(raw.Solution) != 1 || raw.Solution[0] != "f1b5" {
		t.Errorf("Solution = %v", raw.Solution)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratedBody))
	}))

	if _, err := client.Rated(context.Background(), 1200, 1600); err != nil {
		t.Fatalf("Rated after retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Rated(context.Background(), 1200, 1600)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestClientRejectsIncompletePayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing puzzle id", `{"game": {"pgn": "1. e4"}, "puzzle": {"solution": ["e7e5"]}}`},
		{"missing solution", `{"game": {"pgn": "1. e4"}, "puzzle": {"id": "p1"}}`},
		{"missing game record", `{"puzzle": {"id": "p1", "solution": ["e7e5"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			if _, err := client.Rated(context.Background(), 1200, 1600); !errors.Is(err, ErrSourceUnavailable) {
				t.Errorf("err = %v, want ErrSourceUnavailable", err)
			}
		})
	}
}

func TestThemedSource(t *testing.T) {
	var gotTheme string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTheme = r.URL.Query().Get("theme")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratedBody))
	}))

	src := &ThemedSource{Client: client, Theme: "mateIn2"}
	raw, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if gotTheme != "mateIn2" {
		t.Errorf("theme param = %q, want mateIn2", gotTheme)
	}
	if raw.Theme != "mateIn2" {
		t.Errorf("raw.Theme = %q, want mateIn2", raw.Theme)
	}
}

func TestRatedSource(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratedBody))
	}))

	src := &RatedSource{Client: client, Lower: 1200, Upper: 1600}
	raw, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if raw.Source != "Lichess" {
		t.Errorf("Source = %q, want Lichess", raw.Source)
	}
}
