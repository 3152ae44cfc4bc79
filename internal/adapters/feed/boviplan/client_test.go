package boviplan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cattle-dental-health/internal/platform/logger"
	"cattle-dental-health/internal/ports/feed"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:    srv.URL,
		ClientName: "animaltools",
		Log:        logger.New(logger.Options{Level: logger.Error}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestFetchAnimalsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("client"); got != "animaltools" {
			t.Errorf("client query = %q", got)
		}
		if got := r.URL.Query().Get("dt_init"); got != "2026-01-01" {
			t.Errorf("dt_init query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"brinco_eletronico":"982000123"},{"brinco_eletronico":"982000124"}]}`))
	})

	records, err := c.FetchAnimals(context.Background(), "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("FetchAnimals: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0]["brinco_eletronico"] != "982000123" {
		t.Errorf("first record = %v", records[0])
	}
}

func TestFetchAnimalsBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"brinco_eletronico":"982000125"}]`))
	})

	records, err := c.FetchAnimals(context.Background(), "2026-01-01", "2026-01-07")
	if err != nil {
		t.Fatalf("FetchAnimals: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}

func TestFetchAnimalsNotFoundIsNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := c.FetchAnimals(context.Background(), "2026-01-01", "2026-01-07")
	if !errors.Is(err, feed.ErrNoData) {
		t.Fatalf("err = %v, want feed.ErrNoData", err)
	}
}

func TestFetchAnimalsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchAnimals(context.Background(), "2026-01-01", "2026-01-07")
	if err == nil || errors.Is(err, feed.ErrNoData) {
		t.Fatalf("err = %v, want upstream error", err)
	}
}
