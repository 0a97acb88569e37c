package investeasy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(context.Background(), server.URL, "test-jwt", logger)
}

func TestCreateClient(t *testing.T) {

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.Method, "POST"; got != want {
			t.Errorf("method got %s want %s", got, want)
		}
		if got, want := r.URL.Path, "/clients"; got != want {
			t.Errorf("path got %s want %s", got, want)
		}
		if got, want := r.Header.Get("Authorization"), "Bearer test-jwt"; got != want {
			t.Errorf("authorization got %q want %q", got, want)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("request decode error: %v", err)
		}
		if got, want := payload["name"], "Demo User"; got != want {
			t.Errorf("name got %v want %v", got, want)
		}
		if _, ok := payload["portfolios"]; !ok {
			t.Error("portfolios field missing from payload")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cl-1", "name": "Demo User", "email": "demo@example.com", "cash": 90000}`))
	})

	record, err := c.CreateClient(context.Background(), "Demo User", "demo@example.com", 90000)
	if err != nil {
		t.Fatalf("unexpected create client error: %v", err)
	}
	if got, want := record.ID, "cl-1"; got != want {
		t.Errorf("id got %s want %s", got, want)
	}
	if got, want := record.Cash, 90000.0; got != want {
		t.Errorf("cash got %f want %f", got, want)
	}
}

func TestCreatePortfolio(t *testing.T) {

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.URL.Path, "/clients/cl-1/portfolios"; got != want {
			t.Errorf("path got %s want %s", got, want)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "pf-1", "clientId": "cl-1", "type": "balanced", "initialAmount": 90000}`))
	})

	portfolio, err := c.CreatePortfolio(context.Background(), "cl-1", "balanced", 90000)
	if err != nil {
		t.Fatalf("unexpected create portfolio error: %v", err)
	}
	if got, want := portfolio.ID, "pf-1"; got != want {
		t.Errorf("id got %s want %s", got, want)
	}
	if got, want := portfolio.Type, "balanced"; got != want {
		t.Errorf("type got %s want %s", got, want)
	}
}

func TestDeleteClient(t *testing.T) {

	var deleted bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "DELETE" && r.URL.Path == "/clients/cl-1" {
			deleted = true
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.DeleteClient(context.Background(), "cl-1"); err != nil {
		t.Fatalf("unexpected delete client error: %v", err)
	}
	if !deleted {
		t.Error("delete request not received")
	}
}

func TestSimulateClient(t *testing.T) {

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got, want := r.URL.Path, "/client/cl-1/simulate"; got != want {
			t.Errorf("path got %s want %s", got, want)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("request decode error: %v", err)
		}
		if got, want := payload["months"], 60.0; got != want {
			t.Errorf("months got %v want %v", got, want)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"clientId": "cl-1", "months": 60, "finalValue": 110350.50, "growth": 20350.50}`))
	})

	simulation, err := c.SimulateClient(context.Background(), "cl-1", 60)
	if err != nil {
		t.Fatalf("unexpected simulate error: %v", err)
	}
	if got, want := simulation.FinalValue, 110350.50; got != want {
		t.Errorf("final value got %f want %f", got, want)
	}
	if got, want := simulation.Growth, 20350.50; got != want {
		t.Errorf("growth got %f want %f", got, want)
	}
}

func TestAPIError(t *testing.T) {

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "no such client"}`, http.StatusNotFound)
	})

	_, err := c.CreatePortfolio(context.Background(), "cl-unknown", "balanced", 1)
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestExpectedReturn(t *testing.T) {

	tests := []struct {
		riskTolerance string
		want          float64
	}{
		{"very-aggressive", 0.12},
		{"moderate", 0.08},
		{"very-conservative", 0.04},
		{"no-idea", 0.08},
		{"", 0.08},
	}
	for _, tt := range tests {
		if got := ExpectedReturn(tt.riskTolerance); got != tt.want {
			t.Errorf("expected return for %q got %f want %f", tt.riskTolerance, got, tt.want)
		}
	}
}

func TestProjectGrowth(t *testing.T) {

	// 1000/month at 8% over 5 years: standard future value of an annuity.
	got := ProjectGrowth(1000, 0.08, 60)
	want := 1000 * ((math.Pow(1+0.08/12, 60) - 1) / (0.08 / 12))
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("projection got %f want %f", got, want)
	}
	if got <= 60000 {
		t.Errorf("projection %f should exceed plain contributions", got)
	}

	// Zero return degenerates to the contribution sum.
	if got := ProjectGrowth(1000, 0, 60); got != 60000 {
		t.Errorf("zero-return projection got %f want 60000", got)
	}
}
