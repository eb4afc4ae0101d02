package scryfall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ramonehamilton/MTG-Buylist/internal/metrics"
)

func newTestClient(server *httptest.Server, m *metrics.LookupMetrics) *Client {
	return NewClient(ClientOptions{
		BaseURL:   server.URL,
		RateLimit: time.Millisecond,
		Metrics:   m,
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientOptions{})

	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("userAgent = %q", client.userAgent)
	}
	if client.httpClient.Timeout != 0 {
		t.Errorf("httpClient timeout = %v, want none", client.httpClient.Timeout)
	}
}

func TestClient_LookupCard_SingleFaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("exact"); got != "Lightning Bolt" {
			t.Errorf("exact = %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "abc",
			"name": "Lightning Bolt",
			"mana_cost": "{R}",
			"cmc": 1.0,
			"image_uris": {"normal": "https://img/bolt.jpg"},
			"prices": {"usd": "1.25"}
		}`))
	}))
	defer server.Close()

	m := metrics.NewLookupMetrics()
	lookup, err := newTestClient(server, m).LookupCard(context.Background(), "Lightning Bolt")
	if err != nil {
		t.Fatalf("LookupCard() error = %v", err)
	}

	if lookup.Price == nil || lookup.Price.String() != "1.25" {
		t.Errorf("Price = %v, want 1.25", lookup.Price)
	}
	if lookup.ManaCost == nil || *lookup.ManaCost != "{R}" {
		t.Errorf("ManaCost = %v", lookup.ManaCost)
	}
	if lookup.ConvertedManaCost == nil || *lookup.ConvertedManaCost != 1 {
		t.Errorf("ConvertedManaCost = %v", lookup.ConvertedManaCost)
	}
	if len(lookup.Faces) != 1 || lookup.Faces[0].ImageURL != "https://img/bolt.jpg" {
		t.Errorf("Faces = %+v", lookup.Faces)
	}
	if !lookup.HasImage() {
		t.Error("HasImage() = false")
	}
	if s := m.Snapshot(); s.Requests != 1 || s.Failures != 0 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestClient_LookupCard_TwoFaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Delver of Secrets // Insectile Aberration",
			"layout": "transform",
			"cmc": 1.0,
			"card_faces": [
				{"name": "Delver of Secrets", "mana_cost": "{U}", "image_uris": {"normal": "https://img/front.jpg"}},
				{"name": "Insectile Aberration", "mana_cost": "", "image_uris": {"normal": "https://img/back.jpg"}}
			],
			"prices": {"usd": null}
		}`))
	}))
	defer server.Close()

	lookup, err := newTestClient(server, nil).LookupCard(context.Background(), "Delver of Secrets")
	if err != nil {
		t.Fatalf("LookupCard() error = %v", err)
	}

	if lookup.Price != nil {
		t.Errorf("Price = %v, want nil for a card without price", lookup.Price)
	}
	if lookup.ManaCost == nil || *lookup.ManaCost != "{U}" {
		t.Errorf("ManaCost = %v, want {U}", lookup.ManaCost)
	}
	if len(lookup.Faces) != 2 {
		t.Fatalf("Faces = %+v, want 2", lookup.Faces)
	}
	if lookup.Faces[1].Name != "Insectile Aberration" || lookup.Faces[1].ImageURL != "https://img/back.jpg" {
		t.Errorf("back face = %+v", lookup.Faces[1])
	}
	if lookup.ImageURL() != "https://img/front.jpg" {
		t.Errorf("ImageURL() = %q", lookup.ImageURL())
	}
}

func TestClient_LookupCard_SplitCardManaCost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Fire // Ice",
			"image_uris": {"normal": "https://img/fireice.jpg"},
			"card_faces": [
				{"name": "Fire", "mana_cost": "{1}{R}"},
				{"name": "Ice", "mana_cost": "{1}{U}"}
			],
			"prices": {"usd": "0.30"}
		}`))
	}))
	defer server.Close()

	lookup, err := newTestClient(server, nil).LookupCard(context.Background(), "Fire // Ice")
	if err != nil {
		t.Fatalf("LookupCard() error = %v", err)
	}
	if lookup.ManaCost == nil || *lookup.ManaCost != "{1}{R} // {1}{U}" {
		t.Errorf("ManaCost = %v", lookup.ManaCost)
	}
	if lookup.ConvertedManaCost != nil {
		t.Errorf("ConvertedManaCost = %v, want nil", *lookup.ConvertedManaCost)
	}
	if len(lookup.Faces) != 1 {
		t.Errorf("Faces = %+v, want single shared image", lookup.Faces)
	}
}

func TestClient_LookupCard_NoImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Placeholder", "prices": {"usd": "2.00"}}`))
	}))
	defer server.Close()

	lookup, err := newTestClient(server, nil).LookupCard(context.Background(), "Placeholder")
	if err != nil {
		t.Fatalf("LookupCard() error = %v", err)
	}
	if lookup.HasImage() {
		t.Error("HasImage() = true for a card without images")
	}
	if lookup.Price == nil {
		t.Error("price should still be reported")
	}
}

func TestClient_LookupCard_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","code":"not_found","status":404,"details":"No cards found"}`))
	}))
	defer server.Close()

	m := metrics.NewLookupMetrics()
	_, err := newTestClient(server, m).LookupCard(context.Background(), "Nonexistent Card")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got: %T", err)
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Name != "Nonexistent Card" {
		t.Errorf("NotFoundError.Name = %q", nf.Name)
	}
	if s := m.Snapshot(); s.NotFound != 1 {
		t.Errorf("not found count = %d, want 1", s.NotFound)
	}
}

func TestClient_LookupCard_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"bad_request","status":400,"details":"Invalid query"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server, nil).LookupCard(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got: %v", err)
	}
	if apiErr.Status != 400 {
		t.Errorf("Status = %d, want 400", apiErr.Status)
	}
}

func TestClient_EscapesName(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"name":"x","prices":{}}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server, nil).LookupCard(context.Background(), "Jötun Grunt & Friends"); err != nil {
		t.Fatal(err)
	}
	want := "exact=J%C3%B6tun%20Grunt%20%26%20Friends"
	if rawQuery != want {
		t.Errorf("query = %q, want %q", rawQuery, want)
	}
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Opt","prices":{"usd":"0.10"}}`))
	}))
	defer server.Close()

	noRetry := newTestClient(server, nil)
	if _, err := noRetry.LookupCard(context.Background(), "Opt"); err == nil {
		t.Fatal("expected 429 to fail without retries")
	}

	calls.Store(0)
	client := NewClient(ClientOptions{BaseURL: server.URL, RateLimit: time.Millisecond, Retries: 1})
	if _, err := client.LookupCard(context.Background(), "Opt"); err != nil {
		t.Fatalf("LookupCard() with retry error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(server, nil).LookupCard(ctx, "Opt"); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"NotFoundError", &NotFoundError{Name: "test"}, true},
		{"wrapped NotFoundError", errors.Join(errors.New("ctx"), &NotFoundError{}), true},
		{"APIError", &APIError{Status: 500}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}
