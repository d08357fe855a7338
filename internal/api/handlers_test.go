package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/airmonitor/airmonitor/internal/alexa"
	"github.com/airmonitor/airmonitor/internal/model"
)

// MockFetcher is a StateFetcher driven by a function
type MockFetcher struct {
	FetchStateFunc func(ctx context.Context, deviceID string) (model.CapabilityMap, error)
}

func (m *MockFetcher) FetchState(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
	return m.FetchStateFunc(ctx, deviceID)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
}

func TestAirMonitorHandler_MissingID(t *testing.T) {
	called := false
	mock := &MockFetcher{FetchStateFunc: func(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
		called = true
		return nil, nil
	}}
	router := NewRouter(mock, discardLogger())

	for _, target := range []string{"/air_monitor", "/air_monitor?id="} {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), "`id`") {
				t.Errorf("expected hint about id parameter, got %q", w.Body.String())
			}
		})
	}

	if called {
		t.Error("fetcher should not be called without an id")
	}
}

func TestAirMonitorHandler_UpstreamError(t *testing.T) {
	mock := &MockFetcher{FetchStateFunc: func(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
		return nil, &alexa.UpstreamError{Message: "boom"}
	}}
	router := NewRouter(mock, discardLogger())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/air_monitor?id=X", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "boom") {
		t.Errorf("expected body to contain boom, got %q", w.Body.String())
	}
}

func TestAirMonitorHandler_OtherError(t *testing.T) {
	mock := &MockFetcher{FetchStateFunc: func(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
		return nil, errors.New("context canceled")
	}}

	w := httptest.NewRecorder()
	NewRouter(mock, discardLogger()).ServeHTTP(w, httptest.NewRequest("GET", "/air_monitor?id=X", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestAirMonitorHandler_Success(t *testing.T) {
	var gotID string
	mock := &MockFetcher{FetchStateFunc: func(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
		gotID = deviceID
		return model.CapabilityMap{
			"3": map[string]any{"value": 21.5, "scale": "CELSIUS"},
			"4": 55.0,
			"5": "not-a-number",
			"7": 1.0,
		}, nil
	}}
	router := NewRouter(mock, discardLogger())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/air_monitor?id=device-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotID != "device-1" {
		t.Errorf("expected device-1, got %s", gotID)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text exposition content type, got %s", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"# TYPE amazon_air_monitor_temperature_celsius gauge",
		"amazon_air_monitor_temperature_celsius 21.5",
		"amazon_air_monitor_humidity_percent 55",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body:\n%s", want, body)
		}
	}
	if strings.Contains(body, "voc_score") {
		t.Errorf("malformed capability should be omitted:\n%s", body)
	}
}

func TestAirMonitorHandler_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("at-acbuk"); err != nil || c.Value != "at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"deviceStates":[{"capabilityStates":[
			"{\"instance\":\"6\",\"value\":4}",
			"{\"instance\":\"8\",\"value\":0}"
		]}]}`)
	}))
	defer upstream.Close()

	client := alexa.NewClient(alexa.Options{
		StateURL:    upstream.URL,
		UserAgent:   "test",
		Credentials: model.Credentials{ATACBUK: "at", UBIDACBUK: "ubid"},
	}, discardLogger())

	srv := httptest.NewServer(NewRouter(client, discardLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/air_monitor?id=device-1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	for _, want := range []string{
		"amazon_air_monitor_particulate_matter_ug_m3 4",
		"amazon_air_monitor_carbon_monoxide_ppm 0",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in body:\n%s", want, body)
		}
	}
}

func TestAirMonitorHandler_ConcurrentScrapes(t *testing.T) {
	mock := &MockFetcher{FetchStateFunc: func(ctx context.Context, deviceID string) (model.CapabilityMap, error) {
		n, err := strconv.Atoi(deviceID)
		if err != nil {
			return nil, err
		}
		return model.CapabilityMap{"9": float64(n)}, nil
	}}
	router := NewRouter(mock, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", fmt.Sprintf("/air_monitor?id=%d", i), nil))

			want := fmt.Sprintf("amazon_air_monitor_quality_score %d\n", i)
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), want) {
				t.Errorf("scrape %d: status %d body %q", i, w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()
}
