package auxdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEnsureViewerResolves(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":"success","lat":51.5,"lon":-0.12}`))
	}))
	defer srv.Close()

	s := NewStore(srv.URL, "", nil)
	s.EnsureViewer(context.Background())
	s.EnsureViewer(context.Background()) // must not start a second fetch

	waitFor(t, func() bool { _, st := s.Viewer(); return st == StateResolved })
	p, _ := s.Viewer()
	if p.Lat != 51.5 || p.Lon != -0.12 {
		t.Errorf("viewer = %+v", p)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}

	// Resolved is terminal: later calls stay no-ops.
	s.EnsureViewer(context.Background())
	time.Sleep(20 * time.Millisecond)
	if got := hits.Load(); got != 1 {
		t.Errorf("requests after resolve = %d, want 1", got)
	}
}

func TestEnsureViewerFailureStates(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"api failure status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"fail","message":"private range"}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			s := NewStore(srv.URL, "", nil)
			s.EnsureViewer(context.Background())
			waitFor(t, func() bool { _, st := s.Viewer(); return st == StateFailed })

			// Failed is terminal too: no retry.
			s.EnsureViewer(context.Background())
			time.Sleep(20 * time.Millisecond)
			if _, st := s.Viewer(); st != StateFailed {
				t.Errorf("state = %v after failure, want failed", st)
			}
		})
	}
}

func TestEnsureWeatherResolvesPerCity(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("current_weather") != "true" {
			t.Errorf("missing current_weather param: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"current_weather":{"temperature":-3.4,"weathercode":71}}`))
	}))
	defer srv.Close()

	s := NewStore("", srv.URL, nil)
	s.EnsureWeather(context.Background(), "Alpha", 60, 10)
	s.EnsureWeather(context.Background(), "Alpha", 60, 10) // dedup by city

	waitFor(t, func() bool { _, st := s.Weather("Alpha"); return st == StateResolved })
	text, _ := s.Weather("Alpha")
	if text != "-3°C, snow" {
		t.Errorf("weather text = %q", text)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}

	// A different city is a fresh target.
	s.EnsureWeather(context.Background(), "Beta", 50, 20)
	waitFor(t, func() bool { _, st := s.Weather("Beta"); return st == StateResolved })
	if got := hits.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestEnsureWeatherEmptyCityIgnored(t *testing.T) {
	s := NewStore("", "http://127.0.0.1:0", nil)
	s.EnsureWeather(context.Background(), "", 0, 0)
	if _, st := s.Weather(""); st != StateAbsent {
		t.Errorf("state = %v, want absent", st)
	}
}

func TestWeatherUnknownCityAbsent(t *testing.T) {
	s := NewStore("", "", nil)
	if _, st := s.Weather("Nowhere"); st != StateAbsent {
		t.Errorf("state = %v, want absent", st)
	}
}

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *recordingMetrics) AuxFetchInc(target, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[target+"/"+outcome]++
}

func (m *recordingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func TestFetchMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather":{"temperature":12,"weathercode":0}}`))
	}))
	defer srv.Close()

	m := &recordingMetrics{}
	s := NewStore(srv.URL, srv.URL, m)
	s.EnsureWeather(context.Background(), "Alpha", 60, 10)
	waitFor(t, func() bool { return m.get("weather/resolved") == 1 })

	text, _ := s.Weather("Alpha")
	if text != "12°C, clear" {
		t.Errorf("weather text = %q", text)
	}
}

func TestWeatherCodeText(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{0, "clear"},
		{2, "partly cloudy"},
		{45, "fog"},
		{55, "drizzle"},
		{63, "rain"},
		{75, "snow"},
		{80, "showers"},
		{85, "snow showers"},
		{95, "thunderstorm"},
	}
	for _, tc := range cases {
		if got := weatherCodeText(tc.code); got != tc.want {
			t.Errorf("weatherCodeText(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
