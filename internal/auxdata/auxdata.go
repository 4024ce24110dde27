// Package auxdata holds the best-effort external inputs to playback:
// the viewer's geolocation and per-city weather. Each target is fetched
// at most once, fire-and-forget; the tick loop polls the cached result
// and a fetch that never resolves simply leaves its field pending.
package auxdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"journey-tracker/internal/geo"
)

type State int

const (
	StateAbsent State = iota
	StatePending
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	}
	return "absent"
}

// Metrics is the optional hook for fetch accounting.
type Metrics interface {
	AuxFetchInc(target, outcome string)
}

type weatherEntry struct {
	state State
	text  string
}

// Store is the single cache for auxiliary data. The tick loop is the
// only poller; fetch goroutines are the only writers, each guarded by
// the one mutex.
type Store struct {
	client       *http.Client
	geolocateURL string
	weatherURL   string
	metrics      Metrics

	mu          sync.Mutex
	viewerState State
	viewer      geo.Point
	weather     map[string]*weatherEntry
}

func NewStore(geolocateURL, weatherURL string, m Metrics) *Store {
	return &Store{
		client:       &http.Client{Timeout: 15 * time.Second},
		geolocateURL: geolocateURL,
		weatherURL:   weatherURL,
		metrics:      m,
		weather:      make(map[string]*weatherEntry),
	}
}

// Viewer returns the cached viewer location and its state.
func (s *Store) Viewer() (geo.Point, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer, s.viewerState
}

// EnsureViewer starts the geolocation fetch once. Calls while a fetch is
// in flight, resolved or failed are no-ops; there is no retry and no
// cancellation of an in-flight fetch.
func (s *Store) EnsureViewer(ctx context.Context) {
	s.mu.Lock()
	if s.viewerState != StateAbsent {
		s.mu.Unlock()
		return
	}
	s.viewerState = StatePending
	s.mu.Unlock()

	go func() {
		p, err := s.fetchViewer(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil || !p.Finite() {
			s.viewerState = StateFailed
			s.fetchInc("viewer", "failed")
			return
		}
		s.viewer = p
		s.viewerState = StateResolved
		s.fetchInc("viewer", "resolved")
	}()
}

// geolocateResponse follows the common IP geolocation JSON shape.
type geolocateResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

func (s *Store) fetchViewer(ctx context.Context) (geo.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.geolocateURL, nil)
	if err != nil {
		return geo.Point{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return geo.Point{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("geolocate status %d", resp.StatusCode)
	}
	var gr geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return geo.Point{}, err
	}
	if gr.Status != "" && gr.Status != "success" {
		return geo.Point{}, fmt.Errorf("geolocate status %q", gr.Status)
	}
	return geo.Point{Lat: gr.Lat, Lon: gr.Lon}, nil
}

// Weather returns the cached weather summary for a city.
func (s *Store) Weather(city string) (string, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.weather[city]
	if !ok {
		return "", StateAbsent
	}
	return e.text, e.state
}

// EnsureWeather starts the weather fetch for a city once, keyed by city
// name. Stale targets are allowed to complete; the tick loop just stops
// reading them once the anchor city moves on.
func (s *Store) EnsureWeather(ctx context.Context, city string, lat, lon float64) {
	if city == "" {
		return
	}
	s.mu.Lock()
	if _, ok := s.weather[city]; ok {
		s.mu.Unlock()
		return
	}
	s.weather[city] = &weatherEntry{state: StatePending}
	s.mu.Unlock()

	go func() {
		text, err := s.fetchWeather(ctx, lat, lon)
		s.mu.Lock()
		defer s.mu.Unlock()
		e := s.weather[city]
		if err != nil {
			e.state = StateFailed
			s.fetchInc("weather", "failed")
			return
		}
		e.text = text
		e.state = StateResolved
		s.fetchInc("weather", "resolved")
	}()
}

// weatherResponse follows the open-meteo current_weather shape.
type weatherResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (s *Store) fetchWeather(ctx context.Context, lat, lon float64) (string, error) {
	u, err := url.Parse(s.weatherURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather status %d", resp.StatusCode)
	}
	var wr weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return "", err
	}
	return fmt.Sprintf("%.0f°C, %s", wr.CurrentWeather.Temperature, weatherCodeText(wr.CurrentWeather.WeatherCode)), nil
}

// weatherCodeText maps WMO weather codes to short labels.
func weatherCodeText(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}

func (s *Store) fetchInc(target, outcome string) {
	if s.metrics != nil {
		s.metrics.AuxFetchInc(target, outcome)
	}
}
