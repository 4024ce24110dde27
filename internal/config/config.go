package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RouteSource string // "file" or "db"
	RoutePath   string
	DatabaseURL string

	JourneyID      string
	TickInterval   time.Duration
	RevealSequence int
	FinalSequence  int
	FirstStopGrace time.Duration
	StreamerMode   bool
	MusicEnabled   bool

	NATSURL         string
	NATSSubjectBase string
	LogNATSSubjects bool
	MetricsAddr     string

	GeolocateURL string
	WeatherURL   string

	LockedZoom float64
	MinZoom    float64
	MaxZoom    float64
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.RouteSource = strings.ToLower(getenvDefault("ROUTE_SOURCE", "file"))
	switch cfg.RouteSource {
	case "file":
		cfg.RoutePath = getenvDefault("ROUTE_PATH", "route.json")
	case "db":
		dsn, err := resolveDatabaseURL()
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = dsn
	default:
		return nil, fmt.Errorf("invalid ROUTE_SOURCE: %q (want file or db)", cfg.RouteSource)
	}

	cfg.JourneyID = getenvDefault("JOURNEY_ID", "journey")

	// Tick interval
	if v := os.Getenv("TICK_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid TICK_INTERVAL_MS: %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	} else {
		cfg.TickInterval = 250 * time.Millisecond
	}

	// Sequence number marking the reveal/phase boundary
	if v := os.Getenv("REVEAL_SEQUENCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REVEAL_SEQUENCE: %q", v)
		}
		cfg.RevealSequence = n
	} else {
		cfg.RevealSequence = 1
	}

	// Sequence number of the designated final waypoint
	if v := os.Getenv("FINAL_SEQUENCE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FINAL_SEQUENCE: %q", v)
		}
		cfg.FinalSequence = n
	} else {
		cfg.FinalSequence = -1 // fall back to the route's last entry
	}

	// Grace period appended to the first stop's departure window
	if v := os.Getenv("FIRST_STOP_GRACE_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec < 0 {
			return nil, fmt.Errorf("invalid FIRST_STOP_GRACE_SEC: %q", v)
		}
		cfg.FirstStopGrace = time.Duration(sec) * time.Second
	} else {
		cfg.FirstStopGrace = 60 * time.Second
	}

	cfg.StreamerMode = boolEnv("STREAMER_MODE")
	cfg.MusicEnabled = boolEnvDefault("MUSIC_ENABLED", true)

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectBase = getenvDefault("NATS_SUBJECT_BASE", "tracker")
	cfg.LogNATSSubjects = boolEnv("LOG_NATS_SUBJECTS")

	// Metrics listen address (e.g., ":9103"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.GeolocateURL = getenvDefault("GEOLOCATE_URL", "http://ip-api.com/json/")
	cfg.WeatherURL = getenvDefault("WEATHER_URL", "https://api.open-meteo.com/v1/forecast")

	var err error
	if cfg.LockedZoom, err = floatEnv("LOCKED_ZOOM", 8); err != nil {
		return nil, err
	}
	if cfg.MinZoom, err = floatEnv("MIN_ZOOM", 2); err != nil {
		return nil, err
	}
	if cfg.MaxZoom, err = floatEnv("MAX_ZOOM", 16); err != nil {
		return nil, err
	}
	if cfg.MinZoom > cfg.MaxZoom {
		return nil, errors.New("MIN_ZOOM exceeds MAX_ZOOM")
	}

	return cfg, nil
}

// resolveDatabaseURL prefers DATABASE_URL / PG_DSN, else builds a DSN from PG* vars.
func resolveDatabaseURL() (string, error) {
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn != "" {
		return dsn, nil
	}
	host := getenvDefault("PGHOST", "127.0.0.1")
	port := getenvDefault("PGPORT", "5432")
	user := getenvDefault("PGUSER", "postgres")
	pass := os.Getenv("PGPASSWORD")
	db := os.Getenv("PGDATABASE")
	if db == "" {
		return "", errors.New("PGDATABASE or DATABASE_URL must be set when ROUTE_SOURCE=db")
	}
	sslmode := getenvDefault("PGSSLMODE", "disable")
	if pass != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode), nil
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode), nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func boolEnv(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func boolEnvDefault(k string, def bool) bool {
	if os.Getenv(k) == "" {
		return def
	}
	return boolEnv(k)
}

func floatEnv(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return f, nil
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
