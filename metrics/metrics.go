// Package metrics exposes Prometheus collectors for IRC connections and
// sessions, and serves them on a /metrics endpoint using Echo.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Traffic directions
const (
	In  = "in"
	Out = "out"
)

var (
	// Registry is the Prometheus registry used by this package
	Registry = prometheus.NewRegistry()

	// LinesTotal counts protocol lines by direction
	LinesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "irc_lines_total",
			Help: "Total number of IRC protocol lines by direction",
		},
		[]string{"direction"},
	)

	// BytesTotal counts socket bytes by direction
	BytesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "irc_bytes_total",
			Help: "Total number of socket bytes by direction",
		},
		[]string{"direction"},
	)

	// ConnectAttempts counts TCP connection attempts
	ConnectAttempts = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "irc_connect_attempts_total",
			Help: "Total number of IRC connection attempts",
		},
	)

	// Disconnects counts connection losses by whether the user asked for them
	Disconnects = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "irc_disconnects_total",
			Help: "Total number of IRC disconnects by cause",
		},
		[]string{"cause"},
	)

	// ReconnectDelay records the scheduled reconnect delays
	ReconnectDelay = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "irc_reconnect_delay_seconds",
			Help:    "Delay before scheduled reconnect attempts in seconds",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 300},
		},
	)

	// SessionStatus is 0 when disconnected, 1 while connecting and 2 when registered
	SessionStatus = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "irc_session_status",
			Help: "Current IRC session status",
		},
	)
)

// Config holds configuration for the metrics endpoint
type Config struct {
	// Listen is the bind address, e.g. "127.0.0.1:7070"
	Listen string

	// MetricsPath is the endpoint for Prometheus metrics
	MetricsPath string
}

// DefaultConfig provides default configuration
func DefaultConfig() Config {
	return Config{
		Listen:      "127.0.0.1:7070",
		MetricsPath: "/metrics",
	}
}

// Handler returns the HTTP handler exposing Registry
func Handler() http.Handler {
	return promhttp.HandlerFor(
		Registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// New returns an Echo instance that serves the metrics endpoint
func New(config Config) *echo.Echo {
	if config.MetricsPath == "" {
		config.MetricsPath = DefaultConfig().MetricsPath
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(config.MetricsPath, echo.WrapHandler(Handler()))
	return e
}

// Serve runs the metrics endpoint until ctx is done
func Serve(ctx context.Context, config Config) error {
	e := New(config)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(config.Listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
