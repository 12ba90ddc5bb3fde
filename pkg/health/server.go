package health

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ai3-tools/xdm-bridge/pkg/chain"
	"github.com/ai3-tools/xdm-bridge/pkg/circuitbreaker"
	"github.com/ai3-tools/xdm-bridge/pkg/tracker"
)

// Server represents a health check HTTP server
type Server struct {
	port          string
	domain        *chain.DomainClient
	breakers      []*circuitbreaker.CircuitBreaker
	tracker       *tracker.Tracker
	metricsAPIKey string
}

// NewServer creates a new health check server
func NewServer(port string, domain *chain.DomainClient, breakers []*circuitbreaker.CircuitBreaker, trk *tracker.Tracker) *Server {
	return &Server{
		port:          port,
		domain:        domain,
		breakers:      breakers,
		tracker:       trk,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the health check server
func (s *Server) Start() {
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness check
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.domain == nil || !s.domain.Connected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Domain client not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	// Bridge status endpoint
	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]interface{})

		circuits := make(map[string]interface{})
		for _, cb := range s.breakers {
			state := "closed"
			if cb.IsOpen() {
				state = "open"
			}
			failures, _, _ := cb.State()
			circuits[cb.Name()] = map[string]interface{}{
				"state":    state,
				"failures": failures,
			}
		}
		status["circuits"] = circuits

		domainStatus := map[string]interface{}{
			"connected": s.domain != nil && s.domain.Connected(),
		}
		if s.domain != nil && s.domain.Connected() {
			if blockNumber, err := s.domain.LatestBlockNumber(r.Context()); err == nil {
				domainStatus["latest_block"] = blockNumber
			}
		}
		status["domain"] = domainStatus

		if s.tracker != nil {
			status["active_transfers"] = s.tracker.ActiveCount()
			status["transferring"] = s.tracker.Transferring()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding status JSON: %v", err)
		}
	})

	// Circuit breaker admin control endpoint
	http.HandleFunc("/circuit/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Missing name parameter"))
			return
		}

		for _, cb := range s.breakers {
			if cb.Name() == name {
				cb.Reset()
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(fmt.Sprintf("Circuit breaker %s reset", name)))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(fmt.Sprintf("No circuit breaker named %s", name)))
	})

	// Expose Prometheus metrics with API key authentication
	http.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	log.Printf("Starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, nil); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
