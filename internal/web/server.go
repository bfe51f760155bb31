// Package web exposes the vault state over HTTP: JSON snapshots, an SSE
// stream of confirmed deposits and prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vadiminshakov/stellarvault/internal/domain"
	"github.com/vadiminshakov/stellarvault/internal/registry"
	"github.com/vadiminshakov/stellarvault/internal/storage/deposits"
)

const depositPollInterval = 2 * time.Second

type vaultReader interface {
	Snapshots() []domain.VaultSnapshot
	Snapshot(risk domain.RiskLevel) (domain.VaultSnapshot, error)
	Position(user string, risk domain.RiskLevel) (domain.UserPosition, error)
	InsurancePool() uint64
}

type depositEventReader interface {
	EventsAfter(index uint64) ([]deposits.EventRecord, error)
	CurrentIndex() uint64
}

// Server serves the read-only surface of the vault registry.
type Server struct {
	Addr     string
	Registry vaultReader
	Events   depositEventReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, reg vaultReader, events depositEventReader) *Server {
	return &Server{Addr: addr, Registry: reg, Events: events}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/vaults", s.handleVaults)
	mux.HandleFunc("/vaults/", s.handleVault)
	mux.HandleFunc("/positions", s.handlePosition)
	mux.HandleFunc("/deposits/stream", s.handleDepositStream)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Vaults        []domain.VaultSnapshot `json:"vaults"`
		InsurancePool uint64                 `json:"insurance_pool"`
	}{
		Vaults:        s.Registry.Snapshots(),
		InsurancePool: s.Registry.InsurancePool(),
	})
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	tier := strings.TrimPrefix(r.URL.Path, "/vaults/")
	risk, err := domain.ParseRiskLevel(tier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := s.Registry.Snapshot(risk)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snapshot)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "user query parameter is required", http.StatusBadRequest)
		return
	}
	risk, err := domain.ParseRiskLevel(r.URL.Query().Get("risk"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	position, err := s.Registry.Position(user, risk)
	if err != nil {
		if errors.Is(err, registry.ErrPositionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, position)
}

func (s *Server) handleDepositStream(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "deposit event store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastIndex := s.Events.CurrentIndex()
	ticker := time.NewTicker(depositPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			records, err := s.Events.EventsAfter(lastIndex)
			if err != nil {
				continue
			}
			for _, record := range records {
				payload, err := json.Marshal(record.Event)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				lastIndex = record.Index
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
