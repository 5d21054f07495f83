package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// LocalServer exposes Client's read-only queries to a sandboxed subprocess
// over a 127.0.0.1-bound HTTP interface (spec.md §4.4, §6). It never
// accepts writes — every route is GET-only.
type LocalServer struct {
	client *Client
	srv    *http.Server
	ln     net.Listener
	log    *slog.Logger
}

// NewLocalServer binds addr (typically "127.0.0.1:0" to let the OS pick a
// free port) and returns a server that is not yet accepting connections
// until Start is called.
func NewLocalServer(client *Client, addr string) (*LocalServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind local market-data server: %w", err)
	}
	s := &LocalServer{
		client: client,
		ln:     ln,
		log:    slog.With("component", "market-local-server"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/bars", s.handleBars)
	mux.HandleFunc("/daily_metrics", s.handleDailyMetrics)
	mux.HandleFunc("/universe_members", s.handleUniverseMembers)
	s.srv = &http.Server{Handler: mux}
	return s, nil
}

// Addr returns the bound "host:port", suitable for passing to a sandboxed
// process via environment variable (spec.md §4.4).
func (s *LocalServer) Addr() string {
	return s.ln.Addr().String()
}

// Start begins serving in the background. It returns immediately.
func (s *LocalServer) Start() {
	go func() {
		if err := s.srv.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("local market-data server stopped unexpectedly", "error", err)
		}
	}()
}

// Stop shuts the server down, closing any in-flight requests.
func (s *LocalServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *LocalServer) handleBars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "read-only interface: only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	ticker := q.Get("ticker")
	timeframe := Timeframe(q.Get("timeframe"))
	from, err1 := time.Parse(time.RFC3339, q.Get("from"))
	to, err2 := time.Parse(time.RFC3339, q.Get("to"))
	if ticker == "" || timeframe == "" || err1 != nil || err2 != nil {
		http.Error(w, "ticker, timeframe, from, to (RFC3339) are required", http.StatusBadRequest)
		return
	}
	bars, err := s.client.BarsBetween(r.Context(), ticker, timeframe, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, bars)
}

func (s *LocalServer) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "read-only interface: only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	ticker := q.Get("ticker")
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if ticker == "" || err != nil {
		http.Error(w, "ticker and date (YYYY-MM-DD) are required", http.StatusBadRequest)
		return
	}
	m, err := s.client.DailyMetrics(r.Context(), ticker, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, m)
}

func (s *LocalServer) handleUniverseMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "read-only interface: only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	universe := r.URL.Query().Get("universe")
	if universe == "" {
		http.Error(w, "universe is required", http.StatusBadRequest)
		return
	}
	members, err := s.client.UniverseMembers(r.Context(), universe)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, members)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode market-data response", "error", err)
	}
}

// PortOf extracts the numeric port from an "host:port" address, used by
// callers that need to pass only the port to a subprocess environment.
func PortOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
