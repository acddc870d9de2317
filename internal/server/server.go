// Package server exposes the delivery endpoint: it marshals the signed URL
// map for an audio identifier and carries the service's health and metrics
// surfaces. All decision logic lives in hls and signer.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/addismusic/media-service/internal/hls"
	"github.com/addismusic/media-service/internal/metrics"
	"github.com/addismusic/media-service/internal/signer"
)

// Server wires the delivery routes. Build with fields set, then serve
// Handler() with an http.Server.
type Server struct {
	Issuer         *signer.Issuer
	SignTTL        time.Duration // granted to every request
	Origins        []string      // CORS allow-list; ["*"] = any
	RateLimitRPS   float64       // per client IP; 0 disables
	RateLimitBurst int
	Metrics        metrics.Recorder // nil = no-op
}

type signResponse struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/signed_url/", s.handleSignedURL)
	mux.HandleFunc("/signed_url", s.handleSignedURL)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	var h http.Handler = mux
	if s.RateLimitRPS > 0 {
		h = rateLimit(s.RateLimitRPS, s.RateLimitBurst, h)
	}
	h = cors(s.Origins, h)
	return s.logAndCount(h)
}

func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	q := r.URL.Query()
	audioID, err := uuid.Parse(q.Get("audio_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "audio_id must be a UUID"})
		return
	}
	isAdd := false
	if v := q.Get("is_add"); v != "" {
		isAdd, err = strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "is_add must be a boolean"})
			return
		}
	}

	ns := hls.NamespaceFor(isAdd)
	data := s.Issuer.SignForAudio(r.Context(), ns, audioID.String(), s.SignTTL)
	// Always 200 with success=true; an empty data map is the only signal
	// that generation failed. Callers depend on this shape.
	writeJSON(w, http.StatusOK, signResponse{Success: true, Data: data})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: write response: %v", err)
	}
}

// logAndCount records an access log line and the request counter per route.
func (s *Server) logAndCount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.URL.Path
		log.Printf("server: %s %s status=%d dur=%s ip=%s", r.Method, route, sw.status, time.Since(start).Round(time.Millisecond), clientIP(r))
		s.rec().IncRequest(route, strconv.Itoa(sw.status))
	})
}

func (s *Server) rec() metrics.Recorder {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Noop{}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Serve runs an http.Server on addr until ctx is canceled, then drains with
// a short shutdown grace.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
