package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/faradayfan/mcserver-panel/internal/host"
)

type Server struct {
	rt     *host.Runtime
	bridge http.Handler

	addr string
	log  *logrus.Entry
}

// NewServer serves the REST routes for rt and, when bridge is not nil, the
// websocket bridge on /bridge.
func NewServer(rt *host.Runtime, bridge http.Handler, addr string) *Server {
	if addr == "" {
		addr = "127.0.0.1:8085"
	}
	return &Server{
		rt:     rt,
		bridge: bridge,
		addr:   addr,
		log:    logrus.WithField("component", "api"),
	}
}

func (s *Server) Addr() string { return s.addr }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	if s.bridge != nil {
		r.Handle("/bridge", s.bridge).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/instances", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/instances/{name}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/instances/{name}/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/instances/{name}/stop", s.handleStop).Methods(http.MethodPost)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
