package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"fenrir/metrics"
	"fenrir/service"
)

// Server is the session transport: REST for queries, one websocket per
// client session for commands. The session ordering guarantee the core
// relies on falls out of the one-reader-loop-per-connection shape.
type Server struct {
	log          *zap.Logger
	venue        *service.Venue
	router       *mux.Router
	maxSymbolLen int
}

func NewServer(log *zap.Logger, venue *service.Venue, maxSymbolLen int) *Server {
	s := &Server{
		log:          log,
		venue:        venue,
		router:       mux.NewRouter(),
		maxSymbolLen: maxSymbolLen,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/books/{symbol}", s.handleGetBook).Methods("GET")

	s.router.HandleFunc("/ws", s.handleSession)
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if symbol == "" || len(symbol) > s.maxSymbolLen {
		respondError(w, http.StatusBadRequest, "bad symbol")
		return
	}

	bids, asks := s.venue.Levels(symbol)
	respondJSON(w, BookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UnixNano(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
