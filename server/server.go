// Package server exposes the desk over HTTP: market data proxy endpoints,
// order entry, desk state and a websocket push of every change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/indicators"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/metrics"
	"github.com/rustyeddy/papertrade/quest"
	"github.com/rustyeddy/papertrade/sim"
	"github.com/rustyeddy/papertrade/state"
	"github.com/rustyeddy/papertrade/trading"
	"go.uber.org/zap"
)

// Kicker is told when the watched symbol or session changes so the next
// poll happens now instead of on the next interval.
type Kicker interface {
	Kick()
}

type Options struct {
	Engine *sim.Engine
	Feed   feed.Source
	Kicker Kicker

	// Fresh builds the state used by POST /api/reset.
	Fresh func() state.State

	AllowedOrigins []string
	Metrics        *metrics.Metrics
	MetricsPath    string
	Log            *zap.Logger
}

// Server handles REST API and WebSocket connections
type Server struct {
	engine   *sim.Engine
	feed     feed.Source
	kicker   Kicker
	fresh    func() state.State
	router   *mux.Router
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
	opts     Options
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Fresh == nil {
		opts.Fresh = func() state.State { return state.New(state.Options{}) }
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		engine: opts.Engine,
		feed:   opts.Feed,
		kicker: opts.Kicker,
		fresh:  opts.Fresh,
		router: mux.NewRouter(),
		hub:    NewHub(opts.Log, opts.Metrics),
		log:    opts.Log.Named("api"),
		opts:   opts,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}

	s.engine.Subscribe(func(st state.State, ev sim.Event) {
		s.hub.Broadcast(newUpdate(st, &ev))
	})
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// market data proxy
	api.HandleFunc("/price/{symbol}", s.handlePrice).Methods(http.MethodGet)
	api.HandleFunc("/ohlc/{symbol}", s.handleOHLC).Methods(http.MethodGet)
	api.HandleFunc("/indicators/{symbol}", s.handleIndicators).Methods(http.MethodGet)
	api.HandleFunc("/symbols", s.handleSymbols).Methods(http.MethodGet)

	// desk
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/valuation", s.handleValuation).Methods(http.MethodGet)
	api.HandleFunc("/quests", s.handleQuests).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handlePlaceOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/cancel", s.handleCancelOrder).Methods(http.MethodPost)
	api.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	api.HandleFunc("/symbol", s.handleSetSymbol).Methods(http.MethodPut)
	api.HandleFunc("/session", s.handleSetSession).Methods(http.MethodPut)
	api.HandleFunc("/mode", s.handleSetMode).Methods(http.MethodPut)
	api.HandleFunc("/one-share", s.handleToggleOneShare).Methods(http.MethodPost)
	api.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, s.opts.Metrics.Handler()).Methods(http.MethodGet)
	}
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Hub exposes the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is done, then shuts down gracefully. ready,
// if non-nil, is called once the listener is accepting connections.
func (s *Server) Run(ctx context.Context, addr string, ready func()) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	if ready != nil {
		ready()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ==============================
// Market data
// ==============================

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := market.NormalizeSymbol(mux.Vars(r)["symbol"])
	session := market.ParseSession(r.URL.Query().Get("session"))

	q, err := s.feed.GetQuote(r.Context(), symbol, session)
	if err != nil {
		s.log.Warn("price proxy failed", zap.String("symbol", symbol), zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleOHLC(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := feed.CandlesRequest{
		Symbol:   mux.Vars(r)["symbol"],
		Interval: q.Get("interval"),
		Range:    q.Get("range"),
		Session:  market.ParseSession(q.Get("session")),
	}

	series, err := s.feed.GetCandles(r.Context(), req)
	if err != nil {
		s.log.Warn("ohlc proxy failed", zap.String("symbol", req.Symbol), zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// handleIndicators evaluates ?studies=sma:20,ema:9 over the same candles
// /api/ohlc would return.
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	names := strings.Split(q.Get("studies"), ",")
	if q.Get("studies") == "" {
		names = defaultStudies
	}
	studies := make([]indicators.Indicator, 0, len(names))
	for _, study := range names {
		ind, err := indicators.Parse(study)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		studies = append(studies, ind)
	}

	series, err := s.feed.GetCandles(r.Context(), feed.CandlesRequest{
		Symbol:   mux.Vars(r)["symbol"],
		Interval: q.Get("interval"),
		Range:    q.Get("range"),
		Session:  market.ParseSession(q.Get("session")),
	})
	if err != nil {
		s.log.Warn("indicator candles failed", zap.String("symbol", mux.Vars(r)["symbol"]), zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := IndicatorsResponse{Symbol: series.Symbol, Interval: series.Interval, Range: series.Range}
	for _, ind := range studies {
		resp.Lines = append(resp.Lines, indicators.Evaluate(ind, series.Candles))
	}
	respondJSON(w, http.StatusOK, resp)
}

var defaultStudies = []string{"sma:20", "ema:9"}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, market.Search(r.URL.Query().Get("q")))
}

// ==============================
// Desk
// ==============================

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.State().Valuation())
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	respondJSON(w, http.StatusOK, QuestsResponse{Quests: quest.Board(st), Level: quest.Score(st)})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.engine.State().Orders
	if status := trading.Status(r.URL.Query().Get("status")); status != "" {
		filtered := make([]trading.Order, 0, len(orders))
		for _, o := range orders {
			if o.Status() == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.State().Trades)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req trading.OrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := s.engine.PlaceOrder(r.Context(), req)
	if !s.engineOK(w, err) {
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.Cancel(r.Context(), mux.Vars(r)["id"])
	if !s.engineOK(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (s *Server) handleSetSymbol(w http.ResponseWriter, r *http.Request) {
	var req SymbolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	symbol := strings.TrimSpace(req.Symbol)
	if !looksLikeCode(symbol) {
		in, ok := market.Lookup(symbol)
		if !ok {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no instrument matches %q", req.Symbol))
			return
		}
		symbol = in.Code
	}
	st, err := s.engine.SetSymbol(r.Context(), symbol)
	if !s.engineOK(w, err) {
		return
	}
	s.kick()
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.engine.SetSession(r.Context(), market.ParseSession(req.Session))
	if !s.engineOK(w, err) {
		return
	}
	s.kick()
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.engine.SetUIMode(r.Context(), state.UIMode(req.UIMode))
	if !s.engineOK(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleToggleOneShare(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.ToggleOneShare(r.Context())
	if !s.engineOK(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.engineOK(w, s.engine.Reset(r.Context(), s.fresh())) {
		return
	}
	s.kick()
	respondJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, &s.upgrader, newUpdate(s.engine.State(), nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sym, session := s.engine.Watch()
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Symbol:    sym,
		Session:   session,
		InSession: market.InSession(time.Now()),
		WSClients: s.hub.Clients(),
	})
}

func (s *Server) kick() {
	if s.kicker != nil {
		s.kicker.Kick()
	}
}

// looksLikeCode reports whether s is already a ticker such as "7203",
// "7203.T" or "^N225" rather than a name to look up.
func looksLikeCode(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == '^' || (s[0] >= '0' && s[0] <= '9') || strings.Contains(s, ".")
}

// engineOK maps engine errors to HTTP statuses. A persist failure is logged
// but the request still succeeds: the desk already moved on.
func (s *Server) engineOK(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, sim.ErrPersist):
		s.log.Warn("state not persisted", zap.Error(err))
		return true
	case errors.Is(err, sim.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sim.ErrNotWorking):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, trading.ErrInvalidQuantity),
		errors.Is(err, trading.ErrInvalidLimitPrice),
		errors.Is(err, trading.ErrInvalidSide),
		errors.Is(err, trading.ErrInvalidKind),
		errors.Is(err, trading.ErrInvalidSymbol),
		errors.Is(err, sim.ErrInvalidMode),
		errors.Is(err, state.ErrInvalidState):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}
