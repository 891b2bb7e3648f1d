package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/openwager/wagerd/pkg/bet"
	"github.com/openwager/wagerd/pkg/ledger"
	"github.com/openwager/wagerd/pkg/protocol"
)

// Server handles REST API and WebSocket connections
type Server struct {
	processor *bet.Processor
	store     *ledger.Store
	router    *mux.Router
	hub       *Hub
	log       *zap.SugaredLogger
}

// NewServer creates a new API server and wires transition broadcasts into
// the WebSocket hub.
func NewServer(processor *bet.Processor, store *ledger.Store, log *zap.SugaredLogger) *Server {
	s := &Server{
		processor: processor,
		store:     store,
		router:    mux.NewRouter(),
		hub:       NewHub(),
		log:       log,
	}

	processor.OnTransition = s.BroadcastTransition
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Read endpoints
	api.HandleFunc("/markets/{id}", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/bets/{id}", s.handleGetBet).Methods("GET")
	api.HandleFunc("/accepted/{id}", s.handleGetAcceptedBet).Methods("GET")
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods("GET")

	// Transition submission
	api.HandleFunc("/transactions", s.handleSubmitTransaction).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)

	s.log.Infow("api server starting", "addr", addr)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id", "")
		return
	}

	acc, err := s.store.Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read failed", err.Error())
		return
	}
	if acc == nil {
		respondError(w, http.StatusNotFound, "market not found", "")
		return
	}

	cfg, err := bet.DecodeMarketConfig(acc.Data)
	if err != nil || !cfg.Initialized {
		respondError(w, http.StatusNotFound, "market not found", "")
		return
	}

	response := MarketInfo{
		ID:            id.Hex(),
		Owner:         cfg.Owner.Hex(),
		FeeAccount:    cfg.FeeAccount.Hex(),
		OracleProgram: cfg.OracleProgram.Hex(),
		NativePayment: cfg.NativePayment,
	}
	if cfg.HasMint {
		response.PaymentMint = cfg.PaymentMint.Hex()
	}

	respondJSON(w, response)
}

func (s *Server) handleGetBet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id", "")
		return
	}

	acc, err := s.store.Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read failed", err.Error())
		return
	}
	if acc == nil {
		respondError(w, http.StatusNotFound, "bet not found", "")
		return
	}

	rec, err := bet.DecodeBetRecord(acc.Data)
	if err != nil || !rec.Initialized {
		respondError(w, http.StatusNotFound, "bet not found", "")
		return
	}

	response := BetInfo{
		ID:               id.Hex(),
		Market:           rec.Market.Hex(),
		Creator:          rec.Creator.Hex(),
		CreatorPayment:   rec.CreatorPayment.Hex(),
		Escrow:           rec.Escrow.Hex(),
		Odds:             rec.Odds,
		BetSize:          rec.BetSize,
		OracleProduct:    rec.OracleProduct.Hex(),
		OraclePrice:      rec.OraclePrice.Hex(),
		ExpirationTime:   rec.ExpirationTime,
		Direction:        rec.Direction.String(),
		BetPrice:         rec.BetPrice,
		CancelAbovePrice: rec.Cancel.AbovePrice,
		CancelBelowPrice: rec.Cancel.BelowPrice,
		CancelTime:       rec.Cancel.Time,
		StartPrice:       rec.StartPrice,
		TotalAccepted:    rec.TotalAccepted,
		Cancelled:        rec.Cancelled,
	}
	if rec.HasVariableOdds {
		v := rec.VariableOdds
		response.VariableOdds = &v
	}

	respondJSON(w, response)
}

func (s *Server) handleGetAcceptedBet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id", "")
		return
	}

	acc, err := s.store.Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read failed", err.Error())
		return
	}
	if acc == nil {
		respondError(w, http.StatusNotFound, "accepted bet not found", "")
		return
	}

	rec, err := bet.DecodeAcceptedBetRecord(acc.Data)
	if err != nil || !rec.Initialized {
		respondError(w, http.StatusNotFound, "accepted bet not found", "")
		return
	}

	respondJSON(w, AcceptedBetInfo{
		ID:              id.Hex(),
		Bet:             rec.Bet.Hex(),
		Escrow:          rec.Escrow.Hex(),
		Acceptor:        rec.Acceptor.Hex(),
		AcceptorPayment: rec.AcceptorPayment.Hex(),
		BetSize:         rec.BetSize,
		Odds:            rec.Odds,
		Finalized:       rec.Finalized,
	})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id", "")
		return
	}

	acc, err := s.store.Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read failed", err.Error())
		return
	}
	if acc == nil {
		respondError(w, http.StatusNotFound, "account not found", "")
		return
	}

	respondJSON(w, AccountInfo{
		ID:      acc.ID.Hex(),
		Owner:   acc.Owner.Hex(),
		Balance: acc.Balance,
		DataLen: len(acc.Data),
	})
}

func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	in, err := bet.DecodeInstruction(bodyBytes)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction", err.Error())
		return
	}

	if err := s.processor.Apply(in); err != nil {
		var pe *protocol.Error
		if errors.As(err, &pe) {
			code := uint32(pe.Code)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error:   "transaction rejected",
				Message: pe.Msg,
				Code:    &code,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "transaction failed", err.Error())
		return
	}

	respondJSON(w, SubmitTransactionResponse{
		Status: "applied",
		Type:   string(in.Type),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods
// ==============================

// BroadcastTransition pushes an applied transition to WebSocket subscribers:
// the firehose channel plus the per-bet channel.
func (s *Server) BroadcastTransition(ev bet.Event) {
	update := TransitionUpdate{
		Type:      "transition",
		TxType:    string(ev.Type),
		Bet:       ev.Bet.Hex(),
		Timestamp: ev.Timestamp,
	}
	if ev.Accepted != (common.Hash{}) {
		update.Accepted = ev.Accepted.Hex()
	}

	s.hub.BroadcastToChannel("transitions", update)
	if ev.Bet != (common.Hash{}) {
		s.hub.BroadcastToChannel("bets:"+ev.Bet.Hex(), update)
	}
}

// ==============================
// Helper Functions
// ==============================

func parseID(s string) (common.Hash, bool) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
