// Package gateway is the thin HTTP adapter over the bank facade. It only
// translates JSON to core calls and back; all behavior lives in the core.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"racebank/pkg/bank"
	"racebank/pkg/bankerr"
	"racebank/pkg/guard"
	"racebank/pkg/logging"
	"racebank/pkg/simulator"
	"racebank/pkg/teller"
)

// Server exposes the bank over HTTP.
type Server struct {
	bank   *bank.Bank
	logger *slog.Logger
}

// NewServer wraps a bank facade.
func NewServer(b *bank.Bank) *Server {
	return &Server{
		bank:   b,
		logger: logging.WithComponent("gateway"),
	}
}

// Routes registers all handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/status", requireMethod(http.MethodGet, s.handleStatus))
	mux.HandleFunc("/apply", requireMethod(http.MethodPost, s.handleApply))
	mux.HandleFunc("/simulate", requireMethod(http.MethodPost, s.handleSimulate))
	mux.HandleFunc("/reset", requireMethod(http.MethodPost, s.handleReset))

	return mux
}

// requireMethod reproduces Go 1.22 "METHOD /path" ServeMux semantics on the
// Go 1.21 toolchain: the wrong method gets 405 with an Allow header, and a
// GET registration also serves HEAD.
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// request/response shapes

type applyRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

type applyResponse struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	ActorID    string          `json:"actor_id"`
}

type simulateRequest struct {
	Mode    string          `json:"mode"`
	Tellers int             `json:"tellers"`
	Amount  decimal.Decimal `json:"amount"`
	Kind    string          `json:"kind"`
}

type outcomeView struct {
	ActorID   string          `json:"actor_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Read      decimal.Decimal `json:"read_balance"`
	Written   decimal.Decimal `json:"written_balance"`
	Committed bool            `json:"committed"`
	ReadSeq   uint64          `json:"read_seq"`
	WriteSeq  uint64          `json:"write_seq"`
	Error     string          `json:"error,omitempty"`
}

type simulateResponse struct {
	RunID           string          `json:"run_id"`
	Mode            string          `json:"mode"`
	RequestedCount  int             `json:"requested_count"`
	ExpectedBalance decimal.Decimal `json:"expected_final_balance"`
	ObservedBalance decimal.Decimal `json:"observed_final_balance"`
	CommittedCount  int             `json:"committed_count"`
	RejectedCount   int             `json:"rejected_count"`
	LostUpdateCount int64           `json:"lost_update_count"`
	Consistent      bool            `json:"consistent"`
	DurationMillis  int64           `json:"duration_ms"`
	Log             []outcomeView   `json:"per_transaction_log"`
}

type statusResponse struct {
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
	Mode             string          `json:"mode"`
}

type resetRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// handlers

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.bank.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Balance:          st.Balance,
		TransactionCount: st.TransactionCount,
		Mode:             st.Mode.String(),
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var in applyRequest
	if err := bindJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	kind, err := teller.ParseKind(in.Kind)
	if err != nil {
		writeBankError(w, err)
		return
	}

	out, err := s.bank.Apply(r.Context(), kind, in.Amount)
	if err != nil {
		writeBankError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		NewBalance: out.WrittenBalance,
		ActorID:    out.Request.ActorID,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var in simulateRequest
	if err := bindJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	mode, err := guard.ParseMode(in.Mode)
	if err != nil {
		writeBankError(w, err)
		return
	}
	kind := teller.Deposit
	if in.Kind != "" {
		if kind, err = teller.ParseKind(in.Kind); err != nil {
			writeBankError(w, err)
			return
		}
	}

	run, err := s.bank.Simulate(r.Context(), simulator.RunConfig{
		Mode:    mode,
		Tellers: in.Tellers,
		Amount:  in.Amount,
		Kind:    kind,
	})
	if err != nil {
		writeBankError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderRun(run))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := bindJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	if err := s.bank.Reset(in.InitialBalance); err != nil {
		writeBankError(w, err)
		return
	}

	st := s.bank.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Balance:          st.Balance,
		TransactionCount: st.TransactionCount,
		Mode:             st.Mode.String(),
	})
}

func renderRun(run *simulator.Run) simulateResponse {
	log := make([]outcomeView, len(run.Outcomes))
	for i, out := range run.Outcomes {
		view := outcomeView{
			ActorID:   out.Request.ActorID,
			Kind:      out.Request.Kind.String(),
			Amount:    out.Request.Amount,
			Read:      out.ReadBalance,
			Written:   out.WrittenBalance,
			Committed: out.Committed,
			ReadSeq:   out.ReadSeq,
			WriteSeq:  out.WriteSeq,
		}
		if out.Err != nil {
			view.Error = out.Err.Error()
		}
		log[i] = view
	}

	return simulateResponse{
		RunID:           run.ID,
		Mode:            run.Mode.String(),
		RequestedCount:  run.RequestedCount,
		ExpectedBalance: run.ExpectedFinalBalance,
		ObservedBalance: run.ObservedFinalBalance,
		CommittedCount:  run.CommittedCount,
		RejectedCount:   run.RejectedCount,
		LostUpdateCount: run.LostUpdateCount,
		Consistent:      run.Consistent(),
		DurationMillis:  run.Duration.Milliseconds(),
		Log:             log,
	}
}

// helper functions

func bindJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBankError maps structured core errors onto HTTP status codes.
func writeBankError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch bankerr.CodeOf(err) {
	case bankerr.CodeInvalidAmount, bankerr.CodeInvalidMode, bankerr.CodeInvalidKind:
		status = http.StatusBadRequest
	case bankerr.CodeInsufficientFunds:
		status = http.StatusUnprocessableEntity
	case bankerr.CodeRunInFlight:
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}
