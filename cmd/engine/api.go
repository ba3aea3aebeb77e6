package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"solana-mm-brain/internal/config"
	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/lifecycle"
	"solana-mm-brain/internal/observability"
	"solana-mm-brain/internal/storage"
)

const (
	defaultLogLimit = 100
	maxBodyBytes    = 1 << 20
)

// api is the HTTP control surface over the registry.
type api struct {
	registry *lifecycle.Registry
	results  storage.TradeResultStore
	feed     http.Handler
	logger   *zap.Logger
	started  time.Time
}

func newAPI(registry *lifecycle.Registry, results storage.TradeResultStore, feed http.Handler, logger *zap.Logger) *api {
	return &api{
		registry: registry,
		results:  results,
		feed:     feed,
		logger:   logger.Named("api"),
		started:  time.Now(),
	}
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())
	if a.feed != nil {
		mux.Handle("GET /ws/logs", a.feed)
	}

	mux.HandleFunc("POST /engines", a.handleStart)
	mux.HandleFunc("GET /engines", a.handleList)
	mux.HandleFunc("GET /engines/{user}/{mint}", a.handleStatus)
	mux.HandleFunc("DELETE /engines/{user}/{mint}", a.handleStop)
	mux.HandleFunc("PATCH /engines/{user}/{mint}/config", a.handleUpdateConfig)
	mux.HandleFunc("GET /engines/{user}/{mint}/logs", a.handleLogs)
	mux.HandleFunc("GET /engines/{user}/{mint}/trades", a.handleTrades)
	return mux
}

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Engines int    `json:"engines"`
	Running int    `json:"running"`
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	states := a.registry.List()
	running := 0
	for _, st := range states {
		if st.Status.Active() {
			running++
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(a.started).Round(time.Second).String(),
		Engines: len(states),
		Running: running,
	})
}

// startBody is the POST /engines payload. Wallet ciphertexts are accepted
// here but never echoed back.
type startBody struct {
	UserID  string            `json:"userId"`
	Mint    string            `json:"mint"`
	Config  *config.Overrides `json:"config,omitempty"`
	Wallets []walletBody      `json:"wallets"`
}

type walletBody struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Ciphertext string `json:"ciphertext"`
	Active     *bool  `json:"active,omitempty"` // defaults to true
}

func (b startBody) request() lifecycle.StartRequest {
	req := lifecycle.StartRequest{
		UserID:   b.UserID,
		Mint:     b.Mint,
		Override: b.Config,
		Wallets:  make([]domain.WalletInfo, 0, len(b.Wallets)),
	}
	for _, w := range b.Wallets {
		active := true
		if w.Active != nil {
			active = *w.Active
		}
		req.Wallets = append(req.Wallets, domain.WalletInfo{
			ID:         w.ID,
			Address:    w.Address,
			Active:     active,
			Ciphertext: w.Ciphertext,
		})
	}
	return req
}

func (a *api) handleStart(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if !a.decode(w, r, &body) {
		return
	}
	h, err := a.registry.Start(r.Context(), body.request())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.State())
}

func (a *api) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.List())
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.registry.Status(r.PathValue("user"), r.PathValue("mint"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *api) handleStop(w http.ResponseWriter, r *http.Request) {
	st, err := a.registry.Stop(r.Context(), r.PathValue("user"), r.PathValue("mint"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *api) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch config.Overrides
	if !a.decode(w, r, &patch) {
		return
	}
	cfg, err := a.registry.UpdateConfig(r.Context(), r.PathValue("user"), r.PathValue("mint"), &patch)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *api) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	logs, err := a.registry.Logs(r.PathValue("user"), r.PathValue("mint"), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleTrades reads persisted results, so it also answers for engines
// from earlier runs of the process.
func (a *api) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	results, err := a.results.GetByUserMint(r.Context(), r.PathValue("user"), r.PathValue("mint"), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if results == nil {
		results = []*domain.TradeResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLogLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps registry and domain errors onto status codes.
func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrAlreadyRunning):
		status = http.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidRequest), errors.Is(err, domain.ErrConfigInvalid), errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrWalletDisabled):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Error(err))
	}

	resp := errorResponse{Error: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) || errors.Is(err, domain.ErrConfigInvalid) || errors.Is(err, domain.ErrWalletDisabled) {
		resp.Kind = string(domain.KindOf(err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
