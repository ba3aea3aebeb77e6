package domain

import "time"

// EngineStatus is the lifecycle state of one engine.
type EngineStatus string

// Engine statuses. Errored is a running substate, not terminal.
const (
	StatusStopped  EngineStatus = "stopped"
	StatusStarting EngineStatus = "starting"
	StatusRunning  EngineStatus = "running"
	StatusErrored  EngineStatus = "errored"
	StatusStopping EngineStatus = "stopping"
)

// Active reports whether the loop is live.
func (s EngineStatus) Active() bool {
	return s == StatusStarting || s == StatusRunning || s == StatusErrored
}

// LogKind classifies feed entries.
type LogKind string

// Log kinds
const (
	LogTrade     LogKind = "trade"
	LogError     LogKind = "error"
	LogInfo      LogKind = "info"
	LogWarning   LogKind = "warning"
	LogRejection LogKind = "rejection"
)

// LogEntry is one item of the engine's observability feed.
type LogEntry struct {
	Time      time.Time    `json:"time"`
	UserID    string       `json:"userId"`
	Mint      string       `json:"mint"`
	Kind      LogKind      `json:"kind"`
	Message   string       `json:"message"`
	Strategy  StrategyKind `json:"strategy,omitempty"`
	WalletID  string       `json:"walletId,omitempty"`
	Simulated bool         `json:"simulated,omitempty"`
}

// EngineError is a recorded error with its classification.
type EngineError struct {
	Time    time.Time `json:"time"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// EngineState is a point-in-time copy of an engine's state.
type EngineState struct {
	Status          EngineStatus        `json:"status"`
	UserID          string              `json:"userId"`
	Mint            string              `json:"mint"`
	RunID           string              `json:"runId"`
	StartTime       time.Time           `json:"startTime"`
	Phase           MarketPhase         `json:"phase"`
	Ticks           int64               `json:"ticks"`
	DryRun          bool                `json:"dryRun"`
	Positions       map[string]Position `json:"positions"`
	Trades          []TradeResult       `json:"trades"` // most recent first
	Errors          []EngineError       `json:"errors"` // most recent first
	LastTrade       *TradeResult        `json:"lastTrade,omitempty"`
	LastError       *EngineError        `json:"lastError,omitempty"`
	LastSnapshot    *MarketSnapshot     `json:"lastSnapshot,omitempty"`
	ActiveWallets   int                 `json:"activeWallets"`
	DisabledWallets []string            `json:"disabledWallets,omitempty"`
}
