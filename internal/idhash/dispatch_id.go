package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeDispatchID computes a deterministic dispatch_id using SHA256.
// Formula: SHA256(run_id|tick|strategy|wallet_id|action)
// Returns hex-encoded hash (64 characters). A strategy emits at most one
// intent per tick, so the tuple is unique within a run.
func ComputeDispatchID(
	runID string,
	tick int64,
	strategy string,
	walletID string,
	action string,
) string {
	data := fmt.Sprintf("%s|%d|%s|%s|%s",
		runID,
		tick,
		strategy,
		walletID,
		action,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Short returns the first 16 characters of id, for signatures and logs.
func Short(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:16]
}
