package market

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"solana-mm-brain/internal/solana"
)

// SPL token account layout: mint(32) owner(32) amount(u64) ...
const (
	tokenAccountSize  = 165
	tokenAmountOffset = 64
	defaultHoldersTTL = 5 * time.Minute
)

// HolderSource counts non-empty token accounts of a mint. The scan is
// expensive, so counts are cached for ttl.
type HolderSource struct {
	rpc solana.RPCClient
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[string]holderCount
}

type holderCount struct {
	count int
	at    time.Time
}

// NewHolderSource creates a holder-count source. ttl <= 0 uses five minutes.
func NewHolderSource(rpc solana.RPCClient, ttl time.Duration) *HolderSource {
	if ttl <= 0 {
		ttl = defaultHoldersTTL
	}
	return &HolderSource{
		rpc:   rpc,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]holderCount),
	}
}

// Name returns the source name.
func (s *HolderSource) Name() string { return "holders" }

// Fetch returns the cached or freshly scanned holder count.
func (s *HolderSource) Fetch(ctx context.Context, mint string) (*Quote, error) {
	now := s.now()
	s.mu.Lock()
	cached, ok := s.cache[mint]
	s.mu.Unlock()
	if ok && now.Sub(cached.at) < s.ttl {
		n := cached.count
		return &Quote{Source: s.Name(), Holders: &n}, nil
	}

	accounts, err := s.rpc.GetProgramAccounts(ctx, solana.TokenProgramID, &solana.ProgramAccountsOpts{
		DataSize:    tokenAccountSize,
		Memcmp:      []solana.MemcmpFilter{{Offset: 0, Bytes: mint}},
		SliceOffset: tokenAmountOffset,
		SliceLength: 8,
	})
	if err != nil {
		return nil, fmt.Errorf("scan token accounts: %w", err)
	}

	n := 0
	for _, acc := range accounts {
		raw, err := base64.StdEncoding.DecodeString(acc.Account.Data)
		if err != nil || len(raw) < 8 {
			continue
		}
		if binary.LittleEndian.Uint64(raw[:8]) > 0 {
			n++
		}
	}

	s.mu.Lock()
	s.cache[mint] = holderCount{count: n, at: now}
	s.mu.Unlock()
	return &Quote{Source: s.Name(), Holders: &n}, nil
}
