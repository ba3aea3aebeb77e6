package stub

import (
	"context"
	"sync"

	"solana-mm-brain/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Err, when set, is returned by every call.
type RPCClient struct {
	mu              sync.Mutex
	Accounts        map[string]*solana.AccountInfo
	Balances        map[string]uint64
	TokenBalances   map[string]float64 // key: owner|mint
	Supplies        map[string]float64
	ProgramAccounts map[string][]solana.KeyedAccount
	Err             error
	Calls           int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		Balances:        make(map[string]uint64),
		TokenBalances:   make(map[string]float64),
		Supplies:        make(map[string]float64),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
	}
}

func (c *RPCClient) enter() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	return c.Err
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

// GetBalance returns the stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	if err := c.enter(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[pubkey], nil
}

// GetTokenBalance returns the stored token balance.
func (c *RPCClient) GetTokenBalance(_ context.Context, owner, mint string) (float64, error) {
	if err := c.enter(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenBalances[owner+"|"+mint], nil
}

// GetTokenSupply returns the stored supply.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (float64, error) {
	if err := c.enter(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Supplies[mint], nil
}

// GetProgramAccounts returns the stored accounts; filters are not applied.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ *solana.ProgramAccountsOpts) ([]solana.KeyedAccount, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]solana.KeyedAccount(nil), c.ProgramAccounts[programID]...), nil
}

// SetTokenBalance stores a token balance for owner and mint.
func (c *RPCClient) SetTokenBalance(owner, mint string, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenBalances[owner+"|"+mint] = amount
}

var _ solana.RPCClient = (*RPCClient)(nil)
