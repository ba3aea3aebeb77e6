package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the engine reads from.
type RPCClient interface {
	// GetAccountInfo retrieves raw account data. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBalance returns the lamport balance of an address.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenBalance returns the summed UI amount of all token accounts
	// owned by owner for the given mint.
	GetTokenBalance(ctx context.Context, owner, mint string) (float64, error)

	// GetTokenSupply returns the UI supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (float64, error)

	// GetProgramAccounts lists accounts owned by a program matching filters.
	GetProgramAccounts(ctx context.Context, programID string, opts *ProgramAccountsOpts) ([]KeyedAccount, error)
}
