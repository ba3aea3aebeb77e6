package solana

// Well-known program and mint addresses.
const (
	SystemProgramID = "11111111111111111111111111111111"
	TokenProgramID  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	PumpFunProgram  = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	WrappedSOLMint  = "So11111111111111111111111111111111111111112"
)

// LamportsPerSOL is the lamport denomination of one SOL.
const LamportsPerSOL = 1_000_000_000

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// KeyedAccount is an account returned by getProgramAccounts.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}

// ProgramAccountsOpts narrows getProgramAccounts.
type ProgramAccountsOpts struct {
	DataSize    uint64      // Exact account size filter; 0 disables
	Memcmp      []MemcmpFilter
	SliceOffset uint64      // Data slice returned per account
	SliceLength uint64      // 0 returns full data
}

// MemcmpFilter matches base58 bytes at an offset.
type MemcmpFilter struct {
	Offset uint64
	Bytes  string // base58
}
