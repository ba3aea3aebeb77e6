package domain

// WalletInfo describes one trading wallet. Ciphertext is the encrypted
// signing material; it is only decrypted for the duration of a call.
type WalletInfo struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Active     bool   `json:"active"`
	Ciphertext string `json:"-"`
}

// Balance is a wallet's spendable state at decision time.
type Balance struct {
	SOL         float64 `json:"sol"`
	Tokens      float64 `json:"tokens"`
	DeployedSOL float64 `json:"deployedSol"` // net SOL put in this run
}
