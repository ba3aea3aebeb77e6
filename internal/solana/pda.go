package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("no viable bump seed")

const (
	maxSeedLength = 32
	maxSeeds      = 16
)

// FindProgramAddress derives a Program Derived Address and its bump seed.
// Bumps are tried from 255 down; the first hash that is not a valid
// ed25519 point is the address.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", 0, fmt.Errorf("decode program id: %w", err)
	}
	if len(program) != 32 {
		return "", 0, fmt.Errorf("program id must be 32 bytes, got %d", len(program))
	}
	if len(seeds) >= maxSeeds {
		return "", 0, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return "", 0, fmt.Errorf("seed exceeds %d bytes", maxSeedLength)
		}
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(program)
		h.Write([]byte("ProgramDerivedAddress"))
		sum := h.Sum(nil)

		if !isOnCurve(sum) {
			return base58.Encode(sum), uint8(bump), nil
		}
	}

	return "", 0, ErrNoViableBump
}

// BondingCurveAddress returns the pump.fun bonding-curve PDA for mint.
func BondingCurveAddress(mint string) (string, error) {
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	if len(mintBytes) != 32 {
		return "", fmt.Errorf("mint must be 32 bytes, got %d", len(mintBytes))
	}
	addr, _, err := FindProgramAddress([][]byte{[]byte("bonding-curve"), mintBytes}, PumpFunProgram)
	return addr, err
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
