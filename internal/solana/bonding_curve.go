package solana

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// PumpTokenDecimals is the decimals of every pump.fun mint.
const PumpTokenDecimals = 6

// bondingCurveMinLen covers the discriminator, five u64 fields and the complete flag.
const bondingCurveMinLen = 8 + 5*8 + 1

// ErrShortAccount is returned when account data is too small for its layout.
var ErrShortAccount = errors.New("account data too short")

// BondingCurve is the decoded pump.fun bonding-curve account.
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSOLReserves   uint64
	RealTokenReserves    uint64
	RealSOLReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool // Curve graduated; trading moved to an AMM
}

// DecodeBondingCurve parses base64 account data.
// Layout: 8-byte discriminator, five little-endian u64 fields, bool.
func DecodeBondingCurve(data string) (*BondingCurve, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) < bondingCurveMinLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortAccount, len(raw))
	}

	off := 8
	next := func() uint64 {
		v := binary.LittleEndian.Uint64(raw[off : off+8])
		off += 8
		return v
	}

	curve := &BondingCurve{
		VirtualTokenReserves: next(),
		VirtualSOLReserves:   next(),
		RealTokenReserves:    next(),
		RealSOLReserves:      next(),
		TokenTotalSupply:     next(),
	}
	curve.Complete = raw[off] != 0
	return curve, nil
}

// PriceSOL returns the spot price of one whole token in SOL.
func (b *BondingCurve) PriceSOL() float64 {
	if b.VirtualTokenReserves == 0 {
		return 0
	}
	sol := float64(b.VirtualSOLReserves) / LamportsPerSOL
	tokens := float64(b.VirtualTokenReserves) / 1e6
	return sol / tokens
}

// Supply returns the total supply in whole tokens.
func (b *BondingCurve) Supply() float64 {
	return float64(b.TokenTotalSupply) / 1e6
}
