package market

import (
	"context"
	"fmt"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/solana"
)

// CurveSource reads the pump.fun bonding-curve account. It is the
// authoritative source of graduation status.
type CurveSource struct {
	rpc solana.RPCClient
}

// NewCurveSource creates a bonding-curve source.
func NewCurveSource(rpc solana.RPCClient) *CurveSource {
	return &CurveSource{rpc: rpc}
}

// Name returns the source name.
func (s *CurveSource) Name() string { return "bonding-curve" }

// Fetch decodes the curve of mint. Price is only reported while the curve is live.
func (s *CurveSource) Fetch(ctx context.Context, mint string) (*Quote, error) {
	addr, err := solana.BondingCurveAddress(mint)
	if err != nil {
		return nil, fmt.Errorf("derive bonding curve: %w", err)
	}

	info, err := s.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: bonding curve %s: %v", domain.ErrUnavailable, addr, err)
	}
	if info == nil {
		return nil, fmt.Errorf("bonding curve %s not found", addr)
	}

	curve, err := solana.DecodeBondingCurve(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode bonding curve: %w", err)
	}

	q := &Quote{
		Source:          s.Name(),
		Supply:          float(curve.Supply()),
		BondingComplete: &curve.Complete,
		Authoritative:   true,
	}
	if !curve.Complete {
		if p := curve.PriceSOL(); p > 0 {
			q.PriceSOL = float(p)
		}
	}
	return q, nil
}
