package solana

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func encodeCurve(vt, vs, rt, rs, supply uint64, complete bool) string {
	buf := make([]byte, bondingCurveMinLen+32) // trailing creator key in newer layouts
	copy(buf, []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60})
	off := 8
	for _, v := range []uint64{vt, vs, rt, rs, supply} {
		binary.LittleEndian.PutUint64(buf[off:], v)
		off += 8
	}
	if complete {
		buf[off] = 1
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func TestDecodeBondingCurve(t *testing.T) {
	data := encodeCurve(1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 0, 1_000_000_000_000_000, false)

	curve, err := DecodeBondingCurve(data)
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}
	if curve.Complete {
		t.Error("expected incomplete curve")
	}
	if curve.VirtualSOLReserves != 30_000_000_000 {
		t.Errorf("unexpected virtual SOL reserves %d", curve.VirtualSOLReserves)
	}
	if curve.Supply() != 1e9 {
		t.Errorf("expected supply 1e9, got %v", curve.Supply())
	}

	want := 30.0 / 1_073_000_000.0
	if math.Abs(curve.PriceSOL()-want) > 1e-15 {
		t.Errorf("PriceSOL = %v, want %v", curve.PriceSOL(), want)
	}
}

func TestDecodeBondingCurve_Complete(t *testing.T) {
	curve, err := DecodeBondingCurve(encodeCurve(0, 0, 0, 0, 1, true))
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}
	if !curve.Complete {
		t.Error("expected complete curve")
	}
	if curve.PriceSOL() != 0 {
		t.Errorf("expected zero price for empty reserves, got %v", curve.PriceSOL())
	}
}

func TestDecodeBondingCurve_Short(t *testing.T) {
	_, err := DecodeBondingCurve(base64.StdEncoding.EncodeToString(make([]byte, 20)))
	if !errors.Is(err, ErrShortAccount) {
		t.Errorf("expected ErrShortAccount, got %v", err)
	}

	if _, err := DecodeBondingCurve("***"); err == nil {
		t.Error("expected base64 error")
	}
}
