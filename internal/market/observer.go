package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-mm-brain/internal/domain"
	"solana-mm-brain/internal/indicators"
)

// DefaultHistorySize is the number of samples kept per mint.
const DefaultHistorySize = 200

// SnapshotRecorder persists snapshots. Failures never fail a poll.
type SnapshotRecorder interface {
	Insert(ctx context.Context, snap *domain.MarketSnapshot) error
}

// Options configures an Observer.
type Options struct {
	Sources     []Source // ordered; earlier sources win per field
	HistorySize int
	Recorder    SnapshotRecorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// Observer polls sources and turns them into snapshots with indicators.
type Observer struct {
	sources     []Source
	historySize int
	recorder    SnapshotRecorder
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	histories map[string]*History
}

// NewObserver creates an observer.
func NewObserver(opts Options) (*Observer, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("observer needs at least one source")
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Observer{
		sources:     opts.Sources,
		historySize: opts.HistorySize,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		now:         opts.Now,
		histories:   make(map[string]*History),
	}, nil
}

func (o *Observer) history(mint string) *History {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.histories[mint]
	if !ok {
		h = NewHistory(o.historySize)
		o.histories[mint] = h
	}
	return h
}

// Poll fetches every source under ctx and returns a new snapshot.
// It fails only when no source yields a SOL price; other source failures
// mark the snapshot partial.
func (o *Observer) Poll(ctx context.Context, mint string) (*domain.MarketSnapshot, error) {
	quotes := make([]*Quote, len(o.sources))
	errs := make([]error, len(o.sources))

	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			quotes[i], errs[i] = src.Fetch(ctx, mint)
		}(i, src)
	}
	wg.Wait()

	snap := domain.MarketSnapshot{Mint: mint, Timestamp: o.now()}
	var (
		price, priceUSD, mcap, supply, vol24, vol5 *float64
		holders                                    *int
		bonded                                     *bool
		authoritative                              bool
	)
	for i, q := range quotes {
		if errs[i] != nil || q == nil {
			snap.Partial = true
			o.logger.Warn("market source failed",
				zap.String("source", o.sources[i].Name()),
				zap.String("mint", mint),
				zap.Error(errs[i]))
			continue
		}
		snap.Sources = append(snap.Sources, o.sources[i].Name())
		first(&price, q.PriceSOL)
		first(&priceUSD, q.PriceUSD)
		first(&mcap, q.MarketCapUSD)
		first(&supply, q.Supply)
		first(&vol24, q.Volume24hUSD)
		first(&vol5, q.Volume5mUSD)
		first(&holders, q.Holders)
		if q.BondingComplete != nil && (bonded == nil || (q.Authoritative && !authoritative)) {
			bonded = q.BondingComplete
			authoritative = q.Authoritative
		}
	}

	if price == nil || *price <= 0 {
		return nil, domain.NewError(domain.KindTransientUpstream, "poll market",
			fmt.Errorf("%w: no price for %s", domain.ErrUnavailable, mint))
	}

	snap.PriceSOL = *price
	snap.PriceUSD = deref(priceUSD)
	snap.Supply = deref(supply)
	snap.MarketCapUSD = deref(mcap)
	if snap.MarketCapUSD == 0 && snap.PriceUSD > 0 && snap.Supply > 0 {
		snap.MarketCapUSD = snap.PriceUSD * snap.Supply
	}
	snap.Volume24hUSD = deref(vol24)
	snap.Volume5mUSD = deref(vol5)
	if holders != nil {
		snap.HolderCount = *holders
	}
	if bonded != nil {
		snap.BondingComplete = *bonded
	}

	h := o.history(mint)
	h.Add(Sample{At: snap.Timestamp, PriceSOL: snap.PriceSOL, Volume24h: snap.Volume24hUSD})
	snap.NetVolume5mUSD = h.NetVolume(5*time.Minute, snap.Timestamp)
	snap.NetVolume1hUSD = h.NetVolume(time.Hour, snap.Timestamp)

	prices := h.Prices()
	snap.Indicators = indicators.Compute(prices)
	out := domain.NewMarketSnapshot(snap, prices)

	if o.recorder != nil {
		if err := o.recorder.Insert(ctx, out); err != nil {
			o.logger.Warn("record snapshot failed", zap.String("mint", mint), zap.Error(err))
		}
	}
	return out, nil
}

func first[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
