// Package volume runs round trips back to back against one pool.
package volume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meme-bots/go-roundtrip/ledger"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const DefaultDelay = 2 * time.Second

var ErrInvalidCount = errors.New("swap count must be greater than 0")

type (
	Executor interface {
		RoundTrip(ctx context.Context, req *types.RoundTripRequest) (*types.RoundTripResponse, error)
	}

	Options struct {
		Pool        string
		Mode        types.RoundTripMode
		AmountIn    uint64
		SlippageBps uint64
		Count       int
		Delay       time.Duration
		Simulate    bool
	}

	Attempt struct {
		Index       int
		Signature   string
		Success     bool
		Error       string
		ExplorerURL string
		Elapsed     time.Duration
	}

	Summary struct {
		RunID      string
		Pool       string
		Total      int
		Successful int
		Failed     int
		Cancelled  bool
		Attempts   []Attempt
		Started    time.Time
		Finished   time.Time
	}

	Bot struct {
		exec  Executor
		store ledger.Store
		sleep func(ctx context.Context, d time.Duration) error
	}

	BotOption func(*Bot)
)

func WithLedger(store ledger.Store) BotOption {
	return func(b *Bot) { b.store = store }
}

// WithSleeper replaces the delay between attempts.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) BotOption {
	return func(b *Bot) { b.sleep = sleep }
}

func NewBot(exec Executor, opts ...BotOption) *Bot {
	b := &Bot{exec: exec, sleep: sleepContext}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run performs Count attempts sequentially, waiting Delay between them. A
// failed attempt is recorded and the run continues. Cancelling ctx stops the
// run and returns the partial summary.
func (b *Bot) Run(ctx context.Context, opt Options) (*Summary, error) {
	if opt.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if opt.AmountIn == 0 {
		return nil, types.ErrInvalidAmount
	}
	delay := lo.Ternary(opt.Delay <= 0, DefaultDelay, opt.Delay)

	sum := &Summary{RunID: uuid.NewString(), Pool: opt.Pool, Started: time.Now()}
	logger.Infof("[Volume] run %s: %d round trips of %d lamports on %s (mode=%s simulate=%v)",
		sum.RunID, opt.Count, opt.AmountIn, opt.Pool, opt.Mode, opt.Simulate)

	for i := 0; i < opt.Count; i++ {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}

		a := b.attempt(ctx, i, opt)
		sum.Attempts = append(sum.Attempts, a)
		sum.Total++
		if a.Success {
			sum.Successful++
			logger.Infof("[Volume] swap %d/%d completed %s", i+1, opt.Count, a.Signature)
		} else {
			sum.Failed++
			logger.Warnf("[Volume] swap %d/%d failed: %s", i+1, opt.Count, a.Error)
		}
		b.record(ctx, sum.RunID, opt, a)

		if i < opt.Count-1 {
			if err := b.sleep(ctx, delay); err != nil {
				sum.Cancelled = true
				break
			}
		}
	}

	if ctx.Err() != nil {
		sum.Cancelled = true
	}
	sum.Finished = time.Now()
	logger.Infof("[Volume] run %s done: %d/%d successful (%s%%)", sum.RunID, sum.Successful, sum.Total, sum.SuccessRate().StringFixed(1))
	return sum, nil
}

func (b *Bot) attempt(ctx context.Context, i int, opt Options) Attempt {
	start := time.Now()
	resp, err := b.exec.RoundTrip(ctx, &types.RoundTripRequest{
		Pool:        opt.Pool,
		Mode:        opt.Mode,
		AmountIn:    opt.AmountIn,
		SlippageBps: opt.SlippageBps,
		Simulate:    opt.Simulate,
	})

	a := Attempt{Index: i, Elapsed: time.Since(start)}
	if resp != nil {
		a.Signature = resp.TxHash
		a.Success = resp.Success
		a.Error = resp.Error
		a.ExplorerURL = resp.ExplorerURL
	}
	if err != nil {
		a.Success = false
		if a.Error == "" {
			a.Error = err.Error()
		}
	}
	return a
}

func (b *Bot) record(ctx context.Context, runID string, opt Options, a Attempt) {
	if b.store == nil {
		return
	}
	err := b.store.Record(ctx, &ledger.Entry{
		RunID:     runID,
		Index:     a.Index,
		Pool:      opt.Pool,
		Mode:      string(opt.Mode),
		Signature: a.Signature,
		Success:   a.Success,
		Error:     a.Error,
		AmountIn:  opt.AmountIn,
		Time:      time.Now().UTC(),
	})
	if err != nil {
		logger.With("run", runID, "index", a.Index).Warnf("[Volume] ledger record failed: %v", err)
	}
}

// SuccessRate is the percentage of successful attempts.
func (s *Summary) SuccessRate() decimal.Decimal {
	if s.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Successful)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(s.Total)))
}

func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Volume Bot Summary (run %s)\n", s.RunID)
	fmt.Fprintf(&sb, "Total Swaps:  %d\n", s.Total)
	fmt.Fprintf(&sb, "Successful:   %d\n", s.Successful)
	fmt.Fprintf(&sb, "Failed:       %d\n", s.Failed)
	fmt.Fprintf(&sb, "Success Rate: %s%%\n", s.SuccessRate().StringFixed(1))
	if s.Cancelled {
		sb.WriteString("Run cancelled before completion\n")
	}
	return sb.String()
}
