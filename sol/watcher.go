package sol

import (
	"context"
	"errors"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/utils"
	"github.com/shopspring/decimal"
)

type (
	watcherState uint8

	// PriceSource returns the SOL price in USD.
	PriceSource func(ctx context.Context) (decimal.Decimal, error)

	Watcher struct {
		client        *rpc.Client
		price         decimal.Decimal
		priceLock     sync.RWMutex
		priceSource   PriceSource
		hash          solana.Hash
		hashUpdatedAt time.Time
		hashLock      sync.RWMutex
		withBlockHash bool
		withSolPrice  bool

		ctx          context.Context
		cancel       context.CancelFunc
		subprocesses utils.Subprocesses

		stateMu sync.Mutex
		state   watcherState
	}
)

const (
	_ watcherState = iota
	watcherStatePending
	watcherStateOpen
	watcherStateClosed
)

const blockHashMaxAge = 3 * time.Second

var (
	// Raydium SOL/USDT pool vaults on mainnet
	solVaultAddress  = solana.MPK("876Z9waBygfzUrwwKFfnRcc7cfY4EQf6Kz1w7GRgbVYW")
	usdtVaultAddress = solana.MPK("CB86HtaqpXbNWbq67L18y5x2RhqoJ6smb7xHUcyWdQAQ")
)

func NewWatcher(client *rpc.Client, withBlockHash, withSolPrice bool, source PriceSource) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		client:        client,
		price:         decimal.Zero,
		hash:          solana.Hash{},
		withBlockHash: withBlockHash,
		withSolPrice:  withSolPrice,
		ctx:           ctx,
		cancel:        cancel,
		subprocesses:  utils.Subprocesses{},
		state:         watcherStatePending,
	}
	w.priceSource = source
	if w.priceSource == nil {
		w.priceSource = w.QuerySolPrice
	}
	return w
}

func (w *Watcher) Start() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.state != watcherStatePending {
		return errors.New("cannot Start() watcher that has already been started")
	}

	w.state = watcherStateOpen

	if w.withSolPrice {
		w.subprocesses.Go(func() {
			w.WatchSolPrice(time.Minute)
		})
	}

	if w.withBlockHash {
		w.subprocesses.Go(func() {
			w.WatchBlockHash(time.Second)
		})
	}
	return nil
}

func (w *Watcher) Close() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.state != watcherStateOpen {
		return errors.New("cannot Close() watcher that isn't open")
	}

	w.state = watcherStateClosed
	w.cancel()
	w.subprocesses.Wait()
	return nil
}

// QuerySolPrice reads the SOL/USDT pool vaults. Only meaningful on mainnet.
func (w *Watcher) QuerySolPrice(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := w.client.GetMultipleAccountsWithOpts(
		ctx,
		[]solana.PublicKey{solVaultAddress, usdtVaultAddress},
		&rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentConfirmed},
	)
	if err != nil {
		return decimal.Zero, err
	}
	if accounts.Value[0] == nil || accounts.Value[1] == nil {
		return decimal.Zero, errors.New("price vaults not found")
	}

	var wsolVault, usdtVault token.Account
	err = wsolVault.UnmarshalWithDecoder(bin.NewBorshDecoder(accounts.Value[0].Data.GetBinary()))
	if err != nil {
		return decimal.Zero, err
	}

	err = usdtVault.UnmarshalWithDecoder(bin.NewBorshDecoder(accounts.Value[1].Data.GetBinary()))
	if err != nil {
		return decimal.Zero, err
	}

	wsolAmount := utils.ToUiAmount(wsolVault.Amount, 9)
	usdtAmount := utils.ToUiAmount(usdtVault.Amount, 6)
	if wsolAmount.IsZero() {
		return decimal.Zero, errors.New("empty wsol vault")
	}
	return usdtAmount.Div(wsolAmount), nil
}

func (w *Watcher) QueryBlockHash(ctx context.Context) (solana.Hash, error) {
	recentBlock, err := w.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, err
	}
	return recentBlock.Value.Blockhash, nil
}

func (w *Watcher) updateSolPrice() {
	price, err := w.priceSource(w.ctx)
	if err != nil {
		logger.Debugf("[Watcher] sol price update failed: %v", err)
		return
	}
	w.priceLock.Lock()
	w.price = price
	w.priceLock.Unlock()
}

func (w *Watcher) updateBlockHash() {
	hash, err := w.QueryBlockHash(w.ctx)
	if err != nil {
		logger.Debugf("[Watcher] blockhash update failed: %v", err)
		return
	}
	w.hashLock.Lock()
	w.hash = hash
	w.hashUpdatedAt = time.Now()
	w.hashLock.Unlock()
}

func (w *Watcher) WatchSolPrice(interval time.Duration) {
	w.updateSolPrice()
	for {
		select {
		case <-time.After(interval):
		case <-w.ctx.Done():
			return
		}
		w.updateSolPrice()
	}
}

func (w *Watcher) WatchBlockHash(interval time.Duration) {
	w.updateBlockHash()
	for {
		select {
		case <-time.After(interval):
		case <-w.ctx.Done():
			return
		}
		w.updateBlockHash()
	}
}

func (w *Watcher) GetSolPrice() decimal.Decimal {
	w.priceLock.RLock()
	defer w.priceLock.RUnlock()
	return w.price
}

// GetRecentBlockHash returns the cached blockhash if it is fresh enough.
func (w *Watcher) GetRecentBlockHash() (solana.Hash, bool) {
	if !w.withBlockHash {
		return solana.Hash{}, false
	}

	w.hashLock.RLock()
	defer w.hashLock.RUnlock()
	if w.hash.IsZero() || time.Since(w.hashUpdatedAt) > blockHashMaxAge {
		return solana.Hash{}, false
	}
	return w.hash, true
}
