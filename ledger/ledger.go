package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"

	DefaultKey = "roundtrip:attempts"

	// MaxEntries bounds the stored history.
	MaxEntries = 10_000
)

var ErrUnknownDriver = errors.New("unknown ledger driver")

type (
	// Entry is one volume bot attempt.
	Entry struct {
		RunID     string    `json:"run_id"`
		Index     int       `json:"index"`
		Pool      string    `json:"pool"`
		Mode      string    `json:"mode"`
		Signature string    `json:"signature,omitempty"`
		Success   bool      `json:"success"`
		Error     string    `json:"error,omitempty"`
		AmountIn  uint64    `json:"amount_in"`
		Time      time.Time `json:"time"`
	}

	Store interface {
		Record(ctx context.Context, e *Entry) error
		// Recent returns up to limit entries, oldest first. A limit of zero returns all.
		Recent(ctx context.Context, limit int) ([]*Entry, error)
		// Run returns the entries of one bot run.
		Run(ctx context.Context, runID string) ([]*Entry, error)
		Close() error
	}

	Options struct {
		Driver   string
		Addr     string
		Password string
		DB       int
		Key      string
	}
)

func New(ctx context.Context, opt Options) (Store, error) {
	switch opt.Driver {
	case "", DriverMemory:
		return NewMemoryStore(MaxEntries), nil
	case DriverRedis:
		return NewRedisStore(ctx, opt)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opt.Driver)
}

func encode(e *Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decode(raw []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func filterRun(entries []*Entry, runID string) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}
