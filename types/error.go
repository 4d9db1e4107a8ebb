package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPool = errors.New("invalid pool")

	ErrPoolNotTradable = errors.New("pool is not open for swaps")

	ErrPoolEmpty = errors.New("pool has no liquidity")

	ErrNotImplemented = errors.New("not implemented")

	ErrNotFound = errors.New("not found")

	ErrInvalidAmount = errors.New("invalid amount - must be greater than 0")

	ErrInvalidMinimumOut = errors.New("invalid minimum amount out - must be greater than 0")

	ErrInsufficientBalance = errors.New("insufficient balance for swap")

	ErrMissingWallet = errors.New("wallet private key not configured")

	ErrMissingProgram = errors.New("round trip program id not configured")

	ErrAccountNotInitialized = errors.New("account not initialized")

	ErrInstructionFailed = errors.New("instruction failed")

	ErrTransactionInvalid = errors.New("transaction invalid")

	ErrTransactionFailed = errors.New("transaction failed")

	ErrSimulationFailed = errors.New("simulation failed")

	ErrTxNotLand = errors.New("transaction did not land")

	ErrSlippage = errors.New("slippage error")

	ErrExpectedFailure = errors.New("expected failure: pool is not a live raydium pool")
)

// TxError carries the program logs of a failed simulation or transaction.
type TxError struct {
	Err       error
	Signature string
	Reason    interface{}
	Logs      []string
}

func (e *TxError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("%v: %v", e.Err, e.Reason)
	}
	return e.Err.Error()
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// ClassifyLogs maps well known program log lines to sentinel errors.
func ClassifyLogs(logs []string, fallback error) error {
	for _, line := range logs {
		switch {
		case strings.Contains(line, "exceeds desired slippage limit"),
			strings.Contains(line, "Slippage tolerance exceeded"),
			strings.Contains(line, "TooMuchSolRequired"):
			return ErrSlippage
		case strings.Contains(line, "AccountNotInitialized"):
			return ErrAccountNotInitialized
		case strings.Contains(line, "Insufficient balance"),
			strings.Contains(line, "insufficient funds"),
			strings.Contains(line, "insufficient lamports"):
			return ErrInsufficientBalance
		}
	}
	return fallback
}
