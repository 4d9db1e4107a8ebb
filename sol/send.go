package sol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/samber/lo"
)

const (
	defaultConfirmTimeout = 60 * time.Second
	statusPollInterval    = 2 * time.Second
)

// SimulationResult is the outcome of a preflight simulation.
type SimulationResult struct {
	Err           error
	Logs          []string
	UnitsConsumed uint64
}

func (s *Solana) recentBlockHash(ctx context.Context) (solana.Hash, error) {
	if hash, ok := s.watcher.GetRecentBlockHash(); ok {
		return hash, nil
	}
	latest, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, err
	}
	return latest.Value.Blockhash, nil
}

// BuildTransaction wraps instructions into a transaction paid and signed by
// the first signer.
func (s *Solana) BuildTransaction(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (*solana.Transaction, error) {
	if len(signers) == 0 {
		return nil, types.ErrMissingWallet
	}
	hash, err := s.recentBlockHash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(instructions, hash, solana.TransactionPayer(signers[0].PublicKey()))
	if err != nil {
		return nil, err
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Simulate runs the transaction in preflight. A program failure is returned
// in the result, not as an error.
func (s *Solana) Simulate(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	out, err := s.client.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:  true,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, err
	}

	res := &SimulationResult{Logs: out.Value.Logs}
	if out.Value.UnitsConsumed != nil {
		res.UnitsConsumed = *out.Value.UnitsConsumed
	}
	if out.Value.Err != nil {
		res.Err = &types.TxError{
			Err:    types.ClassifyLogs(out.Value.Logs, types.ErrSimulationFailed),
			Reason: out.Value.Err,
			Logs:   out.Value.Logs,
		}
	}
	return res, nil
}

// Send submits the transaction through Jito when a tip is configured and
// through the RPC node otherwise. On failure the transaction's own signature
// is still returned.
func (s *Solana) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	client := s.client
	if s.jito != nil && s.cfg.JitoTip != 0 {
		client = s.jito
	}

	sig, err := client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		sig = solana.Signature{}
		if len(tx.Signatures) > 0 {
			sig = tx.Signatures[0]
		}
		logs := preflightLogs(err)
		if len(logs) == 0 {
			return sig, err
		}
		return sig, &types.TxError{
			Err:       types.ClassifyLogs(logs, types.ErrTransactionFailed),
			Signature: sig.String(),
			Reason:    err,
			Logs:      logs,
		}
	}
	logger.Debugf("[Solana] sent %s", sig)
	return sig, nil
}

// Confirm waits for the signature to reach confirmed commitment. The
// websocket subscription is preferred and status polling is the fallback.
func (s *Solana) Confirm(ctx context.Context, sig solana.Signature) error {
	timeout := defaultConfirmTimeout
	if s.cfg.ConfirmTimeoutS > 0 {
		timeout = time.Duration(s.cfg.ConfirmTimeoutS) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if s.cfg.WSRPC != "" {
		err := s.confirmWs(ctx, sig, timeout)
		if err == nil || errors.Is(err, types.ErrTransactionFailed) || errors.Is(err, types.ErrInstructionFailed) {
			return err
		}
		logger.Debugf("[Solana] websocket confirmation failed, polling: %v", err)
	}
	return s.confirmPoll(ctx, sig)
}

func (s *Solana) confirmWs(ctx context.Context, sig solana.Signature, timeout time.Duration) error {
	conn, err := ws.Connect(ctx, s.cfg.WSRPC)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := conn.SignatureSubscribe(sig, rpc.CommitmentConfirmed)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	result, err := sub.RecvWithTimeout(timeout)
	if err != nil {
		return err
	}
	return statusError(sig, result.Value.Err)
}

func (s *Solana) confirmPoll(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		statuses, err := s.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return statusError(sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return &types.TxError{Err: types.ErrTxNotLand, Signature: sig.String(), Reason: ctx.Err()}
		case <-ticker.C:
		}
	}
}

func statusError(sig solana.Signature, reason interface{}) error {
	if reason == nil {
		return nil
	}
	err := types.ErrTransactionFailed
	if m, ok := reason.(map[string]interface{}); ok {
		if _, ok := m["InstructionError"]; ok {
			err = types.ErrInstructionFailed
		}
	}
	return &types.TxError{Err: err, Signature: sig.String(), Reason: reason}
}

// preflightLogs extracts program logs from a failed sendTransaction preflight.
func preflightLogs(err error) []string {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := data["logs"].([]interface{})
	if !ok {
		return nil
	}
	return lo.FilterMap(raw, func(v interface{}, _ int) (string, bool) {
		line, ok := v.(string)
		return line, ok
	})
}

// SendAndConfirm is Send followed by Confirm. The signature is returned even
// when confirmation fails.
func (s *Solana) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := s.Send(ctx, tx)
	if err != nil {
		return sig, err
	}
	if err := s.Confirm(ctx, sig); err != nil {
		return sig, fmt.Errorf("confirm %s: %w", sig, err)
	}
	return sig, nil
}
