package sol

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/meme-bots/go-roundtrip/sol/common"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/sol/roundtrip"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/samber/lo"
)

// PreparedRoundTrip is a built but unsigned round trip.
type PreparedRoundTrip struct {
	Plan  *roundtrip.Plan
	Keys  *raydium.PoolKeys
	Pool  *raydium.PoolAccount
	Live  bool
	Quote uint64 // expected sell output, zero when the reserves are unknown
}

// RequiredBalance is the lamports a round trip needs up front: the swap input,
// rent for the temporary WSOL account and the token account, fees and tip.
func RequiredBalance(amountIn, jitoTip uint64) uint64 {
	return amountIn + common.RentForSize(common.TokenAccountSize) + common.RentATA + 2*common.LamportsPerSignature + jitoTip
}

// PrepareRoundTrip resolves the pool, derives the minimum outputs and builds
// the instruction plan. Pools that are not live Raydium pools are still
// built so the failure can be observed in simulation.
func (s *Solana) PrepareRoundTrip(ctx context.Context, req *types.RoundTripRequest) (*PreparedRoundTrip, error) {
	if s.wallet == nil {
		return nil, types.ErrMissingWallet
	}
	if req.AmountIn == 0 {
		return nil, types.ErrInvalidAmount
	}
	mode := lo.Ternary(req.Mode == "", types.RoundTripDirect, req.Mode)
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown round trip mode %q", req.Mode)
	}

	addr, err := solana.PublicKeyFromBase58(req.Pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPool, err)
	}
	pa, err := raydium.GetPool(ctx, s.client, addr)
	if err != nil {
		return nil, err
	}
	prep := &PreparedRoundTrip{
		Pool: pa,
		Live: raydium.IsKnownProgram(pa.ProgramID) && pa.Pool.Tradable(),
	}

	args := roundtrip.Args{
		AmountIn:             req.AmountIn,
		MinimumAmountOutBuy:  req.MinimumOutBuy,
		MinimumAmountOutSell: req.MinimumOutSell,
	}
	if args.MinimumAmountOutBuy == 0 || args.MinimumAmountOutSell == 0 {
		derived, expected, err := s.deriveArgs(ctx, pa, req)
		switch {
		case err == nil:
			args, prep.Quote = derived, expected
		case prep.Live:
			return nil, err
		default:
			logger.Warnf("[RoundTrip] pool %s is not live (%v), using placeholder minimums", pa.Address, err)
			args.MinimumAmountOutBuy = lo.Ternary(args.MinimumAmountOutBuy == 0, uint64(1), args.MinimumAmountOutBuy)
			args.MinimumAmountOutSell = lo.Ternary(args.MinimumAmountOutSell == 0, uint64(1), args.MinimumAmountOutSell)
		}
	}

	prep.Keys, err = s.poolKeys(ctx, addr)
	if err != nil {
		if !prep.Live {
			return nil, fmt.Errorf("%w: %v", types.ErrExpectedFailure, err)
		}
		return nil, err
	}

	prep.Plan, err = roundtrip.Build(mode, s.program, prep.Keys, s.wallet.PublicKey(), args, roundtrip.PlanOptions{
		ComputeUnitLimit: s.cfg.ComputeUnitLimit,
		PriorityFee:      s.cfg.PriorityFee,
		JitoTip:          s.cfg.JitoTip,
	})
	if err != nil {
		return nil, err
	}
	return prep, nil
}

func (s *Solana) deriveArgs(ctx context.Context, pa *raydium.PoolAccount, req *types.RoundTripRequest) (roundtrip.Args, uint64, error) {
	state, err := raydium.GetPoolState(ctx, s.client, pa.Address)
	if err != nil {
		return roundtrip.Args{}, 0, err
	}
	reserveSol, reserveToken, err := state.Orient()
	if err != nil {
		return roundtrip.Args{}, 0, err
	}
	bps := lo.Ternary(req.SlippageBps == 0, uint64(types.DefaultSlippageBps), req.SlippageBps)
	args, q, err := roundtrip.ArgsFromQuote(req.AmountIn, reserveSol, reserveToken, state.Pool.Fee(), bps)
	if err != nil {
		return roundtrip.Args{}, 0, err
	}
	if req.MinimumOutBuy != 0 {
		args.MinimumAmountOutBuy = req.MinimumOutBuy
	}
	if req.MinimumOutSell != 0 {
		args.MinimumAmountOutSell = req.MinimumOutSell
	}
	return args, q.Sell.AmountOut, nil
}

// RoundTrip builds, signs and then simulates or submits a round trip. A
// failed simulation is reported in the response, not returned as an error.
func (s *Solana) RoundTrip(ctx context.Context, req *types.RoundTripRequest) (*types.RoundTripResponse, error) {
	prep, err := s.PrepareRoundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	args := prep.Plan.Args
	resp := &types.RoundTripResponse{
		Mode:           prep.Plan.Mode,
		Simulated:      req.Simulate,
		AmountIn:       args.AmountIn,
		MinimumOutBuy:  args.MinimumAmountOutBuy,
		MinimumOutSell: args.MinimumAmountOutSell,
		ExpectedOut:    prep.Quote,
	}

	balance, err := s.client.GetBalance(ctx, s.wallet.PublicKey(), rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	if need := RequiredBalance(args.AmountIn, s.cfg.JitoTip); balance.Value < need {
		return nil, fmt.Errorf("%w: have %d lamports, need %d", types.ErrInsufficientBalance, balance.Value, need)
	}

	tx, err := s.BuildTransaction(ctx, prep.Plan.Instructions(), s.wallet)
	if err != nil {
		return nil, err
	}
	resp.TxHash = tx.Signatures[0].String()

	if req.Simulate {
		sim, err := s.Simulate(ctx, tx)
		if err != nil {
			return nil, err
		}
		resp.Logs = sim.Logs
		resp.UnitsConsumed = sim.UnitsConsumed
		resp.Success = sim.Err == nil
		if sim.Err != nil {
			resp.Error = s.describeFailure(prep, sim.Err)
		}
		logger.Infof("[RoundTrip] simulated %s mode=%s success=%v units=%d", prep.Pool.Address, resp.Mode, resp.Success, resp.UnitsConsumed)
		return resp, nil
	}

	sig, err := s.SendAndConfirm(ctx, tx)
	if !sig.IsZero() {
		resp.TxHash = sig.String()
	}
	resp.ExplorerURL = ExplorerTxURL(resp.TxHash, s.cfg.Cluster, s.cfg.RPC)
	if err != nil {
		resp.Error = s.describeFailure(prep, err)
		var txErr *types.TxError
		if errors.As(err, &txErr) {
			resp.Logs = txErr.Logs
		}
		return resp, err
	}
	resp.Success = true
	logger.Infof("[RoundTrip] confirmed %s mode=%s in=%d", resp.TxHash, resp.Mode, resp.AmountIn)
	return resp, nil
}

func (s *Solana) describeFailure(prep *PreparedRoundTrip, err error) string {
	if !prep.Live {
		return fmt.Sprintf("%v (%v)", types.ErrExpectedFailure, err)
	}
	return err.Error()
}
