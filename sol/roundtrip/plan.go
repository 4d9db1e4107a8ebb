package roundtrip

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/treeout"
	"github.com/meme-bots/go-roundtrip/sol/common"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/types"
)

type (
	PlanOptions struct {
		ComputeUnitLimit uint32
		PriorityFee      uint64 // lamports spread over the unit limit
		JitoTip          uint64
		// WsolSeed fixes the temporary WSOL account. Random when empty.
		WsolSeed string
	}

	Step struct {
		Label       string
		Instruction solana.Instruction
	}

	Plan struct {
		Mode         types.RoundTripMode
		Owner        solana.PublicKey
		TokenMint    solana.PublicKey
		WsolAccount  solana.PublicKey
		TokenAccount solana.PublicKey
		Args         Args
		Steps        []Step
	}
)

func (p *Plan) Instructions() []solana.Instruction {
	ixs := make([]solana.Instruction, len(p.Steps))
	for i, s := range p.Steps {
		ixs[i] = s.Instruction
	}
	return ixs
}

// Build assembles a round-trip transaction body. WSOL is wrapped into a
// temporary account funded with AmountIn and unwrapped at the end, so the
// owner's lamports are the only SOL touched.
func Build(mode types.RoundTripMode, programID solana.PublicKey, keys *raydium.PoolKeys, owner solana.PublicKey, args Args, opts PlanOptions) (*Plan, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	tokenMint, _, err := keys.TokenSide()
	if err != nil {
		return nil, err
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, tokenMint)
	if err != nil {
		return nil, err
	}

	p := &Plan{Mode: mode, Owner: owner, TokenMint: tokenMint, TokenAccount: ata, Args: args}
	p.Steps = append(p.Steps, computeBudgetSteps(opts)...)

	var wsolSteps []solana.Instruction
	if opts.WsolSeed != "" {
		wsolSteps, p.WsolAccount = raydium.CreateAndInitWsolTokenAccountWithSeed(owner, opts.WsolSeed, args.AmountIn)
	} else {
		wsolSteps, p.WsolAccount = raydium.CreateAndInitWsolTokenAccount(owner, args.AmountIn)
	}
	p.Steps = append(p.Steps,
		Step{Label: "create temporary WSOL account", Instruction: wsolSteps[0]},
		Step{Label: "initialize WSOL account", Instruction: wsolSteps[1]},
		Step{Label: "create token account (idempotent)", Instruction: raydium.CreateIdempotentInstruction(tokenMint, owner)},
	)

	switch mode {
	case types.RoundTripDirect:
		p.Steps = append(p.Steps,
			Step{
				Label:       fmt.Sprintf("buy: swap %d WSOL for at least %d token", args.AmountIn, args.MinimumAmountOutBuy),
				Instruction: raydium.CreateSwapInstruction(keys, args.AmountIn, args.MinimumAmountOutBuy, p.WsolAccount, ata, owner),
			},
			Step{
				Label:       fmt.Sprintf("sell: swap %d token for at least %d WSOL", args.MinimumAmountOutBuy, args.MinimumAmountOutSell),
				Instruction: raydium.CreateSwapInstruction(keys, args.MinimumAmountOutBuy, args.MinimumAmountOutSell, ata, p.WsolAccount, owner),
			},
		)
	case types.RoundTripProgram:
		if programID.IsZero() {
			return nil, types.ErrMissingProgram
		}
		ix, err := NewAtomicRoundTripInstruction(programID, keys, p.WsolAccount, ata, owner, args)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, Step{
			Label:       fmt.Sprintf("atomic round trip: %d in, min %d buy, min %d sell", args.AmountIn, args.MinimumAmountOutBuy, args.MinimumAmountOutSell),
			Instruction: ix,
		})
	default:
		return nil, fmt.Errorf("unknown round trip mode %q", mode)
	}

	p.Steps = append(p.Steps, Step{Label: "close WSOL account", Instruction: raydium.CloseAccountInstruction(p.WsolAccount, owner)})

	if opts.JitoTip != 0 {
		idx := rand.Intn(len(common.JitoTipPaymentAccounts))
		p.Steps = append(p.Steps, Step{
			Label:       fmt.Sprintf("jito tip %d lamports", opts.JitoTip),
			Instruction: system.NewTransferInstruction(opts.JitoTip, owner, common.JitoTipPaymentAccounts[idx]).Build(),
		})
	}
	return p, nil
}

func computeBudgetSteps(opts PlanOptions) []Step {
	if opts.ComputeUnitLimit == 0 {
		return nil
	}
	steps := []Step{{
		Label:       fmt.Sprintf("set compute unit limit %d", opts.ComputeUnitLimit),
		Instruction: computebudget.NewSetComputeUnitLimitInstruction(opts.ComputeUnitLimit).Build(),
	}}
	if opts.PriorityFee != 0 {
		price := new(big.Int).Mul(big.NewInt(1_000_000), new(big.Int).SetUint64(opts.PriorityFee))
		price.Div(price, big.NewInt(int64(opts.ComputeUnitLimit)))
		steps = append(steps, Step{
			Label:       fmt.Sprintf("set compute unit price %d micro-lamports", price.Uint64()),
			Instruction: computebudget.NewSetComputeUnitPriceInstruction(price.Uint64()).Build(),
		})
	}
	return steps
}

// Render prints the plan as a tree of instructions and their accounts.
func (p *Plan) Render() string {
	tree := treeout.New(fmt.Sprintf("round trip (%s) owner=%s token=%s", p.Mode, p.Owner, p.TokenMint))
	for i, s := range p.Steps {
		branch := tree.Child(fmt.Sprintf("#%d %s", i, s.Label))
		branch.Child(fmt.Sprintf("program: %s", s.Instruction.ProgramID()))
		accounts := branch.Child(fmt.Sprintf("accounts (%d)", len(s.Instruction.Accounts())))
		for j, a := range s.Instruction.Accounts() {
			accounts.Child(fmt.Sprintf("[%02d] %s %s", j, flags(a), a.PublicKey))
		}
	}
	return tree.String()
}

func flags(a *solana.AccountMeta) string {
	b := []byte("--")
	if a.IsSigner {
		b[0] = 's'
	}
	if a.IsWritable {
		b[1] = 'w'
	}
	return string(b)
}
