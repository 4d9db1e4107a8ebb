package sol

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/meme-bots/go-roundtrip/sol/raydium"
	"github.com/meme-bots/go-roundtrip/types"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

func (s *Solana) InspectTransaction(ctx context.Context, signature string) (*types.TransactionReport, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	var maxVersion uint64 = 0
	tx, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, types.ErrTxNotLand
		}
		return nil, err
	}

	return Analyze(signature, tx, s.cfg.Cluster, s.cfg.RPC)
}

// Analyze summarizes a fetched transaction.
func Analyze(signature string, res *rpc.GetTransactionResult, cluster, rpcURL string) (*types.TransactionReport, error) {
	if res == nil || res.Transaction == nil {
		return nil, types.ErrTxNotLand
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, err
	}

	report := &types.TransactionReport{
		Signature:   signature,
		Slot:        res.Slot,
		Success:     true,
		ExplorerURL: ExplorerTxURL(signature, cluster, rpcURL),
		SolscanURL:  SolscanTxURL(signature, cluster),
	}
	if res.BlockTime != nil {
		t := res.BlockTime.Time()
		report.BlockTime = &t
	}

	keys := allAccountKeys(tx, res.Meta)
	meta := res.Meta
	if meta != nil {
		report.Fee = meta.Fee
		report.ComputeUnits = meta.ComputeUnitsConsumed
		report.Logs = meta.LogMessages
		if meta.Err != nil {
			report.Success = false
			report.Error = fmt.Sprintf("%v", meta.Err)
		}
		report.BalanceChanges = balanceChanges(keys, meta.PreBalances, meta.PostBalances)
		report.TokenBalanceChanges = tokenBalanceChanges(keys, meta.PreTokenBalances, meta.PostTokenBalances)
	}

	for i, ix := range tx.Message.Instructions {
		summary := types.InstructionSummary{
			Index:      i,
			Data:       hex.EncodeToString(ix.Data),
			DataBase58: base58.Encode(ix.Data),
			Accounts:   len(ix.Accounts),
		}
		var program solana.PublicKey
		if int(ix.ProgramIDIndex) < len(keys) {
			program = keys[ix.ProgramIDIndex]
			summary.ProgramID = program.String()
		}
		if meta != nil {
			for _, inner := range meta.InnerInstructions {
				if int(inner.Index) == i {
					summary.Inner = len(inner.Instructions)
				}
			}
			if raydium.IsKnownProgram(program) && len(ix.Data) > 0 && ix.Data[0] == byte(raydium.InstructionSwapBaseIn) {
				if in, out, ok := raydium.ParseSwapInstruction(meta, uint16(i)); ok {
					summary.Swap = &types.SwapSummary{AmountIn: in, AmountOut: out}
				}
			}
		}
		report.Instructions = append(report.Instructions, summary)
	}

	return report, nil
}

func allAccountKeys(tx *solana.Transaction, meta *rpc.TransactionMeta) solana.PublicKeySlice {
	keys := append(solana.PublicKeySlice{}, tx.Message.AccountKeys...)
	if meta != nil {
		keys = append(keys, meta.LoadedAddresses.Writable...)
		keys = append(keys, meta.LoadedAddresses.ReadOnly...)
	}
	return keys
}

func balanceChanges(keys solana.PublicKeySlice, pre, post []uint64) []types.BalanceChange {
	var changes []types.BalanceChange
	for i := 0; i < len(pre) && i < len(post) && i < len(keys); i++ {
		if pre[i] == post[i] && i != 0 {
			continue
		}
		changes = append(changes, types.BalanceChange{
			Account: keys[i].String(),
			Pre:     pre[i],
			Post:    post[i],
			Delta:   int64(post[i]) - int64(pre[i]),
		})
	}
	return changes
}

func tokenAmount(b *rpc.TokenBalance) decimal.Decimal {
	if b == nil || b.UiTokenAmount == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(b.UiTokenAmount.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(-int32(b.UiTokenAmount.Decimals))
}

func tokenBalanceChanges(keys solana.PublicKeySlice, pre, post []rpc.TokenBalance) []types.TokenBalanceChange {
	type pair struct{ pre, post *rpc.TokenBalance }
	byIndex := map[uint16]*pair{}
	for i := range pre {
		byIndex[pre[i].AccountIndex] = &pair{pre: &pre[i]}
	}
	for i := range post {
		if p, ok := byIndex[post[i].AccountIndex]; ok {
			p.post = &post[i]
		} else {
			byIndex[post[i].AccountIndex] = &pair{post: &post[i]}
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, int(idx))
	}
	sort.Ints(indexes)

	var changes []types.TokenBalanceChange
	for _, idx := range indexes {
		p := byIndex[uint16(idx)]
		ref := p.post
		if ref == nil {
			ref = p.pre
		}
		c := types.TokenBalanceChange{
			Mint: ref.Mint.String(),
			Pre:  tokenAmount(p.pre),
			Post: tokenAmount(p.post),
		}
		if idx < len(keys) {
			c.Account = keys[idx].String()
		}
		if ref.Owner != nil {
			c.Owner = ref.Owner.String()
		}
		c.Delta = c.Post.Sub(c.Pre)
		if c.Delta.IsZero() {
			continue
		}
		changes = append(changes, c)
	}
	return changes
}

func ExplorerTxURL(signature, cluster, rpcURL string) string {
	u := "https://explorer.solana.com/tx/" + signature
	switch cluster {
	case "", "mainnet-beta":
		return u
	case "custom":
		return u + "?cluster=custom&customUrl=" + url.QueryEscape(rpcURL)
	}
	return u + "?cluster=" + cluster
}

func SolscanTxURL(signature, cluster string) string {
	u := "https://solscan.io/tx/" + signature
	switch cluster {
	case "devnet", "testnet":
		return u + "?cluster=" + cluster
	}
	return u
}
