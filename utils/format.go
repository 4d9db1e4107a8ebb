package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func PrettyFloat(f float64) string {
	for _, unit := range []string{"", "K", "M", "G"} {
		if math.Abs(f) < 1000.0 {
			return fmt.Sprintf("%3.2f%s", f, unit)
		}
		f /= 1000.0
	}
	return fmt.Sprintf("%.2fT", f)
}

// AbbreviateDecimal prints leading fractional zeros as a subscript count, so
// 0.000001234 becomes 0.0₅123.
func AbbreviateDecimal(v decimal.Decimal) string {
	s := v.StringFixedBank(9)
	ss := strings.Split(s, ".")
	if len(ss) == 1 {
		return s
	}

	fraction := ss[1]
	cnt := 0
	for _, c := range fraction {
		if c == '0' {
			cnt++
		} else {
			break
		}
	}

	const zero rune = '₀'
	if cnt >= 9 {
		fraction = fraction[:3]
	} else if cnt > 2 {
		fraction = fmt.Sprintf("0%s%s", string(zero+rune(cnt)), fraction[cnt:lo.Min([]int{9, cnt + 3})])
	} else {
		fraction = fraction[:cnt+3]
	}
	return fmt.Sprintf("%s.%s", ss[0], fraction)
}

// ToUiAmount converts raw base units into a decimal amount.
func ToUiAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}

// FromUiAmount converts a decimal amount into raw base units, truncating
// anything below one unit.
func FromUiAmount(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	raw := amount.Shift(int32(decimals)).Truncate(0)
	if !raw.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return raw.BigInt().Uint64(), nil
}

func FormatLamports(lamports uint64) string {
	return fmt.Sprintf("%s SOL", ToUiAmount(lamports, 9).String())
}

func FormatSignedLamports(lamports int64) string {
	d := decimal.NewFromInt(lamports).Shift(-9)
	if lamports > 0 {
		return fmt.Sprintf("+%s SOL", d.String())
	}
	return fmt.Sprintf("%s SOL", d.String())
}

// TrimSpace strips whitespace and the NUL padding of fixed-width on-chain strings.
func TrimSpace(s string) string {
	s = strings.TrimSpace(s)
	var m, n int

	for i := 0; i < len(s); i++ {
		if s[i] != 0 {
			m = i
			break
		}
	}

	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != 0 {
			n = i + 1
			break
		}
	}

	return s[m:n]
}
