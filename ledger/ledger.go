// Package ledger keeps participant balances of the whitelisted tokens along
// with per-token custody totals.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
)

const (
	balancePrefix = 'b'
	totalPrefix   = 't'
)

// Credit increases balance of the participant.
func Credit(ctx common.Context, p util.Uint160, s common.Symbol, amount *big.Int) error {
	bal, err := BalanceOf(ctx, p, s)
	if err != nil {
		return err
	}
	total, err := Total(ctx, s)
	if err != nil {
		return err
	}

	common.PutInt(ctx, balanceKey(p, s), bal.Add(bal, amount))
	common.PutInt(ctx, totalKey(s), total.Add(total, amount))
	return nil
}

// Debit decreases balance of the participant. Balance is left untouched if
// it is less than amount.
func Debit(ctx common.Context, p util.Uint160, s common.Symbol, amount *big.Int) error {
	bal, err := BalanceOf(ctx, p, s)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", common.ErrInsufficientBalance, bal, amount)
	}

	total, err := Total(ctx, s)
	if err != nil {
		return err
	}

	common.PutInt(ctx, balanceKey(p, s), bal.Sub(bal, amount))
	common.PutInt(ctx, totalKey(s), total.Sub(total, amount))
	return nil
}

// BalanceOf returns balance of the participant.
func BalanceOf(ctx common.Context, p util.Uint160, s common.Symbol) (*big.Int, error) {
	v, err := common.GetInt(ctx, balanceKey(p, s))
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return v, nil
}

// Total returns sum of all participant balances of the token.
func Total(ctx common.Context, s common.Symbol) (*big.Int, error) {
	v, err := common.GetInt(ctx, totalKey(s))
	if err != nil {
		return nil, fmt.Errorf("read custody total: %w", err)
	}
	return v, nil
}

// Accounts passes all participants with non-zero balance of the token to f.
func Accounts(ctx common.Context, s common.Symbol, f func(p util.Uint160, balance *big.Int) bool) error {
	var iterErr error
	prefix := []byte{balancePrefix}
	ctx.Iterate(prefix, func(k, v []byte) bool {
		k = k[len(prefix):]
		if len(k) != util.Uint160Size+common.SymbolLen || string(k[util.Uint160Size:]) != string(s[:]) {
			return true
		}

		p, err := util.Uint160DecodeBytesBE(k[:util.Uint160Size])
		if err != nil {
			iterErr = fmt.Errorf("decode participant: %w", err)
			return false
		}
		return f(p, common.DecodeInt(v))
	})
	return iterErr
}

func balanceKey(p util.Uint160, s common.Symbol) []byte {
	return common.Key(balancePrefix, p.BytesBE(), s[:])
}

func totalKey(s common.Symbol) []byte {
	return common.Key(totalPrefix, s[:])
}
