package recruitment

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/ledger"
	"github.com/ppelicano/laokas-smart-contract/refund"
)

// Tranche is a tranche of the participant refund schedule.
type Tranche struct {
	Index uint32
	refund.Entry
	// Amount deposited into the tranche including the initial deposit.
	Funded *big.Int
	State  refund.State
}

// Account is a participant balance.
type Account struct {
	Participant util.Uint160
	Balance     *big.Int
}

// BalanceOf returns amount of tokens deposited by the participant and not
// withdrawn yet.
func (e *Engine) BalanceOf(participant util.Uint160, symbol common.Symbol) (*big.Int, error) {
	var res *big.Int
	err := e.read(func(ctx common.Context) (err error) {
		res, err = ledger.BalanceOf(ctx, participant, symbol)
		return err
	})
	return res, err
}

// TotalCustody returns sum of all participant balances of the token.
func (e *Engine) TotalCustody(symbol common.Symbol) (*big.Int, error) {
	var res *big.Int
	err := e.read(func(ctx common.Context) (err error) {
		res, err = ledger.Total(ctx, symbol)
		return err
	})
	return res, err
}

// Accounts returns all participants with non-zero balance of the token.
func (e *Engine) Accounts(symbol common.Symbol) ([]Account, error) {
	var res []Account
	err := e.read(func(ctx common.Context) error {
		return ledger.Accounts(ctx, symbol, func(p util.Uint160, balance *big.Int) bool {
			res = append(res, Account{Participant: p, Balance: balance})
			return true
		})
	})
	return res, err
}

// RefundSchedule returns all refund entries of the participant in order of
// initial deposits.
func (e *Engine) RefundSchedule(participant util.Uint160, symbol common.Symbol) ([]refund.Entry, error) {
	var res []refund.Entry
	err := e.read(func(ctx common.Context) (err error) {
		res, err = refund.List(ctx, participant, symbol)
		return err
	})
	return res, err
}

// LatestRefund returns refund entry of the last initial deposit and its index.
func (e *Engine) LatestRefund(participant util.Uint160, symbol common.Symbol) (refund.Entry, uint32, error) {
	var (
		res refund.Entry
		idx uint32
	)
	err := e.read(func(ctx common.Context) (err error) {
		res, idx, err = refund.Latest(ctx, participant, symbol)
		return err
	})
	return res, idx, err
}

// Tranche returns tranche of the participant by index.
func (e *Engine) Tranche(participant util.Uint160, symbol common.Symbol, idx uint32) (Tranche, error) {
	var res Tranche
	err := e.read(func(ctx common.Context) error {
		entry, err := refund.Get(ctx, participant, symbol, idx)
		if err != nil {
			return err
		}

		funded, err := refund.Funding(ctx, participant, symbol, idx)
		if err != nil {
			return err
		}

		res = Tranche{
			Index:  idx,
			Entry:  entry,
			Funded: funded,
			State:  refund.StateOf(entry, funded),
		}
		return nil
	})
	return res, err
}

// RefundPlan returns monthly refund amounts of the tranche.
func (e *Engine) RefundPlan(participant util.Uint160, symbol common.Symbol, idx uint32) ([refund.Months]*big.Int, error) {
	t, err := e.Tranche(participant, symbol, idx)
	if err != nil {
		return [refund.Months]*big.Int{}, err
	}
	return refund.Plan(t.Entry, t.Funded), nil
}
