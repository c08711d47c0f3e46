package recruitment

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/ledger"
	"go.uber.org/zap"
)

// Withdraw moves amount of tokens deposited by the participant from the
// custody account to the owner. Only the engine owner can withdraw tokens.
// The debit is written before the tokens leave custody and is reverted if
// the transfer fails.
func (e *Engine) Withdraw(caller, participant util.Uint160, symbol common.Symbol, amount *big.Int) error {
	return e.invoke(EventWithdraw, caller, func(inv *invocation) error {
		err := common.CheckOwnerWitness(e.owner, caller)
		if err != nil {
			return err
		}

		err = checkAmount(amount)
		if err != nil {
			return err
		}

		a, err := e.resolveAttached(inv.ctx, symbol)
		if err != nil {
			return err
		}

		err = ledger.Debit(inv.ctx, participant, symbol, amount)
		if err != nil {
			return err
		}

		inv.payouts = append(inv.payouts, func() error {
			return a.Handle.Transfer(caller, amount)
		})
		inv.reverts = append(inv.reverts, func(ctx common.Context) error {
			return ledger.Credit(ctx, participant, symbol, amount)
		})

		e.updateCustody(inv, a)
		inv.onCommit = append(inv.onCommit, func() {
			e.log.Info("withdraw",
				zap.String("participant", address.Uint160ToString(participant)),
				zap.Stringer("symbol", symbol),
				zap.String("amount", common.FormatAmount(amount, a.Decimals)))
		})

		inv.notify(Event{
			Name:        EventWithdraw,
			Symbol:      symbol,
			Participant: participant,
			Amount:      new(big.Int).Set(amount),
			Recipient:   caller,
		})

		return nil
	})
}
