package recruitment

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/ledger"
	"github.com/ppelicano/laokas-smart-contract/refund"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// SetInitialDeposit pulls the initial amount of tokens from the participant
// and opens new tranche with the given refund percentages of the first two
// months. Participant must approve the initial amount to the custody
// account beforehand. Returns index of the tranche.
func (e *Engine) SetInitialDeposit(participant util.Uint160, symbol common.Symbol, month1, month2 int64) (uint32, error) {
	var idx uint32

	err := e.invoke(EventInitialDeposit, participant, func(inv *invocation) error {
		a, err := e.resolveAttached(inv.ctx, symbol)
		if err != nil {
			return err
		}

		amount := e.initialAmount(a)

		idx, err = refund.Record(inv.ctx, participant, symbol, month1, month2, amount)
		if err != nil {
			return err
		}

		err = ledger.Credit(inv.ctx, participant, symbol, amount)
		if err != nil {
			return err
		}

		err = e.pull(inv, a, participant, amount)
		if err != nil {
			return err
		}

		e.updateCustody(inv, a)
		inv.onCommit = append(inv.onCommit, func() {
			e.log.Info("initial deposit",
				zap.String("participant", address.Uint160ToString(participant)),
				zap.Stringer("symbol", symbol),
				zap.String("amount", common.FormatAmount(amount, a.Decimals)),
				zap.Uint32("tranche", idx),
				zap.Int64("month1", month1),
				zap.Int64("month2", month2))
		})

		inv.notify(Event{
			Name:        EventInitialDeposit,
			Symbol:      symbol,
			Participant: participant,
			Amount:      amount,
			Index:       idx,
			Month1:      month1,
			Month2:      month2,
		})

		return nil
	})

	return idx, err
}

// SetFinalDeposit pulls amount of tokens from the participant into the
// tranche with the given index. Participant must approve the amount to the
// custody account beforehand.
func (e *Engine) SetFinalDeposit(participant util.Uint160, symbol common.Symbol, amount *big.Int, idx uint32) error {
	return e.invoke(EventFinalDeposit, participant, func(inv *invocation) error {
		err := checkAmount(amount)
		if err != nil {
			return err
		}

		a, err := e.resolveAttached(inv.ctx, symbol)
		if err != nil {
			return err
		}

		_, err = refund.Get(inv.ctx, participant, symbol, idx)
		switch {
		case err == nil:
			err = refund.AddFunding(inv.ctx, participant, symbol, idx, amount)
			if err != nil {
				return err
			}
		case errors.Is(err, common.ErrScheduleMismatch) && e.lenientIndex:
			e.log.Debug("final deposit without tranche",
				zap.String("participant", address.Uint160ToString(participant)),
				zap.Uint32("index", idx))
		default:
			return err
		}

		err = ledger.Credit(inv.ctx, participant, symbol, amount)
		if err != nil {
			return err
		}

		err = e.pull(inv, a, participant, amount)
		if err != nil {
			return err
		}

		e.updateCustody(inv, a)
		inv.onCommit = append(inv.onCommit, func() {
			e.log.Info("final deposit",
				zap.String("participant", address.Uint160ToString(participant)),
				zap.Stringer("symbol", symbol),
				zap.String("amount", common.FormatAmount(amount, a.Decimals)),
				zap.Uint32("tranche", idx))
		})

		inv.notify(Event{
			Name:        EventFinalDeposit,
			Symbol:      symbol,
			Participant: participant,
			Amount:      new(big.Int).Set(amount),
			Index:       idx,
		})

		return nil
	})
}

// pull moves tokens from the participant to the custody account. It must be
// the last step of the invocation.
func (e *Engine) pull(inv *invocation, a registry.Asset, from util.Uint160, amount *big.Int) error {
	err := a.Handle.TransferFrom(from, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
	}

	inv.compensations = append(inv.compensations, func() error {
		return a.Handle.Transfer(from, amount)
	})
	return nil
}

func (e *Engine) resolveAttached(ctx common.Context, symbol common.Symbol) (registry.Asset, error) {
	a, err := e.registry.Resolve(ctx, symbol)
	if err != nil {
		return a, err
	}
	if !a.Attached() {
		return a, fmt.Errorf("%w: no handle attached for %s", common.ErrTransferFailed, symbol)
	}
	return a, nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %v", common.ErrInvalidAmount, amount)
	}
	return nil
}
