package recruitment

import (
	"errors"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// Whitelist registers token with the given symbol and precision. Only the
// engine owner can whitelist tokens.
func (e *Engine) Whitelist(caller util.Uint160, symbol common.Symbol, h registry.Handle, decimals int) error {
	return e.invoke(EventWhitelist, caller, func(inv *invocation) error {
		if h == nil {
			return errors.New("missing token handle")
		}

		err := e.registry.Whitelist(inv.ctx, caller, symbol, h.Hash(), decimals)
		if err != nil {
			return err
		}

		e.checkDecimals(symbol, h, decimals)

		inv.onCommit = append(inv.onCommit, func() {
			e.registry.Attach(h)
			e.log.Info("token whitelisted",
				zap.Stringer("symbol", symbol),
				zap.String("hash", address.Uint160ToString(h.Hash())),
				zap.Int("decimals", decimals))
		})

		inv.notify(Event{
			Name:     EventWhitelist,
			Symbol:   symbol,
			Hash:     h.Hash(),
			Decimals: decimals,
		})

		return nil
	})
}

func (e *Engine) checkDecimals(symbol common.Symbol, h registry.Handle, decimals int) {
	actual, err := h.Decimals()
	if err != nil {
		e.log.Warn("failed to get token decimals", zap.Stringer("symbol", symbol), zap.Error(err))
		return
	}
	if actual != decimals {
		e.log.Warn("token decimals differ from the declared ones",
			zap.Stringer("symbol", symbol),
			zap.Int("declared", decimals),
			zap.Int("token", actual))
	}
}

// Attach binds token handle to the whitelisted tokens with the same hash.
// Handles are kept in memory only, so they must be attached every time the
// engine is opened.
func (e *Engine) Attach(h registry.Handle) {
	e.registry.Attach(h)
}

// Resolve returns whitelisted token.
func (e *Engine) Resolve(symbol common.Symbol) (registry.Asset, error) {
	var res registry.Asset
	err := e.read(func(ctx common.Context) (err error) {
		res, err = e.registry.Resolve(ctx, symbol)
		return err
	})
	return res, err
}

// Assets returns all whitelisted tokens in order of whitelisting.
func (e *Engine) Assets() ([]registry.Asset, error) {
	var res []registry.Asset
	err := e.read(func(ctx common.Context) (err error) {
		res, err = e.registry.List(ctx)
		return err
	})
	return res, err
}

// InitialDepositAmount returns amount of tokens pulled by the initial
// deposit.
func (e *Engine) InitialDepositAmount(symbol common.Symbol) (*big.Int, error) {
	a, err := e.Resolve(symbol)
	if err != nil {
		return nil, err
	}
	return e.initialAmount(a), nil
}

func (e *Engine) initialAmount(a registry.Asset) *big.Int {
	return common.Units(e.initialUnits, a.Decimals)
}
