package deploy

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/config"
	"github.com/ppelicano/laokas-smart-contract/token"
	"go.uber.org/zap"
)

// SandboxTokens opens configured sandbox tokens kept in the store and returns
// them together with the engine assets bound to the custody account. Holder
// balances are minted only into tokens without supply, so the holders are
// funded once per store.
func SandboxTokens(l *zap.Logger, st storage.Store, custody util.Uint160, cfg config.SandboxConfig) ([]AssetPrm, map[common.Symbol]*token.Token, error) {
	if l == nil {
		l = zap.NewNop()
	}

	assets := make([]AssetPrm, 0, len(cfg.Tokens))
	tokens := make(map[common.Symbol]*token.Token, len(cfg.Tokens))

	for i := range cfg.Tokens {
		tc := cfg.Tokens[i]
		tok := token.New(st, tc.Symbol, tc.Decimals)

		supply, err := tok.TotalSupply()
		if err != nil {
			return nil, nil, fmt.Errorf("token %s: read total supply: %w", tc.Symbol, err)
		}

		if supply.Sign() == 0 {
			for addr, units := range tc.Holders {
				acc, err := address.StringToUint160(addr)
				if err != nil {
					return nil, nil, fmt.Errorf("token %s: decode holder %q: %w", tc.Symbol, addr, err)
				}

				err = tok.Mint(acc, common.Units(units, tc.Decimals))
				if err != nil {
					return nil, nil, fmt.Errorf("token %s: mint to %s: %w", tc.Symbol, addr, err)
				}
			}

			l.Info("sandbox token minted",
				zap.Stringer("symbol", tc.Symbol),
				zap.Int("holders", len(tc.Holders)))
		}

		tokens[tc.Symbol] = tok
		assets = append(assets, AssetPrm{
			Symbol:   tc.Symbol,
			Decimals: tc.Decimals,
			Handle:   tok.Handle(custody),
		})
	}

	return assets, tokens, nil
}
