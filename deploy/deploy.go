package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/metrics"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// AssetPrm groups parameters of the token served by the engine.
type AssetPrm struct {
	Symbol   common.Symbol
	Decimals int

	// Token handle bound to the engine custody account, see
	// recruitment.CustodyAddress.
	Handle registry.Handle
}

// Prm groups all parameters of the engine deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Engine state storage, see OpenStore.
	Store storage.Store

	Owner util.Uint160
	Name  string

	InitialDepositUnits int64
	LenientDepositIndex bool

	Metrics  *metrics.Collector
	Observer recruitment.Observer

	// Tokens to be served by the engine. Missing tokens are whitelisted on
	// behalf of the owner, already whitelisted ones are checked and bound to
	// the handles.
	Assets []AssetPrm
}

// ErrAssetMismatch is returned when the configured token differs from the
// whitelisted one.
var ErrAssetMismatch = errors.New("configured token differs from the whitelisted one")

// Deploy opens the engine kept in Prm.Store and makes it ready to serve all
// configured tokens.
//
// Deploy is idempotent: running it over the already deployed engine with the
// same tokens only binds token handles.
func Deploy(ctx context.Context, prm Prm) (*recruitment.Engine, error) {
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	e, err := recruitment.New(recruitment.Prm{
		Logger:              prm.Logger,
		Store:               prm.Store,
		Owner:               prm.Owner,
		Name:                prm.Name,
		InitialDepositUnits: prm.InitialDepositUnits,
		LenientDepositIndex: prm.LenientDepositIndex,
		Metrics:             prm.Metrics,
		Observer:            prm.Observer,
	})
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	prm.Logger.Info("engine opened",
		zap.String("name", prm.Name),
		zap.String("owner", address.Uint160ToString(prm.Owner)),
		zap.String("custody", address.Uint160ToString(e.Address())))

	for i := range prm.Assets {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		err = syncAsset(prm.Logger, e, prm.Assets[i])
		if err != nil {
			return nil, fmt.Errorf("sync token %s: %w", prm.Assets[i].Symbol, err)
		}
	}

	prm.Logger.Info("engine successfully deployed", zap.Int("tokens", len(prm.Assets)))

	return e, nil
}

func syncAsset(l *zap.Logger, e *recruitment.Engine, a AssetPrm) error {
	if a.Handle == nil {
		return errors.New("missing token handle")
	}

	existing, err := e.Resolve(a.Symbol)
	if err != nil {
		if !errors.Is(err, common.ErrUnknownAsset) {
			return err
		}

		l.Info("whitelisting token...", zap.Stringer("symbol", a.Symbol))

		return e.Whitelist(e.Owner(), a.Symbol, a.Handle, a.Decimals)
	}

	if existing.Decimals != a.Decimals {
		return fmt.Errorf("%w: decimals %d, whitelisted %d", ErrAssetMismatch, a.Decimals, existing.Decimals)
	}
	if !existing.Hash.Equals(a.Handle.Hash()) {
		return fmt.Errorf("%w: hash %s, whitelisted %s", ErrAssetMismatch,
			address.Uint160ToString(a.Handle.Hash()), address.Uint160ToString(existing.Hash))
	}

	e.Attach(a.Handle)

	l.Debug("token handle attached", zap.Stringer("symbol", a.Symbol))

	return nil
}
