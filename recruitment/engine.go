package recruitment

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/ledger"
	"github.com/ppelicano/laokas-smart-contract/metrics"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// DefaultInitialDepositUnits is a default amount of whole tokens pulled by
// the initial deposit.
const DefaultInitialDepositUnits = 1000

const (
	versionKey = 'v'
	ownerKey   = 'o'
	heightKey  = 'h'
)

// ErrOwnerMismatch is returned when the storage belongs to the engine of
// another owner.
var ErrOwnerMismatch = errors.New("engine owner mismatch")

// Prm groups parameters of the engine.
type Prm struct {
	// Writes invocation results into the log. Optional.
	Logger *zap.Logger

	// Engine state storage. Required.
	Store storage.Store

	// The only account allowed to whitelist tokens and withdraw funds.
	Owner util.Uint160

	// Engine name. Engines with different owners or names may share the
	// same Store.
	Name string

	// Whole tokens pulled by each initial deposit. Zero means
	// DefaultInitialDepositUnits.
	InitialDepositUnits int64

	// Allows final deposits with index not referencing any tranche of the
	// participant. Such deposits only increase the balance.
	LenientDepositIndex bool

	// Optional.
	Metrics *metrics.Collector

	// Receives events of the committed invocations. Optional.
	Observer Observer
}

// Engine is a deposit escrow engine.
type Engine struct {
	log      *zap.Logger
	metrics  *metrics.Collector
	observer Observer

	owner   util.Uint160
	name    string
	address util.Uint160
	ns      []byte

	initialUnits int64
	lenientIndex bool

	mtx      sync.Mutex
	store    storage.Store
	registry *registry.Registry
}

// CustodyAddress returns account holding tokens of the engine with the given
// owner and name.
func CustodyAddress(owner util.Uint160, name string) util.Uint160 {
	return hash.Hash160(append(owner.BytesBE(), name...))
}

// New opens the engine kept in the store. Fresh storage is initialized with
// the current version.
func New(prm Prm) (*Engine, error) {
	if prm.Store == nil {
		return nil, errors.New("missing engine store")
	}
	if prm.InitialDepositUnits < 0 {
		return nil, fmt.Errorf("negative initial deposit: %d", prm.InitialDepositUnits)
	}

	e := &Engine{
		log:          prm.Logger,
		metrics:      prm.Metrics,
		observer:     prm.Observer,
		owner:        prm.Owner,
		name:         prm.Name,
		address:      CustodyAddress(prm.Owner, prm.Name),
		initialUnits: prm.InitialDepositUnits,
		lenientIndex: prm.LenientDepositIndex,
		store:        prm.Store,
		registry:     registry.New(prm.Owner),
	}

	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.initialUnits == 0 {
		e.initialUnits = DefaultInitialDepositUnits
	}
	e.ns = e.address.BytesBE()
	e.log = e.log.With(zap.String("engine", e.name), zap.String("custody", address.Uint160ToString(e.address)))

	err := e.init()
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) init() error {
	cache := storage.NewMemCachedStore(e.store)
	ctx := common.NewContext(cache, e.ns)

	stored, err := ctx.Get([]byte{versionKey})
	if err != nil {
		return fmt.Errorf("read storage version: %w", err)
	}

	if stored == nil {
		common.PutInt(ctx, []byte{versionKey}, big.NewInt(common.Version))
		ctx.Put([]byte{ownerKey}, e.owner.BytesBE())

		_, err = cache.Persist()
		if err != nil {
			return fmt.Errorf("persist initial state: %w", err)
		}

		e.log.Info("engine initialized", zap.Int("version", common.Version))
		return nil
	}

	v := common.DecodeInt(stored)
	if !v.IsInt64() {
		return fmt.Errorf("invalid storage version %s", v)
	}
	err = common.CheckVersion(int(v.Int64()))
	if err != nil {
		return err
	}

	owner, err := ctx.Get([]byte{ownerKey})
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}
	storedOwner, err := util.Uint160DecodeBytesBE(owner)
	if err != nil || !storedOwner.Equals(e.owner) {
		return fmt.Errorf("%w: storage owner %x", ErrOwnerMismatch, owner)
	}

	if v.Int64() < common.Version {
		common.PutInt(ctx, []byte{versionKey}, big.NewInt(common.Version))
		_, err = cache.Persist()
		if err != nil {
			return fmt.Errorf("persist storage version: %w", err)
		}
		e.log.Info("engine storage updated", zap.Int64("from", v.Int64()), zap.Int("to", common.Version))
	}

	e.log.Debug("engine opened")
	return nil
}

// Owner returns engine owner.
func (e *Engine) Owner() util.Uint160 { return e.owner }

// Name returns engine name.
func (e *Engine) Name() string { return e.name }

// Address returns custody account of the engine.
func (e *Engine) Address() util.Uint160 { return e.address }

// Version returns version of the engine storage layout.
func (e *Engine) Version() int { return common.Version }

// Height returns number of committed invocations.
func (e *Engine) Height() (uint32, error) {
	var res uint32
	err := e.read(func(ctx common.Context) error {
		h, err := common.GetInt(ctx, []byte{heightKey})
		if err != nil {
			return err
		}
		res = uint32(h.Uint64())
		return nil
	})
	return res, err
}

// IterateStorage passes all engine storage items to f until it returns false.
// Keys are relative to the engine namespace.
func (e *Engine) IterateStorage(f func(key, value []byte) bool) error {
	return e.read(func(ctx common.Context) error {
		ctx.Iterate(nil, f)
		return nil
	})
}

// invocation is a state of the single engine method call.
type invocation struct {
	ctx    common.Context
	height uint32
	events []Event

	// run after the state is written.
	onCommit []func()
	// run when tokens were moved but the state could not be written.
	compensations []func() error

	// outgoing transfers, run after the state is written.
	payouts []func() error
	// undo the written state if a payout fails.
	reverts []func(common.Context) error
}

// invoke runs f atomically: the engine state is written only if f succeeds.
// Events are delivered after the engine is unlocked.
func (e *Engine) invoke(method string, caller util.Uint160, f func(*invocation) error) error {
	events, err := e.invokeLocked(method, caller, f)
	e.metrics.Operation(method, err)
	if err != nil {
		e.log.Warn("invocation rejected",
			zap.String("method", method),
			zap.String("caller", address.Uint160ToString(caller)),
			zap.Error(err))
		return err
	}

	if e.observer != nil {
		for i := range events {
			e.observer(events[i])
		}
	}
	return nil
}

func (e *Engine) invokeLocked(method string, caller util.Uint160, f func(*invocation) error) ([]Event, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	cache := storage.NewMemCachedStore(e.store)
	ctx := common.NewContext(cache, e.ns)

	h, err := common.GetInt(ctx, []byte{heightKey})
	if err != nil {
		return nil, fmt.Errorf("read height: %w", err)
	}

	inv := &invocation{
		ctx:    ctx,
		height: uint32(h.Uint64()) + 1,
	}

	e.log.Debug("invocation started",
		zap.String("method", method),
		zap.String("caller", address.Uint160ToString(caller)),
		zap.Uint32("height", inv.height))

	err = f(inv)
	if err != nil {
		return nil, err
	}

	common.PutInt(ctx, []byte{heightKey}, big.NewInt(int64(inv.height)))

	_, err = cache.Persist()
	if err != nil {
		err = fmt.Errorf("persist engine state: %w", err)
		e.compensate(method, inv)
		return nil, err
	}

	for _, pay := range inv.payouts {
		err = pay()
		if err != nil {
			e.revert(method, inv)
			return nil, fmt.Errorf("%w: %w", common.ErrTransferFailed, err)
		}
	}

	for _, f := range inv.onCommit {
		f()
	}

	return inv.events, nil
}

func (e *Engine) compensate(method string, inv *invocation) {
	for _, f := range inv.compensations {
		err := f()
		if err != nil {
			e.log.Error("failed to return tokens after aborted invocation",
				zap.String("method", method),
				zap.Uint32("height", inv.height),
				zap.Error(err))
		}
	}
}

// revert writes the state preceding the invocation back after a failed
// payout.
func (e *Engine) revert(method string, inv *invocation) {
	cache := storage.NewMemCachedStore(e.store)
	ctx := common.NewContext(cache, e.ns)

	for _, f := range inv.reverts {
		err := f(ctx)
		if err != nil {
			e.log.Error("failed to revert state after aborted payout",
				zap.String("method", method),
				zap.Uint32("height", inv.height),
				zap.Error(err))
			return
		}
	}

	common.PutInt(ctx, []byte{heightKey}, big.NewInt(int64(inv.height)-1))

	_, err := cache.Persist()
	if err != nil {
		e.log.Error("failed to persist reverted state after aborted payout",
			zap.String("method", method),
			zap.Uint32("height", inv.height),
			zap.Error(err))
	}
}

// read runs f over the current engine state. Changes made by f are dropped.
func (e *Engine) read(f func(common.Context) error) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	return f(common.NewContext(storage.NewMemCachedStore(e.store), e.ns))
}

// updateCustody reports custody total of the token after commit.
func (e *Engine) updateCustody(inv *invocation, a registry.Asset) {
	if e.metrics == nil {
		return
	}

	total, err := ledger.Total(inv.ctx, a.Symbol)
	if err != nil {
		return
	}

	inv.onCommit = append(inv.onCommit, func() {
		e.metrics.Custody(a.Symbol.String(), total, a.Decimals)
	})
}
