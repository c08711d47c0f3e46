package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/ppelicano/laokas-smart-contract/common"
)

// Handle is a transfer-capable token handle bound to the engine custody
// account.
type Handle interface {
	// Hash returns token identifier.
	Hash() util.Uint160
	// TransferFrom moves amount from owner to the custody account. The owner
	// must approve at least amount to the custody account beforehand.
	TransferFrom(owner util.Uint160, amount *big.Int) error
	// Transfer moves amount from the custody account to the recipient.
	Transfer(to util.Uint160, amount *big.Int) error
	// Decimals returns token precision.
	Decimals() (int, error)
	// BalanceOf returns token balance of the account.
	BalanceOf(owner util.Uint160) (*big.Int, error)
}

// Asset is a whitelisted token.
type Asset struct {
	Symbol   common.Symbol
	Hash     util.Uint160
	Decimals int

	// Handle is nil until the token handle is attached to the registry.
	Handle Handle
}

// Attached checks whether asset handle is available for transfers.
func (a Asset) Attached() bool {
	return a.Handle != nil
}

const (
	assetPrefix = 'a'
	listKey     = 'l'
)

// MaxDecimals is the highest supported token precision.
const MaxDecimals = 255

// ErrInvalidDecimals is returned for token precision out of [0, MaxDecimals].
var ErrInvalidDecimals = errors.New("invalid decimals")

// Registry maps token symbols to token handles. Asset records are kept in
// the storage while handles live in memory and are attached after every
// restart.
type Registry struct {
	owner util.Uint160

	mtx     sync.RWMutex
	handles map[util.Uint160]Handle
}

// New returns Registry mutable only by the given owner.
func New(owner util.Uint160) *Registry {
	return &Registry{
		owner:   owner,
		handles: make(map[util.Uint160]Handle),
	}
}

// Whitelist stores new asset record. It can be invoked only by the owner.
// Handle with the same hash must be attached separately.
func (r *Registry) Whitelist(ctx common.Context, caller util.Uint160, symbol common.Symbol, hash util.Uint160, decimals int) error {
	err := common.CheckOwnerWitness(r.owner, caller)
	if err != nil {
		return err
	}

	if decimals < 0 || decimals > MaxDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, decimals)
	}

	var rec record
	found, err := common.GetSerialized(ctx, assetKey(symbol), &rec)
	if err != nil {
		return fmt.Errorf("read asset record: %w", err)
	}
	if found {
		return fmt.Errorf("%w: %s", common.ErrAlreadyWhitelisted, symbol)
	}

	rec = record{symbol: symbol, hash: hash, decimals: decimals}
	err = common.SetSerialized(ctx, assetKey(symbol), rec)
	if err != nil {
		return fmt.Errorf("write asset record: %w", err)
	}

	return common.AppendToList(ctx, []byte{listKey}, symbol[:])
}

// Attach makes handle available for all assets with the same hash.
func (r *Registry) Attach(h Handle) {
	r.mtx.Lock()
	r.handles[h.Hash()] = h
	r.mtx.Unlock()
}

// Resolve returns whitelisted asset by symbol.
func (r *Registry) Resolve(ctx common.Context, symbol common.Symbol) (Asset, error) {
	var rec record
	found, err := common.GetSerialized(ctx, assetKey(symbol), &rec)
	if err != nil {
		return Asset{}, fmt.Errorf("read asset record: %w", err)
	}
	if !found {
		return Asset{}, fmt.Errorf("%w: %s", common.ErrUnknownAsset, symbol)
	}
	return r.asset(rec), nil
}

// List returns all whitelisted assets in order of registration.
func (r *Registry) List(ctx common.Context) ([]Asset, error) {
	symbols, err := common.GetList(ctx, []byte{listKey})
	if err != nil {
		return nil, fmt.Errorf("read asset list: %w", err)
	}

	res := make([]Asset, 0, len(symbols))
	for i := range symbols {
		symbol, err := common.SymbolFromBytes(symbols[i])
		if err != nil {
			return nil, err
		}

		a, err := r.Resolve(ctx, symbol)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

func (r *Registry) asset(rec record) Asset {
	r.mtx.RLock()
	h := r.handles[rec.hash]
	r.mtx.RUnlock()

	return Asset{
		Symbol:   rec.symbol,
		Hash:     rec.hash,
		Decimals: rec.decimals,
		Handle:   h,
	}
}

func assetKey(symbol common.Symbol) []byte {
	return common.Key(assetPrefix, symbol[:])
}

// record is a storage representation of Asset.
type record struct {
	symbol   common.Symbol
	hash     util.Uint160
	decimals int
}

// ToStackItem implements stackitem.Convertible.
func (x record) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(x.symbol[:]),
		stackitem.NewByteArray(x.hash.BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(x.decimals))),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (x *record) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 3 {
		return errors.New("invalid asset record")
	}

	b, err := arr[0].TryBytes()
	if err != nil {
		return fmt.Errorf("symbol: %w", err)
	}
	x.symbol, err = common.SymbolFromBytes(b)
	if err != nil {
		return err
	}

	b, err = arr[1].TryBytes()
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	x.hash, err = util.Uint160DecodeBytesBE(b)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	d, err := arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("decimals: %w", err)
	}
	if !d.IsInt64() {
		return errors.New("decimals: out of range")
	}
	x.decimals = int(d.Int64())

	return nil
}
