/*
Package token implements a simple fungible token kept in the neo-go storage.

The token supports allowances: an owner approves some amount to the spender,
which then moves funds on behalf of the owner with TransferFrom. Handle binds
the token to the engine custody account and is used by the asset registry.

Each token lives in its own storage namespace derived from the symbol, so
several tokens may share the store with the engines.
*/
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
)

const (
	balancePrefix   = 'b'
	allowancePrefix = 'a'
	supplyKey       = 's'
)

var (
	// ErrInsufficientFunds is returned when the sender has not enough tokens.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAllowance is returned when the spender is not allowed to
	// move the requested amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is a fungible token.
type Token struct {
	symbol   common.Symbol
	decimals int
	hash     util.Uint160

	mtx   sync.Mutex
	store storage.Store
}

// Hash returns token identifier for the given symbol.
func Hash(symbol common.Symbol) util.Uint160 {
	return hash.Hash160(append([]byte("token:"), symbol[:]...))
}

// New returns Token with the given symbol and precision kept in the store.
// Tokens with the same symbol share the state.
func New(store storage.Store, symbol common.Symbol, decimals int) *Token {
	return &Token{
		symbol:   symbol,
		decimals: decimals,
		hash:     Hash(symbol),
		store:    store,
	}
}

// Hash returns token identifier.
func (t *Token) Hash() util.Uint160 { return t.hash }

// Symbol returns token symbol.
func (t *Token) Symbol() common.Symbol { return t.symbol }

// Decimals returns token precision.
func (t *Token) Decimals() int { return t.decimals }

// Mint creates new tokens on the account.
func (t *Token) Mint(to util.Uint160, amount *big.Int) error {
	return t.invoke(func(ctx common.Context) error {
		if amount.Sign() <= 0 {
			return fmt.Errorf("%w: %s", common.ErrInvalidAmount, amount)
		}

		supply, err := common.GetInt(ctx, []byte{supplyKey})
		if err != nil {
			return err
		}
		bal, err := common.GetInt(ctx, balanceKey(to))
		if err != nil {
			return err
		}

		common.PutInt(ctx, []byte{supplyKey}, supply.Add(supply, amount))
		common.PutInt(ctx, balanceKey(to), bal.Add(bal, amount))
		return nil
	})
}

// Transfer moves tokens between accounts.
func (t *Token) Transfer(from, to util.Uint160, amount *big.Int) error {
	return t.invoke(func(ctx common.Context) error {
		return transfer(ctx, from, to, amount)
	})
}

// Approve sets amount the spender is allowed to move from the owner account.
// Zero amount revokes the allowance.
func (t *Token) Approve(owner, spender util.Uint160, amount *big.Int) error {
	return t.invoke(func(ctx common.Context) error {
		if amount.Sign() < 0 {
			return fmt.Errorf("%w: %s", common.ErrInvalidAmount, amount)
		}
		common.PutInt(ctx, allowanceKey(owner, spender), amount)
		return nil
	})
}

// Allowance returns amount the spender is allowed to move from the owner
// account.
func (t *Token) Allowance(owner, spender util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := t.read(func(ctx common.Context) (err error) {
		res, err = common.GetInt(ctx, allowanceKey(owner, spender))
		return err
	})
	return res, err
}

// TransferFrom moves tokens from the account on behalf of the spender and
// decreases the allowance.
func (t *Token) TransferFrom(spender, from, to util.Uint160, amount *big.Int) error {
	return t.invoke(func(ctx common.Context) error {
		allowed, err := common.GetInt(ctx, allowanceKey(from, spender))
		if err != nil {
			return err
		}
		if allowed.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s < %s", ErrInsufficientAllowance, allowed, amount)
		}

		err = transfer(ctx, from, to, amount)
		if err != nil {
			return err
		}

		common.PutInt(ctx, allowanceKey(from, spender), allowed.Sub(allowed, amount))
		return nil
	})
}

// BalanceOf returns token balance of the account.
func (t *Token) BalanceOf(acc util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := t.read(func(ctx common.Context) (err error) {
		res, err = common.GetInt(ctx, balanceKey(acc))
		return err
	})
	return res, err
}

// TotalSupply returns amount of all minted tokens.
func (t *Token) TotalSupply() (*big.Int, error) {
	var res *big.Int
	err := t.read(func(ctx common.Context) (err error) {
		res, err = common.GetInt(ctx, []byte{supplyKey})
		return err
	})
	return res, err
}

func transfer(ctx common.Context, from, to util.Uint160, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidAmount, amount)
	}

	fromBal, err := common.GetInt(ctx, balanceKey(from))
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientFunds, fromBal, amount)
	}
	common.PutInt(ctx, balanceKey(from), fromBal.Sub(fromBal, amount))

	toBal, err := common.GetInt(ctx, balanceKey(to))
	if err != nil {
		return err
	}
	common.PutInt(ctx, balanceKey(to), toBal.Add(toBal, amount))

	return nil
}

// invoke runs f over a private copy of the token state and persists it if f
// succeeds.
func (t *Token) invoke(f func(common.Context) error) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	cache := storage.NewMemCachedStore(t.store)

	err := f(common.NewContext(cache, t.hash.BytesBE()))
	if err != nil {
		return err
	}

	_, err = cache.Persist()
	if err != nil {
		return fmt.Errorf("persist token state: %w", err)
	}
	return nil
}

func (t *Token) read(f func(common.Context) error) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return f(common.NewContext(storage.NewMemCachedStore(t.store), t.hash.BytesBE()))
}

func balanceKey(acc util.Uint160) []byte {
	return common.Key(balancePrefix, acc.BytesBE())
}

func allowanceKey(owner, spender util.Uint160) []byte {
	return common.Key(allowancePrefix, owner.BytesBE(), spender.BytesBE())
}

// Handle is a token handle bound to the custody account.
type Handle struct {
	token   *Token
	custody util.Uint160
}

// Handle returns token handle moving funds to and from the custody account.
func (t *Token) Handle(custody util.Uint160) Handle {
	return Handle{
		token:   t,
		custody: custody,
	}
}

// Hash returns token identifier.
func (h Handle) Hash() util.Uint160 { return h.token.Hash() }

// Decimals returns token precision.
func (h Handle) Decimals() (int, error) { return h.token.Decimals(), nil }

// BalanceOf returns token balance of the account.
func (h Handle) BalanceOf(acc util.Uint160) (*big.Int, error) { return h.token.BalanceOf(acc) }

// TransferFrom moves amount from the owner to the custody account using
// allowance given to the custody account.
func (h Handle) TransferFrom(owner util.Uint160, amount *big.Int) error {
	return h.token.TransferFrom(h.custody, owner, h.custody, amount)
}

// Transfer moves amount from the custody account to the recipient.
func (h Handle) Transfer(to util.Uint160, amount *big.Int) error {
	return h.token.Transfer(h.custody, to, amount)
}
