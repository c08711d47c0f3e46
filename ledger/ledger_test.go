package ledger

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = util.Uint160{0xA1}
	bob   = util.Uint160{0xB0}
	dai   = common.MustSymbol("DAI")
	usdt  = common.MustSymbol("USDT")
)

func newTestContext() common.Context {
	return common.NewContext(storage.NewMemCachedStore(storage.NewMemoryStore()), []byte{0x01})
}

func requireBalance(t *testing.T, ctx common.Context, p util.Uint160, s common.Symbol, exp int64) {
	v, err := BalanceOf(ctx, p, s)
	require.NoError(t, err)
	require.EqualValues(t, exp, v.Int64())
}

func requireTotal(t *testing.T, ctx common.Context, s common.Symbol, exp int64) {
	v, err := Total(ctx, s)
	require.NoError(t, err)
	require.EqualValues(t, exp, v.Int64())
}

func TestCreditDebit(t *testing.T) {
	ctx := newTestContext()

	requireBalance(t, ctx, alice, dai, 0)
	requireTotal(t, ctx, dai, 0)

	require.NoError(t, Credit(ctx, alice, dai, big.NewInt(1000)))
	require.NoError(t, Credit(ctx, alice, dai, big.NewInt(24000)))
	require.NoError(t, Credit(ctx, bob, dai, big.NewInt(500)))
	require.NoError(t, Credit(ctx, alice, usdt, big.NewInt(7)))

	requireBalance(t, ctx, alice, dai, 25000)
	requireBalance(t, ctx, bob, dai, 500)
	requireBalance(t, ctx, alice, usdt, 7)
	requireTotal(t, ctx, dai, 25500)
	requireTotal(t, ctx, usdt, 7)

	require.NoError(t, Debit(ctx, alice, dai, big.NewInt(10000)))
	requireBalance(t, ctx, alice, dai, 15000)
	requireTotal(t, ctx, dai, 15500)

	err := Debit(ctx, bob, dai, big.NewInt(501))
	require.ErrorIs(t, err, common.ErrInsufficientBalance)
	requireBalance(t, ctx, bob, dai, 500)
	requireTotal(t, ctx, dai, 15500)

	require.NoError(t, Debit(ctx, bob, dai, big.NewInt(500)))
	requireBalance(t, ctx, bob, dai, 0)
	requireTotal(t, ctx, dai, 15000)
}

func TestDebit_Empty(t *testing.T) {
	ctx := newTestContext()

	err := Debit(ctx, alice, dai, big.NewInt(1))
	require.ErrorIs(t, err, common.ErrInsufficientBalance)
	requireBalance(t, ctx, alice, dai, 0)
}

func TestCredit_Huge(t *testing.T) {
	ctx := newTestContext()
	v := common.Units(1_000_000, 18)

	require.NoError(t, Credit(ctx, alice, dai, v))
	require.NoError(t, Credit(ctx, alice, dai, v))

	bal, err := BalanceOf(ctx, alice, dai)
	require.NoError(t, err)
	require.Zero(t, bal.Cmp(common.Units(2_000_000, 18)))
}

func TestAccounts(t *testing.T) {
	ctx := newTestContext()

	require.NoError(t, Credit(ctx, alice, dai, big.NewInt(1)))
	require.NoError(t, Credit(ctx, bob, dai, big.NewInt(2)))
	require.NoError(t, Credit(ctx, bob, usdt, big.NewInt(3)))

	res := make(map[util.Uint160]int64)
	err := Accounts(ctx, dai, func(p util.Uint160, balance *big.Int) bool {
		res[p] = balance.Int64()
		return true
	})
	require.NoError(t, err)
	require.Equal(t, map[util.Uint160]int64{alice: 1, bob: 2}, res)

	sum := new(big.Int)
	require.NoError(t, Accounts(ctx, dai, func(_ util.Uint160, balance *big.Int) bool {
		sum.Add(sum, balance)
		return true
	}))
	total, err := Total(ctx, dai)
	require.NoError(t, err)
	require.Zero(t, sum.Cmp(total))
}
