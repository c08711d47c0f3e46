package recruitment

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/refund"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"github.com/ppelicano/laokas-smart-contract/token"
	"github.com/stretchr/testify/require"
)

func TestWhitelist(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.engine.Resolve(dai)
	require.NoError(t, err)
	require.Equal(t, dai, a.Symbol)
	require.Equal(t, env.dai.Hash(), a.Hash)
	require.Equal(t, daiDecimals, a.Decimals)
	require.True(t, a.Attached())

	err = env.engine.Whitelist(owner, dai, env.dai.Handle(env.engine.Address()), 6)
	require.ErrorIs(t, err, common.ErrAlreadyWhitelisted)

	usdtToken := token.New(env.store, usdt, 6)
	err = env.engine.Whitelist(alice, usdt, usdtToken.Handle(env.engine.Address()), 6)
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = env.engine.Resolve(usdt)
	require.ErrorIs(t, err, common.ErrUnknownAsset)

	err = env.engine.Whitelist(owner, usdt, nil, 6)
	require.Error(t, err)

	// declared precision is kept even if the token reports another one
	require.NoError(t, env.engine.Whitelist(owner, usdt, usdtToken.Handle(env.engine.Address()), 8))

	l, err := env.engine.Assets()
	require.NoError(t, err)
	require.Len(t, l, 2)
	require.Equal(t, dai, l[0].Symbol)
	require.Equal(t, usdt, l[1].Symbol)
	require.Equal(t, 8, l[1].Decimals)

	v, err := env.engine.InitialDepositAmount(usdt)
	require.NoError(t, err)
	require.Zero(t, common.Units(1000, 8).Cmp(v))

	_, err = env.engine.InitialDepositAmount(common.MustSymbol("BTC"))
	require.ErrorIs(t, err, common.ErrUnknownAsset)
}

func TestInitialDeposit(t *testing.T) {
	env := newTestEnv(t)

	env.approve(t, alice, dais(1000))

	idx, err := env.engine.SetInitialDeposit(alice, dai, 30, 20)
	require.NoError(t, err)
	require.Zero(t, idx)

	env.requireBalance(t, alice, dais(1000))
	env.requireTokens(t, alice, dais(999_000))

	e, latest, err := env.engine.LatestRefund(alice, dai)
	require.NoError(t, err)
	require.Zero(t, latest)
	require.EqualValues(t, 30, e.Month1)
	require.EqualValues(t, 20, e.Month2)
	require.EqualValues(t, 50, e.Month3())

	tr, err := env.engine.Tranche(alice, dai, idx)
	require.NoError(t, err)
	require.Equal(t, refund.Staged, tr.State)
	require.Zero(t, dais(1000).Cmp(tr.Funded))

	env.requireCustody(t)
}

func TestInitialDeposit_Rejected(t *testing.T) {
	env := newTestEnv(t)

	requireUnchanged := func(t *testing.T) {
		env.requireBalance(t, alice, new(big.Int))
		env.requireTokens(t, alice, dais(1_000_000))
		env.requireTokens(t, env.engine.Address(), new(big.Int))

		_, _, err := env.engine.LatestRefund(alice, dai)
		require.ErrorIs(t, err, common.ErrNoSchedule)
	}

	t.Run("no allowance", func(t *testing.T) {
		_, err := env.engine.SetInitialDeposit(alice, dai, 30, 20)
		require.ErrorIs(t, err, common.ErrTransferFailed)
		require.ErrorIs(t, err, token.ErrInsufficientAllowance)
		requireUnchanged(t)
	})

	t.Run("low allowance", func(t *testing.T) {
		env.approve(t, alice, dais(999))
		_, err := env.engine.SetInitialDeposit(alice, dai, 30, 20)
		require.ErrorIs(t, err, common.ErrTransferFailed)
		requireUnchanged(t)
	})

	env.approve(t, alice, dais(1000))

	t.Run("invalid schedule", func(t *testing.T) {
		for _, pcts := range [][2]int64{{60, 41}, {-1, 0}, {0, -1}, {101, 0}} {
			_, err := env.engine.SetInitialDeposit(alice, dai, pcts[0], pcts[1])
			require.ErrorIs(t, err, common.ErrInvalidSchedule)
		}
		requireUnchanged(t)
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := env.engine.SetInitialDeposit(alice, usdt, 30, 20)
		require.ErrorIs(t, err, common.ErrUnknownAsset)
		requireUnchanged(t)
	})

	t.Run("no funds", func(t *testing.T) {
		carol := util.Uint160{0xC0}
		require.NoError(t, env.dai.Approve(carol, env.engine.Address(), dais(1000)))

		_, err := env.engine.SetInitialDeposit(carol, dai, 30, 20)
		require.ErrorIs(t, err, common.ErrTransferFailed)
		require.ErrorIs(t, err, token.ErrInsufficientFunds)
		requireUnchanged(t)
	})
}

func TestFinalDeposit(t *testing.T) {
	env := newTestEnv(t)

	env.approve(t, alice, dais(1000))
	idx, err := env.engine.SetInitialDeposit(alice, dai, 50, 20)
	require.NoError(t, err)

	env.approve(t, alice, dais(24000))
	require.NoError(t, env.engine.SetFinalDeposit(alice, dai, dais(24000), idx))

	env.requireBalance(t, alice, dais(25000))
	env.requireTokens(t, alice, dais(975_000))

	tr, err := env.engine.Tranche(alice, dai, idx)
	require.NoError(t, err)
	require.Equal(t, refund.Settled, tr.State)
	require.Zero(t, dais(25000).Cmp(tr.Funded))
	require.Equal(t, [refund.Months]int64{50, 20, 30}, tr.Percentages())

	plan, err := env.engine.RefundPlan(alice, dai, idx)
	require.NoError(t, err)
	require.Zero(t, dais(12500).Cmp(plan[0]))
	require.Zero(t, dais(5000).Cmp(plan[1]))
	require.Zero(t, dais(7500).Cmp(plan[2]))

	// repeated final deposit adds to the same tranche
	env.approve(t, alice, dais(1000))
	require.NoError(t, env.engine.SetFinalDeposit(alice, dai, dais(1000), idx))

	tr, err = env.engine.Tranche(alice, dai, idx)
	require.NoError(t, err)
	require.Zero(t, dais(26000).Cmp(tr.Funded))
	env.requireBalance(t, alice, dais(26000))

	env.requireCustody(t)
}

func TestFinalDeposit_Rejected(t *testing.T) {
	env := newTestEnv(t)

	env.approve(t, alice, dais(1000))
	idx, err := env.engine.SetInitialDeposit(alice, dai, 50, 20)
	require.NoError(t, err)

	requireUnchanged := func(t *testing.T) {
		env.requireBalance(t, alice, dais(1000))
		env.requireTokens(t, alice, dais(999_000))
		env.requireCustody(t)

		tr, err := env.engine.Tranche(alice, dai, idx)
		require.NoError(t, err)
		require.Equal(t, refund.Staged, tr.State)
	}

	env.approve(t, alice, dais(24000))

	t.Run("wrong index", func(t *testing.T) {
		err := env.engine.SetFinalDeposit(alice, dai, dais(24000), idx+1)
		require.ErrorIs(t, err, common.ErrScheduleMismatch)
		requireUnchanged(t)
	})

	t.Run("foreign tranche", func(t *testing.T) {
		err := env.engine.SetFinalDeposit(bob, dai, dais(1), idx)
		require.ErrorIs(t, err, common.ErrScheduleMismatch)
		requireUnchanged(t)
	})

	t.Run("invalid amount", func(t *testing.T) {
		for _, amount := range []*big.Int{nil, new(big.Int), big.NewInt(-1)} {
			err := env.engine.SetFinalDeposit(alice, dai, amount, idx)
			require.ErrorIs(t, err, common.ErrInvalidAmount)
		}
		requireUnchanged(t)
	})

	t.Run("unknown asset", func(t *testing.T) {
		err := env.engine.SetFinalDeposit(alice, usdt, dais(24000), idx)
		require.ErrorIs(t, err, common.ErrUnknownAsset)
		requireUnchanged(t)
	})

	t.Run("low allowance", func(t *testing.T) {
		err := env.engine.SetFinalDeposit(alice, dai, dais(24001), idx)
		require.ErrorIs(t, err, common.ErrTransferFailed)
		requireUnchanged(t)
	})
}

func TestFinalDeposit_LenientIndex(t *testing.T) {
	env := newTestEnv(t, withLenientIndex)

	env.approve(t, alice, dais(1000))
	idx, err := env.engine.SetInitialDeposit(alice, dai, 50, 20)
	require.NoError(t, err)

	env.approve(t, alice, dais(24000))
	require.NoError(t, env.engine.SetFinalDeposit(alice, dai, dais(24000), idx+7))

	env.requireBalance(t, alice, dais(25000))
	env.requireCustody(t)

	tr, err := env.engine.Tranche(alice, dai, idx)
	require.NoError(t, err)
	require.Equal(t, refund.Staged, tr.State)
	require.Zero(t, dais(1000).Cmp(tr.Funded))

	// amount is still checked
	err = env.engine.SetFinalDeposit(alice, dai, new(big.Int), idx+7)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestDeposit_MultipleTranches(t *testing.T) {
	env := newTestEnv(t)

	env.approve(t, alice, dais(1000))
	first, err := env.engine.SetInitialDeposit(alice, dai, 50, 20)
	require.NoError(t, err)

	env.approve(t, alice, dais(24000))
	require.NoError(t, env.engine.SetFinalDeposit(alice, dai, dais(24000), first))

	env.approve(t, alice, dais(1000))
	second, err := env.engine.SetInitialDeposit(alice, dai, 30, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, second)

	schedule, err := env.engine.RefundSchedule(alice, dai)
	require.NoError(t, err)
	require.Len(t, schedule, 2)
	require.Equal(t, [refund.Months]int64{50, 20, 30}, schedule[0].Percentages())
	require.Equal(t, [refund.Months]int64{30, 20, 50}, schedule[1].Percentages())

	e, latest, err := env.engine.LatestRefund(alice, dai)
	require.NoError(t, err)
	require.Equal(t, second, latest)
	require.EqualValues(t, 50, e.Month3())

	tr, err := env.engine.Tranche(alice, dai, first)
	require.NoError(t, err)
	require.Equal(t, refund.Settled, tr.State)
	tr, err = env.engine.Tranche(alice, dai, second)
	require.NoError(t, err)
	require.Equal(t, refund.Staged, tr.State)

	env.requireBalance(t, alice, dais(26000))

	env.approve(t, bob, dais(1000))
	_, err = env.engine.SetInitialDeposit(bob, dai, 0, 0)
	require.NoError(t, err)

	schedule, err = env.engine.RefundSchedule(bob, dai)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	require.EqualValues(t, 100, schedule[0].Month3())

	accounts, err := env.engine.Accounts(dai)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	env.requireCustody(t)
}

func TestDeposit_CustomInitialAmount(t *testing.T) {
	env := newTestEnv(t, func(prm *Prm) { prm.InitialDepositUnits = 5 })

	v, err := env.engine.InitialDepositAmount(dai)
	require.NoError(t, err)
	require.Zero(t, dais(5).Cmp(v))

	env.approve(t, alice, dais(5))
	_, err = env.engine.SetInitialDeposit(alice, dai, 30, 20)
	require.NoError(t, err)
	env.requireBalance(t, alice, dais(5))
}

// brokenHandle fails to transfer funds.
type brokenHandle struct {
	registry.Handle
}

var errBroken = errors.New("broken token")

func (brokenHandle) TransferFrom(util.Uint160, *big.Int) error { return errBroken }
func (brokenHandle) Transfer(util.Uint160, *big.Int) error { return errBroken }

func TestDeposit_BrokenHandle(t *testing.T) {
	st := storage.NewMemoryStore()
	e, err := New(Prm{Store: st, Owner: owner})
	require.NoError(t, err)

	tok := token.New(st, dai, daiDecimals)
	require.NoError(t, e.Whitelist(owner, dai, brokenHandle{tok.Handle(e.Address())}, daiDecimals))

	_, err = e.SetInitialDeposit(alice, dai, 30, 20)
	require.ErrorIs(t, err, common.ErrTransferFailed)
	require.ErrorIs(t, err, errBroken)

	_, _, err = e.LatestRefund(alice, dai)
	require.ErrorIs(t, err, common.ErrNoSchedule)

	v, err := e.TotalCustody(dai)
	require.NoError(t, err)
	require.Zero(t, v.Sign())
}
