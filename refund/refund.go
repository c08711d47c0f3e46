/*
Package refund keeps monthly refund schedules of the participants.

Every initial deposit appends a new immutable entry (a tranche) to the
schedule of the (participant, token) pair. The entry holds refund percentages
of the first two months, the third month takes the rest up to 100%. Amounts
deposited into the tranche are accumulated separately, so entries are never
rewritten.
*/
package refund

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/ppelicano/laokas-smart-contract/common"
)

const (
	entryPrefix   = 'r'
	countPrefix   = 'n'
	fundingPrefix = 'f'
)

// Months is a number of months in the refund schedule.
const Months = 3

// Entry is a single tranche of the refund schedule.
type Entry struct {
	// Refund percentages of the first and the second months.
	Month1, Month2 int64
	// Amount of the initial deposit which opened the tranche.
	Initial *big.Int
}

// Month3 returns refund percentage of the last month.
func (e Entry) Month3() int64 {
	return 100 - e.Month1 - e.Month2
}

// Percentages returns refund percentages of all months.
func (e Entry) Percentages() [Months]int64 {
	return [Months]int64{e.Month1, e.Month2, e.Month3()}
}

// State is a state of the tranche.
type State uint8

const (
	// Staged tranche has only initial deposit.
	Staged State = iota
	// Settled tranche received at least one final deposit.
	Settled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Staged:
		return "staged"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Validate checks monthly refund percentages.
func Validate(month1, month2 int64) error {
	if month1 < 0 || month2 < 0 || month1 > 100 || month2 > 100-month1 {
		return fmt.Errorf("%w: %d, %d", common.ErrInvalidSchedule, month1, month2)
	}
	return nil
}

// Record appends new tranche to the schedule of the participant and returns
// its index. Initial amount is also counted as the tranche funding.
func Record(ctx common.Context, p util.Uint160, s common.Symbol, month1, month2 int64, initial *big.Int) (uint32, error) {
	err := Validate(month1, month2)
	if err != nil {
		return 0, err
	}

	n, err := Len(ctx, p, s)
	if err != nil {
		return 0, err
	}
	if n == math.MaxUint32 {
		return 0, errors.New("too many tranches")
	}

	err = common.SetSerialized(ctx, entryKey(p, s, n), Entry{
		Month1:  month1,
		Month2:  month2,
		Initial: initial,
	})
	if err != nil {
		return 0, fmt.Errorf("write refund entry: %w", err)
	}

	common.PutInt(ctx, countKey(p, s), big.NewInt(int64(n)+1))
	common.PutInt(ctx, fundingKey(p, s, n), initial)

	return n, nil
}

// Len returns number of tranches in the schedule.
func Len(ctx common.Context, p util.Uint160, s common.Symbol) (uint32, error) {
	n, err := common.GetInt(ctx, countKey(p, s))
	if err != nil {
		return 0, fmt.Errorf("read tranche count: %w", err)
	}
	return uint32(n.Uint64()), nil
}

// Get returns tranche by index. ErrScheduleMismatch is returned for indices
// out of the schedule.
func Get(ctx common.Context, p util.Uint160, s common.Symbol, idx uint32) (Entry, error) {
	var e Entry
	found, err := common.GetSerialized(ctx, entryKey(p, s, idx), &e)
	if err != nil {
		return e, fmt.Errorf("read refund entry: %w", err)
	}
	if !found {
		return e, fmt.Errorf("%w: tranche %d", common.ErrScheduleMismatch, idx)
	}
	return e, nil
}

// Latest returns the last recorded tranche and its index.
func Latest(ctx common.Context, p util.Uint160, s common.Symbol) (Entry, uint32, error) {
	n, err := Len(ctx, p, s)
	if err != nil {
		return Entry{}, 0, err
	}
	if n == 0 {
		return Entry{}, 0, fmt.Errorf("%w: %s", common.ErrNoSchedule, s)
	}

	e, err := Get(ctx, p, s, n-1)
	return e, n - 1, err
}

// List returns all tranches in order of recording.
func List(ctx common.Context, p util.Uint160, s common.Symbol) ([]Entry, error) {
	n, err := Len(ctx, p, s)
	if err != nil {
		return nil, err
	}

	res := make([]Entry, n)
	for i := range res {
		res[i], err = Get(ctx, p, s, uint32(i))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// AddFunding increases amount deposited into the tranche.
func AddFunding(ctx common.Context, p util.Uint160, s common.Symbol, idx uint32, amount *big.Int) error {
	v, err := Funding(ctx, p, s, idx)
	if err != nil {
		return err
	}
	common.PutInt(ctx, fundingKey(p, s, idx), v.Add(v, amount))
	return nil
}

// Funding returns total amount deposited into the tranche.
func Funding(ctx common.Context, p util.Uint160, s common.Symbol, idx uint32) (*big.Int, error) {
	v, err := common.GetInt(ctx, fundingKey(p, s, idx))
	if err != nil {
		return nil, fmt.Errorf("read tranche funding: %w", err)
	}
	return v, nil
}

// StateOf returns tranche state according to its funding.
func StateOf(e Entry, funded *big.Int) State {
	if funded.Cmp(e.Initial) > 0 {
		return Settled
	}
	return Staged
}

// Plan splits funded amount into monthly refunds. The last month takes the
// remainder, so the sum of the plan always equals funded.
func Plan(e Entry, funded *big.Int) [Months]*big.Int {
	var res [Months]*big.Int

	hundred := big.NewInt(100)
	rest := new(big.Int).Set(funded)
	pcts := e.Percentages()
	for i := 0; i < Months-1; i++ {
		res[i] = new(big.Int).Mul(funded, big.NewInt(pcts[i]))
		res[i].Quo(res[i], hundred)
		rest.Sub(rest, res[i])
	}
	res[Months-1] = rest

	return res
}

func accountKey(p util.Uint160, s common.Symbol) []byte {
	return append(p.BytesBE(), s[:]...)
}

func entryKey(p util.Uint160, s common.Symbol, idx uint32) []byte {
	return common.Key(entryPrefix, accountKey(p, s), binary.BigEndian.AppendUint32(nil, idx))
}

func countKey(p util.Uint160, s common.Symbol) []byte {
	return common.Key(countPrefix, accountKey(p, s))
}

func fundingKey(p util.Uint160, s common.Symbol, idx uint32) []byte {
	return common.Key(fundingPrefix, accountKey(p, s), binary.BigEndian.AppendUint32(nil, idx))
}

// ToStackItem implements stackitem.Convertible.
func (e Entry) ToStackItem() (stackitem.Item, error) {
	initial := e.Initial
	if initial == nil {
		initial = new(big.Int)
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(big.NewInt(e.Month1)),
		stackitem.NewBigInteger(big.NewInt(e.Month2)),
		stackitem.NewBigInteger(initial),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (e *Entry) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 3 {
		return errors.New("invalid refund entry")
	}

	var fields [3]*big.Int
	for i := range arr {
		v, err := arr[i].TryInteger()
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		fields[i] = v
	}

	if !fields[0].IsInt64() || !fields[1].IsInt64() {
		return errors.New("percentage out of range")
	}

	e.Month1 = fields[0].Int64()
	e.Month2 = fields[1].Int64()
	e.Initial = fields[2]
	return nil
}
