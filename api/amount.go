package api

import (
	"fmt"
	"math/big"

	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/shopspring/decimal"
)

// toUnits converts amount of whole tokens into the smallest token fractions.
func toUnits(d decimal.Decimal, decimals int) (*big.Int, error) {
	v := d.Shift(int32(decimals))
	if !v.IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", common.ErrInvalidAmount, d, decimals)
	}
	return v.BigInt(), nil
}

func fromUnits(v *big.Int, decimals int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(decimals))
}
