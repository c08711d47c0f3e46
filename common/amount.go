package common

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
)

// Units returns given number of whole tokens in the smallest token fractions.
func Units(units int64, decimals int) *big.Int {
	res := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return res.Mul(res, big.NewInt(units))
}

// FormatAmount returns human-readable amount of tokens with given precision.
func FormatAmount(amount *big.Int, decimals int) string {
	return fixedn.ToString(amount, decimals)
}
