package common

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// CheckOwnerWitness checks that the caller is the owner. It returns
// ErrUnauthorized on fail.
func CheckOwnerWitness(owner, caller util.Uint160) error {
	if !owner.Equals(caller) {
		return fmt.Errorf("%w: caller %s", ErrUnauthorized, address.Uint160ToString(caller))
	}
	return nil
}
