package recruitment

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
)

// Event names.
const (
	EventWhitelist      = "Whitelist"
	EventInitialDeposit = "InitialDeposit"
	EventFinalDeposit   = "FinalDeposit"
	EventWithdraw       = "Withdraw"
)

// Event is a notification produced by the committed invocation. Fields not
// related to the event are zero.
type Event struct {
	ID     uuid.UUID
	Name   string
	Height uint32

	Symbol      common.Symbol
	Participant util.Uint160
	Amount      *big.Int

	// InitialDeposit and FinalDeposit.
	Index uint32
	// InitialDeposit.
	Month1, Month2 int64

	// Whitelist.
	Hash     util.Uint160
	Decimals int

	// Withdraw.
	Recipient util.Uint160
}

// Observer receives engine events. It is called synchronously after the
// invocation finishes.
type Observer func(Event)

func (x *invocation) notify(ev Event) {
	ev.ID = uuid.New()
	ev.Height = x.height
	x.events = append(x.events, ev)
}
