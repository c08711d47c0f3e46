/*
Package recruitment implements deposit escrow engine.

The engine owner whitelists fungible tokens. Participants deposit tokens in
two phases: the initial deposit pulls a fixed amount of tokens and opens a new
tranche with monthly refund percentages, final deposits pull the rest of the
participant commitment into the tranche. The owner withdraws deposited funds
from the participant balance.

Every method runs as a single atomic invocation: the state is written only
when all checks and token transfers succeeded. Token transfers are performed
last; if the state can't be written afterwards, pulled tokens are returned to
the participant.

Engine notifications

Events are passed to the observer after the invocation state is written.

Whitelist notification. This notification is produced when new token is
whitelisted by the owner.

	Whitelist:
	  - name: symbol
	    type: ByteArray
	  - name: hash
	    type: Hash160
	  - name: decimals
	    type: Integer

InitialDeposit notification. This notification is produced when participant
opens new tranche.

	InitialDeposit:
	  - name: participant
	    type: Hash160
	  - name: symbol
	    type: ByteArray
	  - name: amount
	    type: Integer
	  - name: index
	    type: Integer
	  - name: month1
	    type: Integer
	  - name: month2
	    type: Integer

FinalDeposit notification. This notification is produced when participant
funds the tranche.

	FinalDeposit:
	  - name: participant
	    type: Hash160
	  - name: symbol
	    type: ByteArray
	  - name: amount
	    type: Integer
	  - name: index
	    type: Integer

Withdraw notification. This notification is produced when the owner withdraws
tokens from the participant balance.

	Withdraw:
	  - name: participant
	    type: Hash160
	  - name: symbol
	    type: ByteArray
	  - name: amount
	    type: Integer
	  - name: recipient
	    type: Hash160
*/
package recruitment
