package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// EventType names a state-changing ledger operation in the audit journal.
type EventType string

const (
	EventOperationalStatusChanged EventType = "operational_status_changed"
	EventCallerAuthorized         EventType = "caller_authorized"
	EventCallerDeauthorized       EventType = "caller_deauthorized"
	EventAirlineVoteRecorded      EventType = "airline_vote_recorded"
	EventAirlineRegistered        EventType = "airline_registered"
	EventAirlineFunded            EventType = "airline_funded"
	EventInsurancePurchased       EventType = "insurance_purchased"
	EventInsureesCredited         EventType = "insurees_credited"
	EventPayoutExecuted           EventType = "payout_executed"
)

// Event is one record of the append-only audit journal. One event is written
// per committed state-changing call; external monitors tail the journal.
type Event struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Type EventType `json:"type"`

	Caller  interfaces.Identity  `json:"caller"`
	Subject *interfaces.Identity `json:"subject,omitempty"`

	FlightKey *interfaces.FlightKey `json:"flight_key,omitempty"`

	Amount *hexutil.Big `json:"amount,omitempty"`
	Refund *hexutil.Big `json:"refund,omitempty"`

	Votes      uint64 `json:"votes,omitempty"`
	Multiplier uint64 `json:"multiplier,omitempty"`
	Divider    uint64 `json:"divider,omitempty"`
	Insurees   int    `json:"insurees,omitempty"`

	Mode *bool `json:"mode,omitempty"`
}
