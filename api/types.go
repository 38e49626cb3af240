package api

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// CallerHeader carries the authenticated caller's hex address. The fronting
// proxy is trusted to set it; see the package documentation.
const CallerHeader = "X-Surety-Caller"

// OperationalResponse reports the contract-wide operational gate.
type OperationalResponse struct {
	Operational bool `json:"operational"`
}

// SetOperationalRequest flips the operational gate. Admin only.
type SetOperationalRequest struct {
	Mode bool `json:"mode"`
}

// AirlineStatusResponse reports an airline's membership state.
type AirlineStatusResponse struct {
	Registered bool `json:"registered"`
	Funded     bool `json:"funded"`
}

// AirlineCountResponse reports how many airlines are registered.
type AirlineCountResponse struct {
	Count uint64 `json:"count"`
}

// RegisterAirlineRequest nominates a candidate airline. Origin is the
// funded airline sponsoring the nomination; the caller (header) must be an
// authorized application contract.
type RegisterAirlineRequest struct {
	Origin    interfaces.Identity `json:"origin"`
	Candidate interfaces.Identity `json:"candidate"`
}

// RegisterAirlineResponse reports the outcome of a nomination: whether the
// candidate is now registered and how many votes it has accumulated.
type RegisterAirlineResponse struct {
	Registered bool   `json:"registered"`
	Votes      uint64 `json:"votes"`
}

// FundRequest submits an airline's registration ante. The caller header
// identifies the paying airline.
type FundRequest struct {
	Payment *hexutil.Big `json:"payment"`
}

// FundResponse reports a completed funding, including any overpayment
// returned to the airline.
type FundResponse struct {
	Funded bool         `json:"funded"`
	Refund *hexutil.Big `json:"refund,omitempty"`
}

// FlightRef identifies a flight by its airline, number and scheduled
// departure (unix seconds).
type FlightRef struct {
	Airline   interfaces.Identity `json:"airline"`
	Number    string              `json:"number"`
	Departure int64               `json:"departure"`
}

// Flight converts the wire form to the domain type.
func (f FlightRef) Flight() interfaces.Flight {
	return interfaces.Flight{Airline: f.Airline, Number: f.Number, Departure: f.Departure}
}

// BuyRequest purchases insurance on a flight for the caller (header).
type BuyRequest struct {
	Flight  FlightRef    `json:"flight"`
	Payment *hexutil.Big `json:"payment"`
}

// PolicyResponse reports a passenger's accumulated premium on one flight.
type PolicyResponse struct {
	Amount *hexutil.Big `json:"amount"`
}

// CreditInsureesRequest settles a flight, crediting every insured passenger
// multiplier/divider times their premium. The caller (header) must be an
// authorized application contract.
type CreditInsureesRequest struct {
	Flight     FlightRef `json:"flight"`
	Multiplier uint64    `json:"multiplier"`
	Divider    uint64    `json:"divider"`
}

// CreditInsureesResponse reports how many passengers were credited.
type CreditInsureesResponse struct {
	Insurees int `json:"insurees"`
}

// CreditResponse reports a passenger's withdrawable credit balance.
type CreditResponse struct {
	Credit *hexutil.Big `json:"credit"`
}

// PayResponse reports the amount paid out to the caller.
type PayResponse struct {
	Paid *hexutil.Big `json:"paid"`
}

// ErrorResponse is the JSON body returned on every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
