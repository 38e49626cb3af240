package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// airlineProfile tracks the two role flags of a registered airline.
// Funded implies Registered; profiles are never deleted.
type airlineProfile struct {
	Registered bool `json:"registered"`
	Funded     bool `json:"funded"`
}

// flightPool holds the insurance bookkeeping for one flight: the per-passenger
// policy amounts and the append-only roster of insured passengers. A passenger
// appears in the roster at most once, appended on the first nonzero purchase.
type flightPool struct {
	Roster   []interfaces.Identity                `json:"roster"`
	Policies map[interfaces.Identity]*hexutil.Big `json:"policies"`
	Flight   interfaces.Flight                    `json:"flight"`
}

// ledgerState is the full durable state of the ledger. It serializes to JSON
// for snapshots; identities and flight keys marshal as hex strings, amounts
// as hexutil quantities.
type ledgerState struct {
	Seq               uint64                                         `json:"seq"`
	Operational       bool                                           `json:"operational"`
	AuthorizedCallers map[interfaces.Identity]bool                   `json:"authorized_callers"`
	Airlines          map[interfaces.Identity]*airlineProfile        `json:"airlines"`
	RegisteredCount   uint64                                         `json:"registered_count"`
	Approvals         map[interfaces.Identity][]interfaces.Identity  `json:"approvals"`
	Flights           map[interfaces.FlightKey]*flightPool           `json:"flights"`
	Credits           map[interfaces.Identity]*hexutil.Big           `json:"credits"`
}

// genesisState builds the initial ledger state: gate open, the first airline
// registered and unfunded, registered count of one.
func genesisState(cfg Config) *ledgerState {
	return &ledgerState{
		Operational:       true,
		AuthorizedCallers: make(map[interfaces.Identity]bool),
		Airlines: map[interfaces.Identity]*airlineProfile{
			cfg.FirstAirline: {Registered: true},
		},
		RegisteredCount: 1,
		Approvals:       make(map[interfaces.Identity][]interfaces.Identity),
		Flights:         make(map[interfaces.FlightKey]*flightPool),
		Credits:         make(map[interfaces.Identity]*hexutil.Big),
	}
}

// clone produces a deep copy used as the mutation target of a transactional
// entry point. The copy shares nothing with the receiver.
func (s *ledgerState) clone() *ledgerState {
	out := &ledgerState{
		Seq:               s.Seq,
		Operational:       s.Operational,
		AuthorizedCallers: make(map[interfaces.Identity]bool, len(s.AuthorizedCallers)),
		Airlines:          make(map[interfaces.Identity]*airlineProfile, len(s.Airlines)),
		RegisteredCount:   s.RegisteredCount,
		Approvals:         make(map[interfaces.Identity][]interfaces.Identity, len(s.Approvals)),
		Flights:           make(map[interfaces.FlightKey]*flightPool, len(s.Flights)),
		Credits:           make(map[interfaces.Identity]*hexutil.Big, len(s.Credits)),
	}

	for id, v := range s.AuthorizedCallers {
		out.AuthorizedCallers[id] = v
	}
	for id, p := range s.Airlines {
		cp := *p
		out.Airlines[id] = &cp
	}
	for id, voters := range s.Approvals {
		out.Approvals[id] = append([]interfaces.Identity(nil), voters...)
	}
	for key, pool := range s.Flights {
		cp := &flightPool{
			Roster:   append([]interfaces.Identity(nil), pool.Roster...),
			Policies: make(map[interfaces.Identity]*hexutil.Big, len(pool.Policies)),
			Flight:   pool.Flight,
		}
		for passenger, amount := range pool.Policies {
			cp.Policies[passenger] = copyAmount(amount)
		}
		out.Flights[key] = cp
	}
	for id, amount := range s.Credits {
		out.Credits[id] = copyAmount(amount)
	}
	return out
}

func (s *ledgerState) marshal() ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalState(data []byte) (*ledgerState, error) {
	s := &ledgerState{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("corrupt ledger snapshot: %w", err)
	}
	if s.AuthorizedCallers == nil {
		s.AuthorizedCallers = make(map[interfaces.Identity]bool)
	}
	if s.Airlines == nil {
		s.Airlines = make(map[interfaces.Identity]*airlineProfile)
	}
	if s.Approvals == nil {
		s.Approvals = make(map[interfaces.Identity][]interfaces.Identity)
	}
	if s.Flights == nil {
		s.Flights = make(map[interfaces.FlightKey]*flightPool)
	}
	if s.Credits == nil {
		s.Credits = make(map[interfaces.Identity]*hexutil.Big)
	}
	return s, nil
}

// policyAmount returns a copy of the passenger's policy amount on the given
// flight, or zero when no policy exists.
func (s *ledgerState) policyAmount(key interfaces.FlightKey, passenger interfaces.Identity) *big.Int {
	pool, ok := s.Flights[key]
	if !ok {
		return new(big.Int)
	}
	amount, ok := pool.Policies[passenger]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(amount))
}

// creditAmount returns a copy of the passenger's withdrawable credit, or zero.
func (s *ledgerState) creditAmount(passenger interfaces.Identity) *big.Int {
	amount, ok := s.Credits[passenger]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(amount))
}

func copyAmount(x *hexutil.Big) *hexutil.Big {
	if x == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(new(big.Int).Set((*big.Int)(x)))
}

func toAmount(x *big.Int) *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(x))
}
