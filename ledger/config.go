package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/params"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// DefaultVotingThreshold is the registered-airline count at which admission
// switches from direct registration to threshold voting.
const DefaultVotingThreshold = 4

var (
	// DefaultRegistrationAnte is the minimum funding payment (10 whole units)
	// an airline must make before it can originate registrations or votes.
	DefaultRegistrationAnte = new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether))

	// DefaultInsuranceCap bounds a single policy at one whole unit.
	DefaultInsuranceCap = big.NewInt(params.Ether)
)

// Config parameterizes a Ledger instance.
type Config struct {
	// Admin is the administrative identity allowed to flip the operational
	// gate and manage the caller whitelist.
	Admin interfaces.Identity

	// FirstAirline is pre-registered (unfunded) in the genesis state.
	FirstAirline interfaces.Identity

	// RegistrationAnte overrides DefaultRegistrationAnte when non-nil.
	RegistrationAnte *big.Int

	// InsuranceCap overrides DefaultInsuranceCap when non-nil.
	InsuranceCap *big.Int

	// VotingThreshold overrides DefaultVotingThreshold when positive.
	VotingThreshold uint64
}

func (cfg *Config) withDefaults() (Config, error) {
	out := *cfg
	if out.Admin.IsZero() {
		return out, errors.New("admin identity is required")
	}
	if out.FirstAirline.IsZero() {
		return out, errors.New("first airline identity is required")
	}
	if out.RegistrationAnte == nil {
		out.RegistrationAnte = DefaultRegistrationAnte
	}
	if out.InsuranceCap == nil {
		out.InsuranceCap = DefaultInsuranceCap
	}
	if out.VotingThreshold == 0 {
		out.VotingThreshold = DefaultVotingThreshold
	}
	if out.RegistrationAnte.Sign() <= 0 || out.InsuranceCap.Sign() <= 0 {
		return out, errors.New("ante and insurance cap must be positive")
	}
	return out, nil
}
