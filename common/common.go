// Package common holds identification and logging helpers shared by every
// binary in the flight-delay insurance ledger service.
package common

// PackageName tags metrics and logs emitted by this service.
const PackageName = "flightsurety-backend"

// Version is set at build time via -ldflags.
var Version = "dev"
