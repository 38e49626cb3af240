// Package interfaces defines core interfaces and types for the flight-delay
// insurance ledger, separating interface definitions from implementations.
//
// The package provides the contracts between the ledger core and its
// collaborators:
//
// # Ledger Types
//
// Identity: 20-byte account address used as the key for airlines, passengers,
// authorized callers and the administrative identity.
//
// Flight: the (airline, flight number, departure timestamp) triple that
// identifies an insurable flight. Two flights are the same entity iff all
// three fields match exactly.
//
// FlightKey: collision-resistant 32-byte digest deterministically derived
// from a Flight (Keccak-256 over the packed triple).
//
// # Collaborator Interfaces
//
// Treasury: moves funds in and out of the escrow pool. The ledger invokes it
// strictly after bookkeeping state has been committed, so a re-entering
// caller always observes post-commit state.
//
// LedgerStore: durable persistence for ledger snapshots and the append-only
// event journal. Implementations live in the storage package (file, S3,
// Vault, multi-store).
//
// # Rejection Errors
//
// Every failure mode of the ledger surfaces as one of the sentinel errors in
// errors.go; a failed call leaves ledger state unchanged.
package interfaces
