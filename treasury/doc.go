// Package treasury implements the funds-movement collaborator of the ledger.
//
// EscrowTreasury keeps the scheme's escrow pool: airline antes and passenger
// premiums flow in through Deposit, overpayments leave through Refund and
// settled credits through Payout. The ledger calls it strictly after its own
// bookkeeping has been committed.
//
// MockTreasury is a testify mock of the interfaces.Treasury contract for
// tests that assert on transfer ordering and amounts.
package treasury
