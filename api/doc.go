/*
Package api defines the wire types shared by the ledger server and its
clients, plus an HTTP client for every entry point.

# Caller Identity

The service runs behind a trusted front end that authenticates callers and
forwards the caller's 20-byte address in the X-Surety-Caller header. The
client sets the header from the identity it was constructed with; the server
never trusts a request without it on authenticated routes.

# Amounts

All monetary amounts travel as hex-encoded big integers (hexutil.Big) in base
units, where 10^18 base units equal one whole unit.
*/
package api
