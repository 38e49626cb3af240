/*
Package httpserver exposes the ledger over HTTP.

The server wires a chi router with request logging, health and drain
endpoints, an optional pprof mount, and a standalone Prometheus metrics
listener. The handler translates requests into ledger entry points and maps
the ledger's sentinel errors to HTTP status codes:

  - gate closed: 503
  - caller not authorized: 401
  - state conflicts (not registered, already funded, duplicate vote,
    policy limit, no credit): 409
  - insufficient payment and malformed input: 400

Caller identity arrives in the X-Surety-Caller header, set by a trusted
fronting proxy.
*/
package httpserver
