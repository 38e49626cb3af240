// Package storage provides durable persistence for the ledger with pluggable
// backends.
//
// Each backend implements interfaces.LedgerStore: an atomically replaced
// state snapshot plus an append-only event journal for external monitors.
// Available backends:
//
//   - File system storage for local deployments and testing
//   - S3-compatible object storage for cloud deployments
//   - Vault KV v2 storage for environments that already run Vault
//
// # Store URI Format
//
// Stores are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/flightsurety
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=custom.s3.com
//   - vault://[TOKEN@]host:port/mount/path?tls=false
//
// The factory builds a single store from one URI, or a redundant MultiStore
// from several: snapshots and events are written to every reachable backend
// and loaded from the first one that has them.
package storage
