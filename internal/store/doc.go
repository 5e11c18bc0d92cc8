// Package store provides the SQLite-backed persistence container for ledger
// records.
//
// The store is a generic record table keyed by (kind, id). Payloads are JSON
// documents owned by the callers (repositories); the store never interprets
// them. Every put bumps the record's version so a lost update can be detected.
//
// # Contexts
//
// Store.NewContext opens a fresh transaction (Tx) per operation. A Tx is
// never shared between operations and does no locking of its own: callers go
// through the access facade, which guarantees that at most one write context
// is open at a time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during a write
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds (unscheduled contexts)
//   - foreign_keys=ON
//
// Settings are passed in the DSN so every pooled connection gets them.
//
// Keys are NFC-normalized, so visually identical kinds and ids written with
// different Unicode compositions address the same record.
package store
