// Package bootstrap owns the process-wide access facade.
//
// New code should build an App once at startup and pass it (or its Facade
// and Ledger) to whoever needs store access. The package-level Configure /
// Access pair remains for call sites that cannot be threaded an App; it holds
// at most one facade for the life of the process.
//
// Using the singleton before it is configured is a programming error: Access
// logs and exits the process rather than returning a facade bound to nothing.
package bootstrap
