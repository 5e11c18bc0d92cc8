package bootstrap

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/store"
)

// Facade is the access facade over the SQLite store.
type Facade = access.Facade[*store.Tx]

// Container is anything that can hand out store contexts.
type Container = access.Container[*store.Tx]

// ExitUnconfigured is the process exit status used by Access when nothing
// is configured.
const ExitUnconfigured = 2

var (
	mu        sync.Mutex
	installed *Facade

	// exit terminates the process. Replaced only by in-package tests.
	exit = os.Exit
)

// Configure builds a new facade bound to container and installs it,
// replacing any previous one.
func Configure(container Container, opts ...access.FacadeOption) *Facade {
	f := access.NewFacade(container, opts...)
	install(f)
	return f
}

// ConfigureIfNeeded installs a facade bound to container only if none is
// installed yet, and returns whichever facade is installed afterwards.
// Safe to call from several startup paths.
func ConfigureIfNeeded(container Container, opts ...access.FacadeOption) *Facade {
	mu.Lock()
	defer mu.Unlock()
	if installed == nil {
		installed = access.NewFacade(container, opts...)
	}
	return installed
}

// Access returns the installed facade.
//
// If nothing is installed the process exits with ExitUnconfigured.
func Access() *Facade {
	mu.Lock()
	f := installed
	mu.Unlock()

	if f == nil {
		slog.Error("bootstrap: store access requested before Configure")
		exit(ExitUnconfigured)
	}
	return f
}

// Configured reports whether a facade is installed.
func Configured() bool {
	mu.Lock()
	defer mu.Unlock()
	return installed != nil
}

// ResetConfigurationForTesting clears the installed facade so the next test
// can install an isolated container.
//
// Panics outside test binaries.
func ResetConfigurationForTesting() {
	if !testing.Testing() {
		panic("bootstrap: ResetConfigurationForTesting called outside a test binary")
	}
	install(nil)
}

func install(f *Facade) {
	mu.Lock()
	defer mu.Unlock()
	installed = f
}
