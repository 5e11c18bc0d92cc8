package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/store"
)

// FileStore opens a store in a fresh temp directory and closes it on cleanup.
func FileStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// MemoryStore opens a private in-memory store and closes it on cleanup.
func MemoryStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// FileFacade returns a facade over a FileStore with sequential operation ids.
func FileFacade(t testing.TB, policy access.Policy) *access.Facade[*store.Tx] {
	t.Helper()
	ctrl := access.NewAdmissionController(
		access.WithPolicy(policy),
		access.WithIDGenerator(access.NewSequenceGenerator("op")),
	)
	return access.NewFacade[*store.Tx](FileStore(t), access.WithController(ctrl))
}

// MemoryFacade returns a facade over a MemoryStore with sequential operation
// ids.
func MemoryFacade(t testing.TB, policy access.Policy) *access.Facade[*store.Tx] {
	t.Helper()
	ctrl := access.NewAdmissionController(
		access.WithPolicy(policy),
		access.WithIDGenerator(access.NewSequenceGenerator("op")),
	)
	return access.NewFacade[*store.Tx](MemoryStore(t), access.WithController(ctrl))
}
