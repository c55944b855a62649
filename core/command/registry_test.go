package command_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/cqrs/core/command"
)

type RegistryTestCommand struct {
	ID string
}

type OtherCommand struct {
	Data string
}

func noopHandler[C any](t *testing.T) command.Handler {
	t.Helper()
	return command.NewHandlerFunc(func(ctx context.Context, cmd C) (string, error) {
		return "ok", nil
	})
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("binds each command type once", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		require.NoError(t, registry.Register(noopHandler[RegistryTestCommand](t)))
		require.NoError(t, registry.Register(noopHandler[OtherCommand](t)))
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		require.NoError(t, registry.Register(noopHandler[RegistryTestCommand](t)))

		err := registry.Register(noopHandler[RegistryTestCommand](t))
		assert.ErrorIs(t, err, command.ErrDuplicateHandler)
	})

	t.Run("rejects registration after freeze", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		registry.Freeze()

		err := registry.Register(noopHandler[RegistryTestCommand](t))
		assert.ErrorIs(t, err, command.ErrRegistryFrozen)
	})

	t.Run("must register panics on duplicate", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		registry.MustRegister(noopHandler[RegistryTestCommand](t))

		assert.Panics(t, func() {
			registry.MustRegister(noopHandler[RegistryTestCommand](t))
		})
	})
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves registered handler with config", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		require.NoError(t, registry.Register(
			noopHandler[RegistryTestCommand](t),
			command.WithMaxRetries(7),
		))
		registry.Freeze()

		reg, err := registry.Resolve("RegistryTestCommand")
		require.NoError(t, err)
		assert.Equal(t, "RegistryTestCommand", reg.Handler.Name())
		assert.Equal(t, 7, reg.Config.MaxRetries)
	})

	t.Run("unknown command fails", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		registry.Freeze()

		_, err := registry.Resolve("Nope")
		assert.ErrorIs(t, err, command.ErrHandlerNotFound)
	})

	t.Run("frozen registry is safe for concurrent resolution", func(t *testing.T) {
		t.Parallel()

		registry := command.NewRegistry()
		require.NoError(t, registry.Register(noopHandler[RegistryTestCommand](t)))
		registry.Freeze()

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 200 {
					_, err := registry.Resolve("RegistryTestCommand")
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()
	})
}

func TestWithMaxRetriesZeroDisables(t *testing.T) {
	t.Parallel()

	registry := command.NewRegistry()
	require.NoError(t, registry.Register(
		noopHandler[RegistryTestCommand](t),
		command.WithMaxRetries(0),
	))
	registry.Freeze()

	reg, err := registry.Resolve("RegistryTestCommand")
	require.NoError(t, err)
	assert.Equal(t, command.NoRetries, reg.Config.MaxRetries)
}
