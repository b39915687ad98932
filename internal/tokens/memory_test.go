package tokens

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Тесты MemStore: базовые операции, изоляция снапшотов, конкурентный доступ.

func TestMemStore_Basic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Credentials(ctx)
	require.ErrorIs(t, err, ErrNoCredentials)

	require.ErrorIs(t, s.SaveCredentials(ctx, &Credentials{AccessToken: "a"}), ErrIncompletePair)

	require.NoError(t, s.SaveCredentials(ctx, &Credentials{AccessToken: "a", RefreshToken: "r"}))
	creds, err := s.Credentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", creds.AccessToken)

	require.NoError(t, s.ClearCredentials(ctx))
	_, err = s.Credentials(ctx)
	require.ErrorIs(t, err, ErrNoCredentials)
}

// TestMemStore_SnapshotIsolation — мутация возвращённой пары не влияет на хранилище.
func TestMemStore_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.SaveCredentials(ctx, &Credentials{AccessToken: "a", RefreshToken: "r"}))

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	got.AccessToken = "mutated"

	again, err := s.Credentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", again.AccessToken)
}

func TestMemStore_DeviceID_StableUnderConcurrency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()

	const n = 32
	ids := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.DeviceID(ctx)
			require.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Equal(t, ids[0], ids[i], "device ID обязан быть одинаковым для всех горутин")
	}
}
