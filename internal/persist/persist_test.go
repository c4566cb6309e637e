package persist

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, []byte("first")))
	require.NoError(t, s.Save(ctx, []byte("second")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	data, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, m.Save(ctx, buf))
	buf[0] = 'x'
	data, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestAutoSaverCoalescesBursts(t *testing.T) {
	m := NewMemoryStore()
	var encodes atomic.Int32
	a := NewAutoSaver(m, 50*time.Millisecond, func() ([]byte, error) {
		encodes.Add(1)
		return []byte("png"), nil
	})
	for range 10 {
		a.Touch()
	}
	assert.True(t, a.Pending())

	assert.Eventually(t, func() bool { return m.Saves() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, m.Saves())
	assert.Equal(t, int32(1), encodes.Load())
	assert.False(t, a.Pending())
}

func TestAutoSaverFlushAndStop(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	a := NewAutoSaver(m, time.Hour, func() ([]byte, error) { return []byte("png"), nil })

	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 0, m.Saves(), "nothing dirty")

	a.Touch()
	require.NoError(t, a.Stop(ctx))
	assert.Equal(t, 1, m.Saves())

	a.Touch()
	assert.False(t, a.Pending())
}

func TestAutoSaverEncodeError(t *testing.T) {
	m := NewMemoryStore()
	a := NewAutoSaver(m, time.Hour, func() ([]byte, error) { return nil, errors.New("boom") })
	a.Touch()
	require.Error(t, a.Flush(context.Background()))
	assert.Equal(t, 0, m.Saves())
}
