package tickclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
)

func TestWall(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWall(genesis, 10*time.Minute)

	t.Run("clamps to zero before genesis", func(t *testing.T) {
		w.now = func() time.Time { return genesis.Add(-time.Hour) }
		assert.Equal(t, id.Tick(0), w.Current())
	})

	t.Run("floors partial intervals", func(t *testing.T) {
		w.now = func() time.Time { return genesis.Add(25 * time.Minute) }
		assert.Equal(t, id.Tick(2), w.Current())
	})

	t.Run("counts whole intervals", func(t *testing.T) {
		w.now = func() time.Time { return genesis.Add(24 * time.Hour) }
		assert.Equal(t, id.Tick(144), w.Current())
	})

	t.Run("defaults non-positive interval", func(t *testing.T) {
		bad := NewWall(genesis, 0)
		bad.now = func() time.Time { return genesis.Add(3 * time.Minute) }
		assert.Equal(t, id.Tick(3), bad.Current())
	})
}

func TestManual(t *testing.T) {
	m := NewManual(100000)
	assert.Equal(t, id.Tick(100000), m.Current())

	t.Run("advance moves forward", func(t *testing.T) {
		assert.Equal(t, id.Tick(160000), m.Advance(60000))
		assert.Equal(t, id.Tick(160000), m.Current())
	})

	t.Run("set accepts forward and same", func(t *testing.T) {
		require.NoError(t, m.Set(200000))
		require.NoError(t, m.Set(200000))
		assert.Equal(t, id.Tick(200000), m.Current())
	})

	t.Run("set rejects regression", func(t *testing.T) {
		err := m.Set(199999)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		assert.Equal(t, id.Tick(200000), m.Current())
	})
}
