package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeats(t *testing.T) {
	t.Run("Mixed Input", func(t *testing.T) {
		// Duplicates, negatives and junk strings are dropped, result is ascending
		seats, err := NormalizeSeats([]interface{}{float64(3), float64(3), float64(1), float64(-2), "x", float64(2)})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, seats)
	})

	t.Run("Numeric Strings", func(t *testing.T) {
		seats, err := NormalizeSeats([]interface{}{"7", " 4 ", "12"})
		require.NoError(t, err)
		assert.Equal(t, []int{4, 7, 12}, seats)
	})

	t.Run("Fractional Floats Dropped", func(t *testing.T) {
		seats, err := NormalizeSeats([]interface{}{float64(2.5), float64(6)})
		require.NoError(t, err)
		assert.Equal(t, []int{6}, seats)
	})

	t.Run("All Invalid", func(t *testing.T) {
		seats, err := NormalizeSeats([]interface{}{"abc", float64(-1), float64(0), nil, true})
		assert.Nil(t, seats)
		assert.ErrorIs(t, err, ErrEmptySeatSet)
	})

	t.Run("Empty Input", func(t *testing.T) {
		seats, err := NormalizeSeats(nil)
		assert.Nil(t, seats)
		assert.ErrorIs(t, err, ErrEmptySeatSet)
	})

	t.Run("Duplicates Collapse", func(t *testing.T) {
		seats, err := NormalizeSeats([]interface{}{float64(9), "9", float64(9)})
		require.NoError(t, err)
		assert.Equal(t, []int{9}, seats)
	})
}
