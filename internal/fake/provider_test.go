package fake_test

import (
	"testing"
	"time"

	"event-booking-seeder/internal/fake"
	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	p := fake.New(7)

	t.Run("Success - unique picks", func(t *testing.T) {
		items := []string{"A", "B", "C", "D", "E"}
		for i := 0; i < 50; i++ {
			got, err := fake.Sample(p, items, 3)
			require.NoError(t, err)
			assert.Len(t, got, 3)

			seen := map[string]bool{}
			for _, v := range got {
				assert.False(t, seen[v], "duplicate %s", v)
				assert.Contains(t, items, v)
				seen[v] = true
			}
		}
	})

	t.Run("Success - whole population", func(t *testing.T) {
		got, err := fake.Sample(p, []int{1, 2, 3}, 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{1, 2, 3}, got)
	})

	t.Run("Success - zero", func(t *testing.T) {
		got, err := fake.Sample(p, []int{1, 2, 3}, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Failed - ErrSampleTooLarge", func(t *testing.T) {
		_, err := fake.Sample(p, []string{"A", "B"}, 3)
		assert.ErrorIs(t, err, apperrors.ErrSampleTooLarge)
	})

	t.Run("Sample does not mutate input", func(t *testing.T) {
		items := []int{1, 2, 3, 4}
		_, err := fake.Sample(p, items, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, items)
	})
}

func TestProvider_Ranges(t *testing.T) {
	p := fake.New(11)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	for i := 0; i < 200; i++ {
		n := p.IntRange(1, 4)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 4)

		d := p.DateBetween(start, end)
		assert.False(t, d.Before(start))
		assert.False(t, d.After(end))
		assert.Equal(t, d, d.Truncate(time.Millisecond))

		assert.LessOrEqual(t, len(p.Text(100)), 100)
	}
}

func TestProvider_SameSeedSameSequence(t *testing.T) {
	a := fake.New(99)
	b := fake.New(99)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Name(), b.Name())
		assert.Equal(t, a.IntRange(0, 1000), b.IntRange(0, 1000))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 4.3, fake.Round(4.26, 1))
	assert.Equal(t, 37.123457, fake.Round(37.1234567, 6))
}
