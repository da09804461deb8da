package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorHash(t *testing.T) {
	t.Parallel()

	noon := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		a := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon)
		b := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon.Add(5*time.Hour))
		assert.Equal(t, a, b, "same day must yield the same hash")
	})

	t.Run("format", func(t *testing.T) {
		t.Parallel()
		h := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon)
		require.Len(t, h, 16)
		assert.Regexp(t, "^[0-9a-f]{16}$", h)
	})

	t.Run("rotates daily", func(t *testing.T) {
		t.Parallel()
		today := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon)
		tomorrow := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon.Add(24*time.Hour))
		assert.NotEqual(t, today, tomorrow)
	})

	t.Run("rotation uses UTC date", func(t *testing.T) {
		t.Parallel()
		// 23:30 UTC-2 is 01:30 UTC the next day.
		tz := time.FixedZone("UTC-2", -2*60*60)
		local := time.Date(2025, 6, 15, 23, 30, 0, 0, tz)
		utcNext := time.Date(2025, 6, 16, 1, 30, 0, 0, time.UTC)
		assert.Equal(t,
			VisitorHash("s", "example.com", "Italy", "Lombardy", utcNext),
			VisitorHash("s", "example.com", "Italy", "Lombardy", local),
		)
	})

	t.Run("inputs separate hash keyspace", func(t *testing.T) {
		t.Parallel()
		base := VisitorHash("secret", "example.com", "Italy", "Lombardy", noon)
		assert.NotEqual(t, base, VisitorHash("other", "example.com", "Italy", "Lombardy", noon))
		assert.NotEqual(t, base, VisitorHash("secret", "other.com", "Italy", "Lombardy", noon))
		assert.NotEqual(t, base, VisitorHash("secret", "example.com", "France", "Lombardy", noon))
		assert.NotEqual(t, base, VisitorHash("secret", "example.com", "Italy", "Piedmont", noon))
	})
}
