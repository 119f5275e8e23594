package dateparse

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_DayFirstEqualsISO(t *testing.T) {
	iso, ok := Parse("2024-12-25")
	require.True(t, ok)

	for _, in := range []string{"25/12/2024", "25-12-2024", "25/12/24", "25-12-24"} {
		got, ok := Parse(in)
		require.True(t, ok, in)
		require.Equal(t, iso, got, in)
	}
	require.Equal(t, day(2024, time.December, 25), iso)
}

func TestParse_AmbiguousSlashDateIsDayFirst(t *testing.T) {
	got, ok := Parse("05/06/2024")
	require.True(t, ok)
	require.Equal(t, day(2024, time.June, 5), got)

	got, ok = Parse("1-2-2025")
	require.True(t, ok)
	require.Equal(t, day(2025, time.February, 1), got)
}

func TestParse_Native(t *testing.T) {
	got, ok := Parse("2024-12-25T10:30:00.123456Z")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 12, 25, 10, 30, 0, 123000000, time.UTC), got)

	got, ok = Parse("2024-12-25T10:30:00+02:00")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 12, 25, 8, 30, 0, 0, time.UTC), got)

	got, ok = Parse(json.Number("1735084800000"))
	require.True(t, ok)
	require.Equal(t, day(2024, time.December, 25), got)

	got, ok = Parse("1735084800000")
	require.True(t, ok)
	require.Equal(t, day(2024, time.December, 25), got)

	got, ok = Parse(float64(1735084800000))
	require.True(t, ok)
	require.Equal(t, day(2024, time.December, 25), got)

	got, ok = Parse("Dec 25, 2024")
	require.True(t, ok)
	require.Equal(t, day(2024, time.December, 25), got)

	got, ok = Parse("2024/12/25")
	require.True(t, ok)
	require.Equal(t, day(2024, time.December, 25), got)
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []any{
		"", "   ", "tomorrow", "31/02/2024", "12/13/2024", "00/10/2024",
		"2024-13-45", true, map[string]any{}, []any{"2024-12-25"}, nil,
		// эпохи, которые не влезают в годы 0..9999 или в int64
		"99999999999999999", json.Number("99999999999999999"), json.Number("1e30"),
		float64(1 << 63), math.Inf(1), math.NaN(), int64(math.MaxInt64), "-99999999999999999",
	} {
		_, ok := Parse(in)
		require.False(t, ok, "%v", in)
	}
}

func TestParse_TruncatesToMillis(t *testing.T) {
	in := time.Date(2024, 1, 2, 3, 4, 5, 678901234, time.FixedZone("X", 3600))
	got, ok := Parse(in)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 2, 2, 4, 5, 678000000, time.UTC), got)
}

func TestParse_YearRangeBounds(t *testing.T) {
	got, ok := Parse("253402300799999")
	require.True(t, ok)
	require.Equal(t, time.Date(9999, time.December, 31, 23, 59, 59, 999000000, time.UTC), got)

	_, ok = Parse("253402300800000")
	require.False(t, ok)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.Equal(t, `"9999-12-31T23:59:59.999Z"`, string(b))
}
