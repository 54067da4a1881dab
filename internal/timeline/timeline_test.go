package timeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-harga/internal/timeline"
)

func entry(t *testing.T, amount string, from string) timeline.Entry {
	t.Helper()
	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	ts, err := time.Parse("2006-01-02T15:04:05", from)
	require.NoError(t, err)
	return timeline.Entry{Amount: amt, EffectiveFrom: ts}
}

func demoTimeline(t *testing.T) timeline.Timeline {
	return timeline.New(
		entry(t, "100.50", "1999-01-01T10:30:00"),
		entry(t, "200.50", "1989-01-01T10:30:00"),
		entry(t, "300.50", "2000-01-01T10:30:00"),
	)
}

func TestCurrentReturnsLatestEntry(t *testing.T) {
	tl := demoTimeline(t)

	cur, err := tl.Current()
	require.NoError(t, err)
	require.True(t, cur.Amount.Equal(decimal.RequireFromString("300.50")))
	require.Equal(t, entry(t, "300.50", "2000-01-01T10:30:00").EffectiveFrom, cur.EffectiveFrom)
}

func TestCurrentEmptyTimeline(t *testing.T) {
	var tl timeline.Timeline
	_, err := tl.Current()
	require.ErrorIs(t, err, timeline.ErrEmptyTimeline)
}

func TestAtStrictBoundary(t *testing.T) {
	tl := demoTimeline(t)

	// Query exactly at the 300.50 entry's date: that entry is invisible, the
	// greatest strictly earlier entry wins.
	at, err := time.Parse("2006-01-02T15:04:05", "2000-01-01T10:30:00")
	require.NoError(t, err)

	got, err := tl.At(at)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("100.50")))

	// One instant later the 300.50 entry becomes eligible.
	got, err = tl.At(at.Add(time.Nanosecond))
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("300.50")))
}

func TestAtReturnsGreatestEarlierEntry(t *testing.T) {
	tl := demoTimeline(t)

	at, err := time.Parse("2006-01-02T15:04:05", "1999-06-15T00:00:00")
	require.NoError(t, err)

	got, err := tl.At(at)
	require.NoError(t, err)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("100.50")))
	require.True(t, got.EffectiveFrom.Before(at))
}

func TestAtNoQualifyingEntry(t *testing.T) {
	tl := demoTimeline(t)

	at, err := time.Parse("2006-01-02T15:04:05", "1989-01-01T10:30:00")
	require.NoError(t, err)

	_, err = tl.At(at)
	require.ErrorIs(t, err, timeline.ErrNoPriceBefore)

	var empty timeline.Timeline
	_, err = empty.At(time.Now())
	require.ErrorIs(t, err, timeline.ErrNoPriceBefore)
}

func TestHasPriceAtOrBefore(t *testing.T) {
	tl := demoTimeline(t)

	earliest := entry(t, "200.50", "1989-01-01T10:30:00").EffectiveFrom
	require.True(t, tl.HasPriceAtOrBefore(earliest))
	require.True(t, tl.HasPriceAtOrBefore(earliest.Add(time.Hour)))
	require.False(t, tl.HasPriceAtOrBefore(earliest.Add(-time.Second)))

	var empty timeline.Timeline
	require.False(t, empty.HasPriceAtOrBefore(time.Now()))
}

func TestAppendKeepsOrderAndCoalescesDuplicates(t *testing.T) {
	tl := timeline.New(
		entry(t, "2.00", "2020-01-02T00:00:00"),
		entry(t, "1.00", "2020-01-01T00:00:00"),
	)
	require.Equal(t, 2, tl.Len())

	// Same key again: the existing entry wins, regardless of amount.
	tl.Append(entry(t, "9.99", "2020-01-01T00:00:00"))
	require.Equal(t, 2, tl.Len())

	entries := tl.Entries()
	require.True(t, entries[0].Amount.Equal(decimal.RequireFromString("1.00")))
	require.True(t, entries[1].Amount.Equal(decimal.RequireFromString("2.00")))
	require.True(t, entries[0].EffectiveFrom.Before(entries[1].EffectiveFrom))
}

func TestJSONRoundTrip(t *testing.T) {
	tl := demoTimeline(t)

	data, err := json.Marshal(tl)
	require.NoError(t, err)

	var decoded timeline.Timeline
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, tl.Len(), decoded.Len())

	cur, err := decoded.Current()
	require.NoError(t, err)
	require.True(t, cur.Amount.Equal(decimal.RequireFromString("300.50")))
}
