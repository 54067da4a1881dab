package timeline

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyTimeline indicates a current-price query on a product with no price history.
	ErrEmptyTimeline = errors.New("timeline: no price entries")
	// ErrNoPriceBefore indicates that no entry is in effect strictly before the query instant.
	ErrNoPriceBefore = errors.New("timeline: no price in effect before instant")
)

// Entry is a single price point in a product's history. Ordering and identity
// are determined by EffectiveFrom alone; Amount never participates in
// comparisons.
type Entry struct {
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom time.Time       `json:"fromDate"`
}

// Timeline is the ordered price history of one product, sorted ascending by
// EffectiveFrom. Entries are immutable once appended; the only mutation is
// Append. The zero value is an empty timeline ready for use.
type Timeline struct {
	entries []Entry
}

// New builds a timeline from the given entries. Input order is irrelevant.
// Entries sharing an EffectiveFrom are coalesced keyed-set style: the first
// one seen wins.
func New(entries ...Entry) Timeline {
	var t Timeline
	for _, e := range entries {
		t.Append(e)
	}
	return t
}

// Append inserts the entry at its ordered position. An entry whose
// EffectiveFrom already exists in the timeline is dropped silently, mirroring
// keyed-set semantics. Monotonicity of "new current price" submissions is the
// caller's contract, not enforced here.
func (t *Timeline) Append(e Entry) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return !t.entries[i].EffectiveFrom.Before(e.EffectiveFrom)
	})
	if i < len(t.entries) && t.entries[i].EffectiveFrom.Equal(e.EffectiveFrom) {
		return
	}
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
}

// Current returns the entry with the greatest EffectiveFrom.
func (t Timeline) Current() (Entry, error) {
	if len(t.entries) == 0 {
		return Entry{}, ErrEmptyTimeline
	}
	return t.entries[len(t.entries)-1], nil
}

// At returns the entry with the greatest EffectiveFrom strictly before the
// instant. An entry effective exactly at the instant is not eligible.
func (t Timeline) At(instant time.Time) (Entry, error) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return !t.entries[i].EffectiveFrom.Before(instant)
	})
	if i == 0 {
		return Entry{}, ErrNoPriceBefore
	}
	return t.entries[i-1], nil
}

// HasPriceAtOrBefore reports whether the earliest entry was already in effect
// by the instant. Because the timeline is contiguous from its first entry,
// this is equivalent to "some entry is dated at or before the instant".
func (t Timeline) HasPriceAtOrBefore(instant time.Time) bool {
	if len(t.entries) == 0 {
		return false
	}
	return !t.entries[0].EffectiveFrom.After(instant)
}

// Entries returns a copy of the ordered entries.
func (t Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t Timeline) Len() int { return len(t.entries) }

// MarshalJSON encodes the timeline as its ordered entry list.
func (t Timeline) MarshalJSON() ([]byte, error) {
	if t.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.entries)
}

// UnmarshalJSON decodes an entry list, restoring ordering and coalescing.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*t = New(entries...)
	return nil
}
