package common

import (
	"encoding/json"
	"time"
)

// TimeParamLayout is the timestamp layout accepted in URL path and query
// parameters. It carries no zone; values are interpreted as UTC, matching how
// order dates are stored.
const TimeParamLayout = "2006-01-02T15:04:05"

// ParseTimeParam parses a URL timestamp parameter in TimeParamLayout.
func ParseTimeParam(value string) (time.Time, error) {
	return time.Parse(TimeParamLayout, value)
}

// WireTime is a timestamp as it travels in JSON bodies. It emits
// TimeParamLayout so a timestamp taken from a response can be used verbatim
// as a URL parameter, and it accepts RFC3339 input as well.
type WireTime struct {
	time.Time
}

// NewWireTime wraps a time for JSON transport, normalised to UTC.
func NewWireTime(t time.Time) WireTime {
	return WireTime{t.UTC()}
}

// MarshalJSON encodes the timestamp in TimeParamLayout.
func (t WireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimeParamLayout))
}

// UnmarshalJSON decodes a timestamp in TimeParamLayout or RFC3339.
func (t *WireTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeParam(raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}
