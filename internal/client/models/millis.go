package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Millis is a timestamp stored in JSON as epoch milliseconds. Decoding also
// accepts RFC 3339 strings, which is how remote rows carry time.
type Millis struct {
	time.Time
}

// MillisOf truncates t to millisecond precision and drops the monotonic
// clock reading so values survive a JSON round trip unchanged.
func MillisOf(t time.Time) Millis {
	if t.IsZero() {
		return Millis{}
	}
	return Millis{time.UnixMilli(t.UnixMilli())}
}

// NowMillis is MillisOf(time.Now()).
func NowMillis() Millis { return MillisOf(time.Now()) }

func (m Millis) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("0"), nil
	}
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

func (m *Millis) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Millis{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*m = Millis{}
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*m = millisFromInt(ms)
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("millis: %w", err)
		}
		*m = MillisOf(t)
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("millis: %w", err)
	}
	*m = millisFromInt(int64(f))
	return nil
}

func millisFromInt(ms int64) Millis {
	if ms == 0 {
		return Millis{}
	}
	return Millis{time.UnixMilli(ms)}
}
