package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillis_JSONNumber(t *testing.T) {
	m := MillisOf(time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC))

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "1714564800123", string(b))

	var back Millis
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(m.Time))
}

func TestMillis_Zero(t *testing.T) {
	b, err := json.Marshal(Millis{})
	require.NoError(t, err)
	assert.Equal(t, "0", string(b))

	for _, in := range []string{"0", "null", `""`} {
		var m Millis
		require.NoError(t, json.Unmarshal([]byte(in), &m), in)
		assert.True(t, m.IsZero(), in)
	}
}

func TestMillis_AcceptsRFC3339AndNumericStrings(t *testing.T) {
	var m Millis
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T12:00:00.5+00:00"`), &m))
	assert.EqualValues(t, 1714564800500, m.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"1714564800123"`), &m))
	assert.EqualValues(t, 1714564800123, m.UnixMilli())
}

func TestMillis_Invalid(t *testing.T) {
	var m Millis
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &m))
	assert.Error(t, json.Unmarshal([]byte(`true`), &m))
}

func TestNowMillis_DropsSubMillisecond(t *testing.T) {
	m := NowMillis()
	assert.Zero(t, m.Nanosecond()%int(time.Millisecond))
}
