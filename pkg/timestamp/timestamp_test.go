package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)
	ms := ToUnixMs(now)
	assert.True(t, FromUnixMs(ms).Equal(now))
}

func TestZeroSemantics(t *testing.T) {
	assert.Equal(t, int64(0), ToUnixMs(time.Time{}))
	assert.True(t, FromUnixMs(0).IsZero())
	assert.Equal(t, "", Format(0))

	ms, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ms)
}

func TestFormatParse(t *testing.T) {
	ms := int64(1672574400123)
	s := Format(ms)
	assert.Equal(t, "2023-01-01T12:00:00.123Z", s)

	parsed, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, ms, parsed)

	_, err = Parse("not a time")
	assert.Error(t, err)
}
