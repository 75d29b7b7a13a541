package nagios

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeBareNumber(t *testing.T) {
	r, err := ParseRange("10")
	require.NoError(t, err)
	assert.False(t, r.Breached(5))
	assert.False(t, r.Breached(10))
	assert.True(t, r.Breached(11))
	assert.True(t, r.Breached(-1))
}

func TestParseRangeOpenEnded(t *testing.T) {
	r, err := ParseRange("10:")
	require.NoError(t, err)
	assert.True(t, r.Breached(9))
	assert.False(t, r.Breached(10))
	assert.False(t, r.Breached(math.MaxFloat64))
}

func TestParseRangeOpenStart(t *testing.T) {
	r, err := ParseRange("~:10")
	require.NoError(t, err)
	assert.False(t, r.Breached(-1000))
	assert.True(t, r.Breached(11))
}

func TestParseRangeClosedInterval(t *testing.T) {
	r, err := ParseRange("10:20")
	require.NoError(t, err)
	assert.True(t, r.Breached(9))
	assert.False(t, r.Breached(15))
	assert.True(t, r.Breached(21))
}

func TestParseRangeInverted(t *testing.T) {
	r, err := ParseRange("@10:20")
	require.NoError(t, err)
	assert.False(t, r.Breached(9))
	assert.True(t, r.Breached(15))
	assert.False(t, r.Breached(21))
}

func TestParseRangeRejectsInvertedBounds(t *testing.T) {
	_, err := ParseRange("20:10")
	assert.Error(t, err)
}

func TestParseRangeRejectsGarbage(t *testing.T) {
	_, err := ParseRange("not-a-number")
	assert.Error(t, err)
}

func TestEvaluatePrefersCritical(t *testing.T) {
	warn, _ := ParseRange("10:20")
	crit, _ := ParseRange("5:25")

	assert.Equal(t, Critical, Evaluate(30, warn, crit))
	assert.Equal(t, Warning, Evaluate(22, warn, crit))
	assert.Equal(t, OK, Evaluate(15, warn, crit))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "WARNING", Warning.String())
	assert.Equal(t, "CRITICAL", Critical.String())
	assert.Equal(t, "UNKNOWN", Unknown.String())
}
