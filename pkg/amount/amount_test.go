package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnitsRoundTrip(t *testing.T) {
	// converting to base units and back must recover the display amount
	// exactly for any amount with at most 18 fractional digits
	tests := []struct {
		name    string
		display string
		base    string
	}{
		{
			name:    "whole amount",
			display: "1",
			base:    "1000000000000000000",
		},
		{
			name:    "fractional amount",
			display: "2.5",
			base:    "2500000000000000000",
		},
		{
			name:    "smallest representable unit",
			display: "0.000000000000000001",
			base:    "1",
		},
		{
			name:    "all eighteen fractional digits",
			display: "1.234567890123456789",
			base:    "1234567890123456789",
		},
		{
			name:    "large amount",
			display: "1000000",
			base:    "1000000000000000000000000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base, err := ToBaseUnits(tc.display)
			require.NoError(t, err)
			assert.Equal(t, tc.base, base.String())
			assert.Equal(t, tc.display, FromBaseUnits(base))
		})
	}
}

func TestToBaseUnitsRejects(t *testing.T) {
	tests := []struct {
		name    string
		display string
	}{
		{
			name:    "too much precision",
			display: "0.0000000000000000001", // 19 fractional digits
		},
		{
			name:    "zero",
			display: "0",
		},
		{
			name:    "negative",
			display: "-1.5",
		},
		{
			name:    "not a number",
			display: "abc",
		},
		{
			name:    "empty",
			display: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToBaseUnits(tc.display)
			assert.Error(t, err)
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	base, ok := new(big.Int).SetString("2500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "2.5", FromBaseUnits(base))
	assert.Equal(t, "0", FromBaseUnits(big.NewInt(0)))
}

func TestPercentOf(t *testing.T) {
	got, err := PercentOf("10", 25)
	require.NoError(t, err)
	assert.Equal(t, "2.5", got)

	got, err = PercentOf("10", 100)
	require.NoError(t, err)
	assert.Equal(t, "10", got)

	_, err = PercentOf("10", 0)
	assert.Error(t, err)

	_, err = PercentOf("10", 101)
	assert.Error(t, err)
}

func TestAtLeast(t *testing.T) {
	ok, err := AtLeast("2.5", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AtLeast("0.5", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = AtLeast("1", "1")
	require.NoError(t, err)
	assert.True(t, ok)
}
