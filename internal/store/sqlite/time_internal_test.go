// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime_StringOrderMatchesTimeOrder(t *testing.T) {
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// Same-second timestamps with fractions of different precision are
	// the hazard: a variable-width encoding would order "…:00.5Z"
	// after "…:00.25Z".
	times := []time.Time{
		base,
		base.Add(250 * time.Millisecond),
		base.Add(500 * time.Millisecond),
		base.Add(time.Second),
		base.Add(time.Second + time.Nanosecond),
	}

	for i := 1; i < len(times); i++ {
		assert.Less(t, formatTime(times[i-1]), formatTime(times[i]),
			"%v must sort before %v", times[i-1], times[i])
	}
}

func TestFormatTime_RoundTrip(t *testing.T) {
	in := time.Date(2026, 8, 23, 12, 0, 0, 123456789, time.UTC)
	out := parseTime(formatTime(in))
	require.True(t, out.Equal(in))

	assert.True(t, parseTime("").IsZero())
	assert.Empty(t, formatTime(time.Time{}))
}

func TestParseTime_AcceptsTrimmedFractions(t *testing.T) {
	// Rows written before the fixed-width layout carry RFC3339Nano
	// strings; parsing must keep accepting them.
	out := parseTime("2026-08-23T12:00:00.5Z")
	require.False(t, out.IsZero())
	assert.Equal(t, 500*time.Millisecond, time.Duration(out.Nanosecond()))
}
