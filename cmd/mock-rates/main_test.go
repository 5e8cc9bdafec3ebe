package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 15, 42, 0, time.UTC)
	snap := snapshot(now)

	require.Len(t, snap.Providers, len(providers))
	for _, p := range snap.Providers {
		require.Len(t, p.Quotes, len(baseRates), p.Name)
		for _, q := range p.Quotes {
			assert.True(t, q.Rate.IsPositive())
			assert.True(t, q.Bid.LessThan(q.Rate), "%s %s/%s bid", p.Name, q.From, q.To)
			assert.True(t, q.Ask.GreaterThan(q.Rate), "%s %s/%s ask", p.Name, q.From, q.To)
			assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC), q.Timestamp)
		}
	}

	// Polls within the same minute produce identical observation keys.
	again := snapshot(now.Add(10 * time.Second))
	assert.Equal(t, snap.Providers[0].Quotes[0].Timestamp, again.Providers[0].Quotes[0].Timestamp)
}
