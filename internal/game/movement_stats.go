package game

import (
	"sync"

	"github.com/montanaflynn/stats"
)

// movementStatsWindow caps how many correction-rate samples are kept per
// player before the oldest is dropped.
const movementStatsWindow = 30

// MovementStatsTracker keeps a rolling window of per-player correction-rate
// samples and flags statistical outliers. It replaces RTT averaging (out of
// scope, since lag-compensated hit rewind is not implemented) with an
// anti-cheat-flavored signal: a player whose predicted movement needed far
// more correction than their own recent history is worth a server-side log
// line even though nothing here enforces or rewinds anything.
type MovementStatsTracker struct {
	samples map[string][]float64
	mu      sync.Mutex
}

// NewMovementStatsTracker creates an empty tracker
func NewMovementStatsTracker() *MovementStatsTracker {
	return &MovementStatsTracker{
		samples: make(map[string][]float64),
	}
}

// RecordSample appends a correction-rate sample for a player, trimming the
// window to the most recent movementStatsWindow entries.
func (t *MovementStatsTracker) RecordSample(playerID string, correctionRate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	samples := append(t.samples[playerID], correctionRate)
	if len(samples) > movementStatsWindow {
		samples = samples[len(samples)-movementStatsWindow:]
	}
	t.samples[playerID] = samples
}

// IsOutlier reports whether a player's latest sample sits more than two
// standard deviations above their own rolling mean. Returns false until
// enough samples have accumulated to make the statistic meaningful.
func (t *MovementStatsTracker) IsOutlier(playerID string) (outlier bool, mean float64, stddev float64) {
	t.mu.Lock()
	samples := append([]float64(nil), t.samples[playerID]...)
	t.mu.Unlock()

	if len(samples) < 5 {
		return false, 0, 0
	}

	mean, err := stats.Mean(samples)
	if err != nil {
		return false, 0, 0
	}
	stddev, err = stats.StandardDeviation(samples)
	if err != nil {
		return false, mean, 0
	}

	latest := samples[len(samples)-1]
	return latest > mean+2*stddev, mean, stddev
}

// RemovePlayer drops tracking state for a disconnected player
func (t *MovementStatsTracker) RemovePlayer(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.samples, playerID)
}
