package game

import (
	"sync"
	"time"
)

// MatchState represents the current state of a match
type MatchState string

const (
	MatchStateWaiting MatchState = "waiting" // Waiting for players
	MatchStateActive  MatchState = "active"  // Match in progress
	MatchStateEnded   MatchState = "ended"   // Match completed
)

// MatchConfig contains configuration for a match
type MatchConfig struct {
	KillTarget       int // Number of kills needed to win (e.g., 20)
	TimeLimitSeconds int // Time limit in seconds (e.g., 420 = 7 minutes)
}

// PlayerScore is one participant's final tally at the end of a match
type PlayerScore struct {
	PlayerID string `json:"playerId"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	XP       int    `json:"xp"`
}

// Match represents a game match with win conditions and state tracking
type Match struct {
	Config       MatchConfig
	State        MatchState
	StartTime    time.Time
	EndTime      time.Time
	EndReason    string          // "kill_target", "time_limit", or "server_error"
	PlayerKills  map[string]int  // Maps player ID to kill count
	participants map[string]struct{}
	clock        Clock
	mu           sync.RWMutex
}

// NewMatch creates a new match with default configuration and a real clock
func NewMatch() *Match {
	return NewMatchWithClock(&RealClock{})
}

// NewMatchWithClock creates a new match with a custom clock (for testing)
func NewMatchWithClock(clock Clock) *Match {
	return &Match{
		Config: MatchConfig{
			KillTarget:       20,
			TimeLimitSeconds: 420, // 7 minutes
		},
		State:        MatchStateWaiting,
		PlayerKills:  make(map[string]int),
		participants: make(map[string]struct{}),
		clock:        clock,
	}
}

// SetTestMode shrinks the kill target and time limit so integration tests can
// drive a match to completion quickly.
func (m *Match) SetTestMode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Config = MatchConfig{KillTarget: 2, TimeLimitSeconds: 10}
}

// Join registers a connection as a match participant. It must be called for
// every player that ever occupies the room, independent of whether they ever
// land a kill or take damage, so GetFinalScores reports a complete roster.
func (m *Match) Join(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[playerID] = struct{}{}
}

// Start begins the match and records the start time
func (m *Match) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Don't restart if already active
	if m.State == MatchStateActive {
		return
	}

	m.State = MatchStateActive
	m.StartTime = m.clock.Now()
}

// GetRemainingSeconds calculates the remaining time in the match
func (m *Match) GetRemainingSeconds() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// If match not started, return full time
	if m.StartTime.IsZero() {
		return m.Config.TimeLimitSeconds
	}

	elapsed := int(m.clock.Since(m.StartTime).Seconds())
	remaining := m.Config.TimeLimitSeconds - elapsed

	if remaining < 0 {
		return 0
	}

	return remaining
}

// AddKill increments the kill count for a player and registers that player
// as a participant (the victim is not known here; RecordKill registers both).
// A no-op once the match has ended, so playerKills stays frozen for
// GetFinalScores.
func (m *Match) AddKill(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State == MatchStateEnded {
		return
	}

	m.PlayerKills[playerID]++
	m.participants[playerID] = struct{}{}
}

// RecordKill increments the attacker's kill count and registers both the
// attacker and the victim as match participants in one call. A no-op once
// the match has ended, so playerKills stays frozen for GetFinalScores.
func (m *Match) RecordKill(attackerID, victimID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State == MatchStateEnded {
		return
	}

	m.PlayerKills[attackerID]++
	m.participants[attackerID] = struct{}{}
	m.participants[victimID] = struct{}{}
}

// CheckKillTarget checks if any player has reached the kill target
func (m *Match) CheckKillTarget() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, kills := range m.PlayerKills {
		if kills >= m.Config.KillTarget {
			return true
		}
	}

	return false
}

// CheckTimeLimit checks if the time limit has been reached
func (m *Match) CheckTimeLimit() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// If match not started, time limit not reached
	if m.StartTime.IsZero() {
		return false
	}

	elapsed := m.clock.Since(m.StartTime).Seconds()
	return elapsed >= float64(m.Config.TimeLimitSeconds)
}

// EndMatch ends the match with the given reason
func (m *Match) EndMatch(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Only end once
	if m.State == MatchStateEnded {
		return
	}

	m.State = MatchStateEnded
	m.EndReason = reason
	m.EndTime = m.clock.Now()
}

// IsEnded returns true if the match has ended
func (m *Match) IsEnded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.State == MatchStateEnded
}

// DetermineWinners returns every participant tied for the highest kill count.
// Participants with zero kills are eligible (and may even win a 0-0 match).
func (m *Match) DetermineWinners() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	maxKills := -1
	for pid := range m.participants {
		if kills := m.PlayerKills[pid]; kills > maxKills {
			maxKills = kills
		}
	}

	winners := make([]string, 0)
	for pid := range m.participants {
		if m.PlayerKills[pid] == maxKills {
			winners = append(winners, pid)
		}
	}
	return winners
}

// GetFinalScores returns one PlayerScore per match participant — every
// connection that ever joined the room, not just the ones that recorded a
// kill — reading kills/deaths/xp from the authoritative PlayerState so the
// score reflects what the player actually accrued in the World.
func (m *Match) GetFinalScores(world *World) []PlayerScore {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make([]PlayerScore, 0, len(m.participants))
	for pid := range m.participants {
		score := PlayerScore{PlayerID: pid}
		if player, ok := world.GetPlayer(pid); ok {
			snap := player.Snapshot()
			score.Kills = snap.Kills
			score.Deaths = snap.Deaths
			score.XP = snap.XP
		}
		scores = append(scores, score)
	}
	return scores
}
