package network

import (
	"testing"

	"github.com/stickarena/arena-server/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandlePlayerShoot_RejectedAfterMatchEnds verifies a shot fired after
// EndMatch produces no projectile, so a lingering connection cannot keep
// racking up kills once the match is over.
func TestHandlePlayerShoot_RejectedAfterMatchEnds(t *testing.T) {
	handler := NewWebSocketHandler()
	playerID := "shooter"
	room := newPickupTestRoom(handler, playerID)
	room.Match.EndMatch("kill_target")

	handler.handlePlayerShoot(playerID, map[string]interface{}{"aimAngle": 0.0})

	assert.Empty(t, room.GameServer.GetActiveProjectiles(), "no shot should register after the match has ended")
}

// TestHandlePlayerMeleeAttack_RejectedAfterMatchEnds verifies a melee swing
// after EndMatch lands no hits.
func TestHandlePlayerMeleeAttack_RejectedAfterMatchEnds(t *testing.T) {
	handler := NewWebSocketHandler()
	attackerID := "attacker"
	room := newPickupTestRoom(handler, attackerID)
	victimID := "victim"
	victim := game.NewPlayer(victimID)
	require.NoError(t, room.AddPlayer(victim))
	room.GameServer.AddPlayer(victimID)

	room.GameServer.SetWeaponState(attackerID, game.NewWeaponState(game.NewBat()))

	world := room.GameServer.GetWorld()
	attacker, ok := world.GetPlayer(attackerID)
	require.True(t, ok)
	victimState, ok := world.GetPlayer(victimID)
	require.True(t, ok)
	attacker.Position = game.Vector2{X: 100, Y: 100}
	victimState.Position = game.Vector2{X: 110, Y: 100}

	room.Match.EndMatch("kill_target")

	handler.handlePlayerMeleeAttack(attackerID, map[string]interface{}{"aimAngle": 0.0})

	assert.Equal(t, game.PlayerMaxHealth, victimState.Health, "no melee damage should land after the match has ended")
}

// TestProcessKill_NoopAfterMatchEnds verifies the tick-driven lethal-hit path
// (EndMatch does not stop the tick loop, so an in-flight projectile can still
// resolve after the match ends) does not mutate frozen kill stats.
func TestProcessKill_NoopAfterMatchEnds(t *testing.T) {
	handler := NewWebSocketHandler()
	attackerID := "attacker"
	room := newPickupTestRoom(handler, attackerID)
	victimID := "victim"
	victim := game.NewPlayer(victimID)
	require.NoError(t, room.AddPlayer(victim))
	room.GameServer.AddPlayer(victimID)

	room.Match.RecordKill(attackerID, victimID)
	room.Match.EndMatch("kill_target")

	handler.processKill(room, attackerID, victimID)

	assert.Equal(t, 1, room.Match.PlayerKills[attackerID], "kill count must stay frozen once the match has ended")
}
