package network

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/stickarena/arena-server/internal/game"
)

// handleInputState processes player input state updates
func (h *WebSocketHandler) handleInputState(playerID string, data any) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	// Reject input after the match ends (AC: "server stops accepting input:state messages")
	if room.Match.IsEnded() {
		return
	}

	if err := h.validator.Validate("input-state-data", data); err != nil {
		log.Printf("Schema validation failed for input:state from %s: %v", playerID, err)
		return
	}

	dataMap := data.(map[string]interface{})

	input := game.InputState{
		Up:          dataMap["up"].(bool),
		Down:        dataMap["down"].(bool),
		Left:        dataMap["left"].(bool),
		Right:       dataMap["right"].(bool),
		AimAngle:    dataMap["aimAngle"].(float64),
		IsSprinting: dataMap["isSprinting"].(bool),
	}

	var sequence uint64
	if seqFloat, ok := dataMap["sequence"].(float64); ok {
		sequence = uint64(seqFloat)
	}

	if !room.GameServer.UpdatePlayerInputWithSequence(playerID, input, sequence) {
		log.Printf("Failed to update input for player %s", playerID)
	}
}

// handlePlayerShoot processes player shoot messages
func (h *WebSocketHandler) handlePlayerShoot(playerID string, data any) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	// Reject shots after the match ends; no further kills may be recorded.
	if room.Match.IsEnded() {
		return
	}

	if err := h.validator.Validate("player-shoot-data", data); err != nil {
		log.Printf("Schema validation failed for player:shoot from %s: %v", playerID, err)
		return
	}

	dataMap := data.(map[string]interface{})
	aimAngle := dataMap["aimAngle"].(float64)

	result := room.GameServer.PlayerShoot(playerID, aimAngle)

	if result.Success {
		h.broadcastProjectileSpawn(room, result.Projectile)
		h.sendWeaponState(room, playerID)
	} else {
		h.sendShootFailed(playerID, result.Reason)
	}
}

// handlePlayerReload processes player reload messages
func (h *WebSocketHandler) handlePlayerReload(playerID string) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	if room.GameServer.PlayerReload(playerID) {
		h.sendWeaponState(room, playerID)
	}
}

// onReloadComplete is called when a player's reload finishes
func (h *WebSocketHandler) onReloadComplete(room *game.Room, playerID string) {
	h.sendWeaponState(room, playerID)
}

// onHit is called when a projectile hits a player within room
func (h *WebSocketHandler) onHit(room *game.Room, hit game.HitEvent) {
	victimState, victimExists := room.GameServer.GetPlayerState(hit.VictimID)
	if !victimExists {
		return
	}

	attackerWeapon := room.GameServer.GetWeaponState(hit.AttackerID)
	if attackerWeapon == nil {
		return
	}

	damage := attackerWeapon.Weapon.Damage

	h.broadcastPlayerDamaged(room, hit.AttackerID, hit.VictimID, damage, victimState.Health)

	hitConfirmedData := map[string]interface{}{
		"victimId":     hit.VictimID,
		"damage":       damage,
		"projectileId": hit.ProjectileID,
	}

	if err := h.validateOutgoingMessage("hit:confirmed", hitConfirmedData); err != nil {
		log.Printf("Schema validation failed for hit:confirmed: %v", err)
	}

	hitConfirmedMessage := Message{
		Type:      "hit:confirmed",
		Timestamp: 0,
		Data:      hitConfirmedData,
	}

	confirmBytes, err := marshalMessage(hitConfirmedMessage, "hit:confirmed")
	if err == nil {
		h.roomManager.SendToPlayer(hit.AttackerID, confirmBytes, false)
	}

	if !victimState.IsAlive() {
		h.processKill(room, hit.AttackerID, hit.VictimID)
	}
}

// processKill applies the stat bookkeeping and broadcasts common to every
// lethal hit, whether it came from a projectile or a melee swing. A no-op
// once the match has ended: EndMatch does not stop the tick loop, so an
// already-in-flight projectile can still land a lethal hit after the match
// is over, and that must not mutate frozen stats or re-broadcast a death.
func (h *WebSocketHandler) processKill(room *game.Room, attackerID, victimID string) {
	if room.Match.IsEnded() {
		return
	}

	room.GameServer.MarkPlayerDead(victimID)

	// Must use GetWorld().GetPlayer() for a pointer; GetPlayerState returns a copy.
	var attackerKills, attackerXP int
	if attacker, ok := room.GameServer.GetWorld().GetPlayer(attackerID); ok {
		attacker.IncrementKills()
		attacker.AddXP(game.KillXPReward)
		attackerKills = attacker.Kills
		attackerXP = attacker.XP
	}
	if victim, ok := room.GameServer.GetWorld().GetPlayer(victimID); ok {
		victim.IncrementDeaths()
	}

	deathData := map[string]interface{}{
		"victimId":   victimID,
		"attackerId": attackerID,
	}
	if err := h.validateOutgoingMessage("player:death", deathData); err != nil {
		log.Printf("Schema validation failed for player:death: %v", err)
	}
	deathMessage := Message{Type: "player:death", Data: deathData}
	if deathBytes, err := marshalMessage(deathMessage, "player:death"); err == nil {
		room.Broadcast(deathBytes, "", true)
	}

	killCreditData := map[string]interface{}{
		"killerId":    attackerID,
		"victimId":    victimID,
		"killerKills": attackerKills,
		"killerXP":    attackerXP,
	}
	if err := h.validateOutgoingMessage("player:kill_credit", killCreditData); err != nil {
		log.Printf("Schema validation failed for player:kill_credit: %v", err)
	}
	killCreditMessage := Message{Type: "player:kill_credit", Data: killCreditData}
	creditBytes, err := marshalMessage(killCreditMessage, "player:kill_credit")
	if err != nil {
		return
	}
	room.Broadcast(creditBytes, "", false)

	room.Match.RecordKill(attackerID, victimID)

	if room.Match.CheckKillTarget() {
		room.Match.EndMatch("kill_target")
		log.Printf("Match ended in room %s: kill target reached", room.ID)
		h.broadcastMatchEnded(room, room.GameServer.GetWorld())
	}
}

// marshalMessage is a tiny helper so the many broadcast/send call sites in
// this file don't each repeat the same marshal-or-log-and-bail boilerplate.
func marshalMessage(msg Message, logName string) ([]byte, error) {
	msg.Timestamp = time.Now().UnixMilli()
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", logName, err)
	}
	return b, err
}

// onRespawn is called when a player respawns after death
func (h *WebSocketHandler) onRespawn(room *game.Room, playerID string, position game.Vector2) {
	respawnData := map[string]interface{}{
		"playerId": playerID,
		"position": position,
		"health":   game.PlayerMaxHealth,
	}

	if err := h.validateOutgoingMessage("player:respawn", respawnData); err != nil {
		log.Printf("Schema validation failed for player:respawn: %v", err)
	}

	respawnMessage := Message{Type: "player:respawn", Data: respawnData}
	msgBytes, err := marshalMessage(respawnMessage, "player:respawn")
	if err != nil {
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// handleWeaponPickup processes weapon pickup attempts from players
func (h *WebSocketHandler) handleWeaponPickup(playerID string, data any) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	if err := h.validator.Validate("weapon-pickup-attempt-data", data); err != nil {
		log.Printf("Schema validation failed for weapon:pickup_attempt from %s: %v", playerID, err)
		return
	}

	dataMap := data.(map[string]interface{})
	crateID := dataMap["crateId"].(string)

	crate := room.GameServer.GetWeaponCrateManager().GetCrate(crateID)
	if crate == nil {
		log.Printf("Invalid crateId %s from player %s", crateID, playerID)
		return
	}

	if !crate.IsAvailable {
		log.Printf("Player %s attempted to pickup unavailable crate %s", playerID, crateID)
		return
	}

	playerState, exists := room.GameServer.GetWorld().GetPlayer(playerID)
	if !exists {
		log.Printf("Player %s not found for weapon pickup", playerID)
		return
	}

	if !playerState.IsAlive() {
		log.Printf("Dead player %s attempted weapon pickup", playerID)
		return
	}

	physics := game.NewPhysics()
	if !physics.CheckPlayerCrateProximity(playerState, crate) {
		log.Printf("Player %s out of range for crate %s", playerID, crateID)
		return
	}

	if !room.GameServer.GetWeaponCrateManager().PickupCrate(crateID) {
		log.Printf("Failed to pick up crate %s (race condition)", crateID)
		return
	}

	newWeapon, err := game.CreateWeaponByType(crate.WeaponType)
	if err != nil {
		log.Printf("Failed to create weapon %s: %v", crate.WeaponType, err)
		crate.IsAvailable = true
		return
	}

	room.GameServer.SetWeaponState(playerID, game.NewWeaponState(newWeapon))

	if updatedCrate := room.GameServer.GetWeaponCrateManager().GetCrate(crateID); updatedCrate != nil {
		h.broadcastWeaponPickup(room, playerID, crateID, crate.WeaponType, updatedCrate.RespawnTime)
		h.sendWeaponState(room, playerID)
	}

	log.Printf("Player %s picked up %s from crate %s", playerID, crate.WeaponType, crateID)
}

// onWeaponRespawn is called when a weapon crate respawns
func (h *WebSocketHandler) onWeaponRespawn(room *game.Room, crate *game.WeaponCrate) {
	h.broadcastWeaponRespawn(room, crate)
	log.Printf("Weapon crate %s respawned (%s)", crate.ID, crate.WeaponType)
}

// onRollEnd is called when a player's dodge roll invulnerability window closes
func (h *WebSocketHandler) onRollEnd(room *game.Room, playerID string, reason string) {
	h.broadcastRollEnd(room, playerID, reason)
}

// handlePlayerMeleeAttack processes player melee attack messages
func (h *WebSocketHandler) handlePlayerMeleeAttack(playerID string, data any) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	// Reject melee attacks after the match ends; no further kills may be recorded.
	if room.Match.IsEnded() {
		return
	}

	if err := h.validator.Validate("player-melee-attack-data", data); err != nil {
		log.Printf("Schema validation failed for player:melee_attack from %s: %v", playerID, err)
		return
	}

	dataMap := data.(map[string]interface{})
	aimAngle := dataMap["aimAngle"].(float64)

	result := room.GameServer.PlayerMeleeAttack(playerID, aimAngle)
	if !result.Success {
		log.Printf("Melee attack failed for player %s: %s", playerID, result.Reason)
		return
	}

	victimIDs := make([]string, len(result.HitPlayers))
	for i, victim := range result.HitPlayers {
		victimIDs[i] = victim.ID
	}

	h.broadcastMeleeHit(room, playerID, victimIDs, result.KnockbackApplied)

	ws := room.GameServer.GetWeaponState(playerID)
	if ws == nil {
		return
	}
	damage := ws.Weapon.Damage

	for _, victim := range result.HitPlayers {
		h.broadcastPlayerDamaged(room, playerID, victim.ID, damage, victim.Health)

		if !victim.IsAlive() {
			h.processKill(room, playerID, victim.ID)
		}
	}
}

// handlePlayerDodgeRoll processes player dodge roll requests
func (h *WebSocketHandler) handlePlayerDodgeRoll(playerID string) {
	room := h.roomManager.GetRoomByPlayerID(playerID)
	if room == nil {
		return
	}

	playerState, exists := room.GameServer.GetWorld().GetPlayer(playerID)
	if !exists {
		log.Printf("Player %s not found for dodge roll", playerID)
		return
	}

	if !playerState.CanDodgeRoll() {
		log.Printf("Player %s cannot dodge roll (cooldown or dead)", playerID)
		return
	}

	input := playerState.GetInput()
	direction := game.Vector2{X: 0, Y: 0}

	if input.Up || input.Down || input.Left || input.Right {
		if input.Up {
			direction.Y -= 1
		}
		if input.Down {
			direction.Y += 1
		}
		if input.Left {
			direction.X -= 1
		}
		if input.Right {
			direction.X += 1
		}
		length := math.Sqrt(direction.X*direction.X + direction.Y*direction.Y)
		if length > 0 {
			direction.X /= length
			direction.Y /= length
		}
	} else {
		// Stationary: roll in the aim direction
		direction.X = math.Cos(input.AimAngle)
		direction.Y = math.Sin(input.AimAngle)
	}

	playerState.StartDodgeRoll(direction)

	h.broadcastRollStart(room, playerID, direction, playerState.GetRollState().RollStartTime)

	log.Printf("Player %s started dodge roll", playerID)
}
