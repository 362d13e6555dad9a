package network

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/stickarena/arena-server/internal/game"
)

// broadcastPlayerStates sends player position updates to every player in room
func (h *WebSocketHandler) broadcastPlayerStates(room *game.Room, playerStates []game.PlayerStateSnapshot) {
	if len(playerStates) == 0 {
		return
	}

	// Validate player states for NaN/Inf values before marshaling
	for i := range playerStates {
		state := &playerStates[i]
		if math.IsNaN(state.Position.X) || math.IsNaN(state.Position.Y) ||
			math.IsInf(state.Position.X, 0) || math.IsInf(state.Position.Y, 0) {
			log.Printf("ERROR: Player %s has invalid position: %+v", state.ID, state.Position)
		}
		if math.IsNaN(state.Velocity.X) || math.IsNaN(state.Velocity.Y) ||
			math.IsInf(state.Velocity.X, 0) || math.IsInf(state.Velocity.Y, 0) {
			log.Printf("ERROR: Player %s has invalid velocity: %+v", state.ID, state.Velocity)
		}
		if math.IsNaN(state.AimAngle) || math.IsInf(state.AimAngle, 0) {
			log.Printf("ERROR: Player %s has invalid aimAngle: %v", state.ID, state.AimAngle)
			// Sanitize aim angle to prevent JSON marshal error
			state.AimAngle = 0
		}
	}

	lastProcessed := make(map[string]uint64, len(playerStates))
	for _, state := range playerStates {
		lastProcessed[state.ID] = state.LastProcessedSequence
	}

	data := map[string]interface{}{
		"players":               playerStates,
		"lastProcessedSequence": lastProcessed,
	}

	if err := h.validateOutgoingMessage("player:move", data); err != nil {
		log.Printf("Schema validation failed for player:move: %v", err)
	}

	message := Message{
		Type:      "player:move",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling player:move message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastStateDeltas sends each player in room only the players and
// projectiles that changed since that player's last delta or snapshot, per
// the DeltaTracker owned by the room. Clients with nothing new to see get no
// message this tick.
func (h *WebSocketHandler) broadcastStateDeltas(room *game.Room, playerStates []game.PlayerStateSnapshot) {
	tracker := h.deltaTrackerFor(room.ID)
	projectiles := room.GameServer.GetActiveProjectiles()

	for _, player := range room.GetPlayers() {
		changedPlayers := tracker.ComputePlayerDelta(player.ID, playerStates)
		addedProjectiles, removedProjectiles := tracker.ComputeProjectileDelta(player.ID, projectiles)

		tracker.UpdatePlayerState(player.ID, playerStates)
		tracker.UpdateProjectileState(player.ID, projectiles)

		if len(changedPlayers) == 0 && len(addedProjectiles) == 0 && len(removedProjectiles) == 0 {
			continue
		}

		data := map[string]interface{}{
			"players": changedPlayers,
		}
		if len(addedProjectiles) > 0 {
			data["projectilesAdded"] = addedProjectiles
		}
		if len(removedProjectiles) > 0 {
			data["projectilesRemoved"] = removedProjectiles
		}

		message := Message{
			Type:      "state:delta",
			Timestamp: time.Now().UnixMilli(),
			Data:      data,
		}

		msgBytes, err := json.Marshal(message)
		if err != nil {
			log.Printf("Error marshaling state:delta message: %v", err)
			continue
		}

		player.Send(msgBytes, false)
	}
}

// broadcastStateSnapshot sends every player in room the full authoritative
// state at SnapshotRate, bounding how far a client's delta-derived view can
// drift from the server's. Resets each client's delta baseline.
func (h *WebSocketHandler) broadcastStateSnapshot(room *game.Room, playerStates []game.PlayerStateSnapshot) {
	tracker := h.deltaTrackerFor(room.ID)
	projectiles := room.GameServer.GetActiveProjectiles()

	data := map[string]interface{}{
		"players":     playerStates,
		"projectiles": projectiles,
	}

	if err := h.validateOutgoingMessage("state:snapshot", data); err != nil {
		log.Printf("Schema validation failed for state:snapshot: %v", err)
	}

	message := Message{
		Type:      "state:snapshot",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling state:snapshot message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)

	for _, player := range room.GetPlayers() {
		tracker.UpdateLastSnapshot(player.ID)
		tracker.UpdatePlayerState(player.ID, playerStates)
		tracker.UpdateProjectileState(player.ID, projectiles)
	}
}

// sendInitialSnapshot gives a newly joined player the full current state
// immediately instead of making them wait for the next SnapshotRate tick.
func (h *WebSocketHandler) sendInitialSnapshot(room *game.Room, playerID string) {
	tracker := h.deltaTrackerFor(room.ID)
	if !tracker.ShouldSendSnapshot(playerID) {
		return
	}

	playerStates := room.GameServer.GetWorld().GetAllPlayers()
	projectiles := room.GameServer.GetActiveProjectiles()

	message := Message{
		Type:      "state:snapshot",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"players":     playerStates,
			"projectiles": projectiles,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling state:snapshot message: %v", err)
		return
	}

	h.roomManager.SendToPlayer(playerID, msgBytes, true)

	tracker.UpdateLastSnapshot(playerID)
	tracker.UpdatePlayerState(playerID, playerStates)
	tracker.UpdateProjectileState(playerID, projectiles)
}

// broadcastProjectileSpawn sends a projectile spawn event to everyone in room
func (h *WebSocketHandler) broadcastProjectileSpawn(room *game.Room, proj *game.Projectile) {
	data := map[string]interface{}{
		"id":       proj.ID,
		"ownerId":  proj.OwnerID,
		"position": proj.Position,
		"velocity": proj.Velocity,
	}

	if err := h.validateOutgoingMessage("projectile:spawn", data); err != nil {
		log.Printf("Schema validation failed for projectile:spawn: %v", err)
	}

	message := Message{
		Type:      "projectile:spawn",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling projectile:spawn message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastMatchTimers broadcasts timer updates to all active rooms
func (h *WebSocketHandler) broadcastMatchTimers() {
	rooms := h.roomManager.GetAllRooms()

	for _, room := range rooms {
		// Skip if match ended
		if room.Match.IsEnded() {
			continue
		}

		remainingSeconds := room.Match.GetRemainingSeconds()

		// Create match:timer message
		timerMessage := Message{
			Type:      "match:timer",
			Timestamp: time.Now().UnixMilli(),
			Data: map[string]interface{}{
				"remainingSeconds": remainingSeconds,
			},
		}

		msgBytes, err := json.Marshal(timerMessage)
		if err != nil {
			log.Printf("Error marshaling match:timer message: %v", err)
			continue
		}

		room.Broadcast(msgBytes, "", false)

		// Check if time limit reached
		if room.Match.CheckTimeLimit() {
			room.Match.EndMatch("time_limit")
			log.Printf("Match ended in room %s: time limit reached", room.ID)
			h.broadcastMatchEnded(room, room.GameServer.GetWorld())
		}
	}
}

// sendWeaponState sends weapon state update to a specific player in room
func (h *WebSocketHandler) sendWeaponState(room *game.Room, playerID string) {
	ws := room.GameServer.GetWeaponState(playerID)
	if ws == nil {
		return
	}

	current, max := ws.GetAmmoInfo()
	message := Message{
		Type:      "weapon:state",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"currentAmmo": current,
			"maxAmmo":     max,
			"isReloading": ws.IsReloading,
			"canShoot":    ws.CanShoot(),
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling weapon:state message: %v", err)
		return
	}

	h.roomManager.SendToPlayer(playerID, msgBytes, false)
}

// sendShootFailed sends a shoot failure message to the player
func (h *WebSocketHandler) sendShootFailed(playerID string, reason string) {
	message := Message{
		Type:      "shoot:failed",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling shoot:failed message: %v", err)
		return
	}

	h.roomManager.SendToPlayer(playerID, msgBytes, false)
}

// broadcastMatchEnded broadcasts match end event to all players in a room.
// match:ended is critical: a client that misses it never learns who won.
func (h *WebSocketHandler) broadcastMatchEnded(room *game.Room, world *game.World) {
	winners := room.Match.DetermineWinners()
	finalScores := room.Match.GetFinalScores(world)

	data := map[string]interface{}{
		"winners":     winners,
		"finalScores": finalScores,
		"reason":      room.Match.EndReason,
	}

	if err := h.validateOutgoingMessage("match:ended", data); err != nil {
		log.Printf("Schema validation failed for match:ended: %v", err)
	}

	message := Message{
		Type:      "match:ended",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling match:ended message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", true)
	log.Printf("Match ended in room %s - reason: %s, winners: %v", room.ID, room.Match.EndReason, winners)
}

// broadcastWeaponPickup broadcasts a confirmed weapon pickup to room. This is
// critical: the picker's client needs it to reconcile its weapon state.
func (h *WebSocketHandler) broadcastWeaponPickup(room *game.Room, playerID, crateID, weaponType string, respawnTime time.Time) {
	message := Message{
		Type:      "weapon:pickup_confirmed",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"playerId":        playerID,
			"crateId":         crateID,
			"weaponType":      weaponType,
			"nextRespawnTime": respawnTime.UnixMilli(),
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling weapon:pickup_confirmed message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", true)
}

// broadcastWeaponRespawn broadcasts a weapon crate respawn to room
func (h *WebSocketHandler) broadcastWeaponRespawn(room *game.Room, crate *game.WeaponCrate) {
	message := Message{
		Type:      "weapon:respawned",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"crateId":    crate.ID,
			"weaponType": crate.WeaponType,
			"position":   crate.Position,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling weapon:respawned message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastMeleeHit broadcasts a melee swing and its victims to room
func (h *WebSocketHandler) broadcastMeleeHit(room *game.Room, attackerID string, victimIDs []string, knockbackApplied bool) {
	message := Message{
		Type:      "melee:hit",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"attackerId":       attackerID,
			"victimIds":        victimIDs,
			"knockbackApplied": knockbackApplied,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling melee:hit message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastPlayerDamaged broadcasts a player:damaged event to room
func (h *WebSocketHandler) broadcastPlayerDamaged(room *game.Room, attackerID, victimID string, damage, newHealth int) {
	data := map[string]interface{}{
		"victimId":   victimID,
		"attackerId": attackerID,
		"damage":     damage,
		"newHealth":  newHealth,
	}

	if err := h.validateOutgoingMessage("player:damaged", data); err != nil {
		log.Printf("Schema validation failed for player:damaged: %v", err)
	}

	message := Message{
		Type:      "player:damaged",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling player:damaged message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastRollStart broadcasts that a player has begun a dodge roll
func (h *WebSocketHandler) broadcastRollStart(room *game.Room, playerID string, direction game.Vector2, startTime time.Time) {
	message := Message{
		Type:      "roll:start",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"playerId":  playerID,
			"direction": direction,
			"startTime": startTime.UnixMilli(),
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling roll:start message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// broadcastRollEnd broadcasts that a player's dodge roll has ended
func (h *WebSocketHandler) broadcastRollEnd(room *game.Room, playerID string, reason string) {
	message := Message{
		Type:      "roll:end",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"playerId": playerID,
			"reason":   reason,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling roll:end message: %v", err)
		return
	}

	room.Broadcast(msgBytes, "", false)
}

// sendWeaponSpawns sends initial weapon spawn state to a specific player
func (h *WebSocketHandler) sendWeaponSpawns(room *game.Room, playerID string) {
	allCrates := room.GameServer.GetWeaponCrateManager().GetAllCrates()

	crates := make([]map[string]interface{}, 0, len(allCrates))
	for _, crate := range allCrates {
		crateData := map[string]interface{}{
			"id":          crate.ID,
			"position":    map[string]interface{}{"x": crate.Position.X, "y": crate.Position.Y},
			"weaponType":  crate.WeaponType,
			"isAvailable": crate.IsAvailable,
		}
		crates = append(crates, crateData)
	}

	message := Message{
		Type:      "weapon:spawned",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"crates": crates,
		},
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling weapon:spawned message: %v", err)
		return
	}

	h.roomManager.SendToPlayer(playerID, msgBytes, false)
}
