package game

// Movement constants - must match client-side values in src/shared/constants.ts
const (
	// MovementSpeed is the maximum movement speed in pixels per second
	MovementSpeed = 200.0

	// Acceleration is the rate at which players accelerate in pixels per second squared
	Acceleration = 50.0

	// Deceleration is the rate at which players decelerate when no input
	Deceleration = 50.0
)

// Arena bounds - must match client-side values in src/shared/constants.ts
const (
	// ArenaWidth is the arena width in pixels
	ArenaWidth = 1920.0

	// ArenaHeight is the arena height in pixels
	ArenaHeight = 1080.0
)

// Network update rates
const (
	// ServerTickRate is the server physics tick rate in Hz
	ServerTickRate = 60

	// ClientUpdateRate is the rate at which clients receive position updates in Hz
	ClientUpdateRate = 20

	// ServerTickInterval is the duration between server ticks in milliseconds
	ServerTickInterval = 1000 / ServerTickRate // 16ms (integer division of 1000/60)

	// ClientUpdateInterval is the duration between client updates in milliseconds
	ClientUpdateInterval = 1000 / ClientUpdateRate // 50ms

	// SnapshotRate is the rate at which a full state snapshot is sent to bound drift, in Hz
	SnapshotRate = 1

	// SnapshotInterval is the duration between full state snapshots in milliseconds
	SnapshotInterval = 1000 / SnapshotRate // 1000ms
)

// Player appearance
const (
	// PlayerWidth is the player sprite width in pixels
	PlayerWidth = 32.0

	// PlayerHeight is the player sprite height in pixels
	PlayerHeight = 64.0
)

// Player health
const (
	// PlayerMaxHealth is the maximum health a player can have
	PlayerMaxHealth = 100
)

// Respawn system
const (
	// RespawnDelay is the time in seconds before a player respawns after death
	RespawnDelay = 3.0

	// SpawnInvulnerabilityDuration is the time in seconds of spawn protection
	SpawnInvulnerabilityDuration = 2.0
)

// Sprint
const (
	// SprintSpeed is the maximum movement speed in pixels per second while sprinting
	SprintSpeed = 320.0
)

// Dodge roll
const (
	// DodgeRollVelocity is the fixed speed in pixels per second applied during a dodge roll
	DodgeRollVelocity = 500.0

	// DodgeRollDuration is the length of a dodge roll in seconds
	DodgeRollDuration = 0.4

	// DodgeRollCooldown is the minimum time in seconds between the start of one roll and the next
	DodgeRollCooldown = 1.0
)

// Health regeneration
const (
	// HealthRegenerationDelay is the time in seconds a player must go without taking
	// damage before health regeneration begins
	HealthRegenerationDelay = 5.0

	// HealthRegenerationRate is the health regenerated per second once regeneration is active
	HealthRegenerationRate = 10.0
)

// Weapon pickup and respawn
const (
	// WeaponPickupRadius is the distance in pixels within which a player may pick up a weapon crate
	WeaponPickupRadius = 32.0

	// WeaponRespawnDelay is the time in seconds before a picked-up crate becomes available again
	WeaponRespawnDelay = 15.0
)

// Scoring
const (
	// KillXPReward is the XP awarded to the attacker for a confirmed kill
	KillXPReward = 100
)

// Rooms
const (
	// DefaultRoomCapacity is how many players share a room when ROOM_CAPACITY
	// is not configured
	DefaultRoomCapacity = 8
)
