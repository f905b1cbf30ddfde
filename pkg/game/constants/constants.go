package constants

const (
	// TileSize is the edge length of a map tile in pixels
	TileSize float64 = 32.0

	// PlayerSpeed is the speed at which the player moves in pixels per second
	PlayerSpeed float64 = 150.0
	// PlayerSize is the width and height of the player
	PlayerSize float64 = TileSize * 0.75
	// PlayerHitpoints is the starting max hp
	PlayerHitpoints int = 100
	// PlayerStartingXPToNext is the xp needed to reach level 2
	PlayerStartingXPToNext int = 100
	// PlayerAttackDamage is the starting damage of a player attack
	PlayerAttackDamage int = 25
	// PlayerAttackRange is the side of the square attack hitbox
	PlayerAttackRange float64 = TileSize * 1.2
	// PlayerAttackCooldown is the time between attacks in milliseconds
	PlayerAttackCooldown float64 = 500
	// PlayerAttackDuration is how long an attack stays active in milliseconds
	PlayerAttackDuration float64 = 200
	// PlayerInvulnerabilityDuration is the grace period after taking damage in milliseconds
	PlayerInvulnerabilityDuration float64 = 1000
	// PlayerDamageFlashDuration is in milliseconds
	PlayerDamageFlashDuration float64 = 100
	// PlayerKnockbackSpeed is the initial knockback speed in pixels per second
	PlayerKnockbackSpeed float64 = 150
	// PlayerKnockbackDuration is in milliseconds
	PlayerKnockbackDuration float64 = 200

	// Level-up growth
	LevelUpXPMultiplier float64 = 1.5
	LevelUpMaxHitpoints int     = 20
	LevelUpAttackDamage int     = 5

	// EnemySize is the width and height of an enemy
	EnemySize float64 = TileSize * 0.7
	// EnemyAttackRange is the distance at which an enemy can hit the player
	EnemyAttackRange float64 = TileSize * 0.8
	// EnemyAttackCooldown is in milliseconds
	EnemyAttackCooldown float64 = 1000
	// EnemyAlertRange is the distance at which a patrolling enemy starts chasing
	EnemyAlertRange float64 = TileSize * 5
	// EnemyGiveUpFactor scales the alert range to get the distance at which a chase ends
	EnemyGiveUpFactor float64 = 1.5
	// EnemyApproachFactor scales the attack range to get the distance at which a chasing enemy stops closing in
	EnemyApproachFactor float64 = 0.8
	// EnemyPatrolRadius is how far patrol targets are picked from the enemy
	EnemyPatrolRadius float64 = TileSize * 3
	// EnemyPatrolSpeedFactor scales speed while patrolling
	EnemyPatrolSpeedFactor float64 = 0.7
	// EnemyPatrolIntervalMin and EnemyPatrolIntervalJitter bound the patrol re-roll interval in milliseconds
	EnemyPatrolIntervalMin    float64 = 3000
	EnemyPatrolIntervalJitter float64 = 2000
	// EnemyDamageFlashDuration is in milliseconds
	EnemyDamageFlashDuration float64 = 150
	// EnemyKnockbackSpeed is the initial knockback speed in pixels per second
	EnemyKnockbackSpeed float64 = 240
	// EnemyKnockbackDuration is in milliseconds
	EnemyKnockbackDuration float64 = 300
	// EnemyDeathDuration is how long a dying enemy stays on screen in milliseconds
	EnemyDeathDuration float64 = 500

	// KnockbackDamping is the exponential velocity decay rate per second
	KnockbackDamping float64 = 9.75
	// KnockbackStopSpeed ends a knockback once its speed in pixels per second falls below it
	KnockbackStopSpeed float64 = 6

	// NPCSize is the width and height of an NPC
	NPCSize float64 = TileSize * 0.8
	// NPCSpeed is in pixels per second
	NPCSpeed float64 = 80
	// NPCHitpoints is the max hp of an NPC
	NPCHitpoints int = 100
	// NPCMemoryCap is the number of memories an NPC keeps
	NPCMemoryCap int = 50
	// NPCRelationshipLimit bounds relationship scores in both directions
	NPCRelationshipLimit int = 100
	// NPCRelationshipSwing is the change above which a relationship update is remembered
	NPCRelationshipSwing int = 10
	// NPCWanderIntervalMin and NPCWanderIntervalJitter bound the movement re-roll interval in milliseconds
	NPCWanderIntervalMin    float64 = 3000
	NPCWanderIntervalJitter float64 = 4000
	// NPCDecisionIntervalMin and NPCDecisionIntervalJitter bound the schedule re-evaluation interval in milliseconds
	NPCDecisionIntervalMin    float64 = 4000
	NPCDecisionIntervalJitter float64 = 4000
	// NPCSocialRadius is how far a socializing NPC looks for company
	NPCSocialRadius float64 = TileSize * 5
	// NPCMinApproach is the closest a socializing NPC walks up to another
	NPCMinApproach float64 = TileSize
	// NPCSocialApproachFraction is the part of the gap a socializing NPC closes per target
	NPCSocialApproachFraction float64 = 0.5
	// NPCJitterRadius bounds the wander of NPCs at work
	NPCJitterRadius float64 = TileSize * 0.5
	// NPCExploreMin and NPCExploreJitter bound exploration distance
	NPCExploreMin    float64 = TileSize
	NPCExploreJitter float64 = TileSize * 2
	// NPCArriveDistance is how close an NPC must get to a target to consider it reached
	NPCArriveDistance float64 = 2

	// DialogueRange is the center distance under which the player can talk to an NPC
	DialogueRange float64 = TileSize * 2

	// MaxEvents is the length of the world event log
	MaxEvents int = 20
	// AmbientEventChance is the per-tick probability of an ambient event at 1x speed
	AmbientEventChance float64 = 0.0001
)
