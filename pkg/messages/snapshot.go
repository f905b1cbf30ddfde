package messages

import "github.com/cbodonnell/tileworld/pkg/kinematic"

// WorldSnapshot is the read-only view of the simulation published after every tick.
type WorldSnapshot struct {
	Tick      uint64 `json:"tick"`
	Timestamp int64  `json:"timestamp"`

	WorldTime float64 `json:"worldTime"`
	Day       int     `json:"day"`
	Hour      int     `json:"hour"`
	TimeOfDay string  `json:"timeOfDay"`
	Paused    bool    `json:"paused"`
	Speed     float64 `json:"speed"`

	ActiveScreen string   `json:"activeScreen"`
	Screens      []string `json:"screens"`

	Player  *PlayerSnapshot `json:"player,omitempty"`
	NPCs    []NPCSnapshot   `json:"npcs"`
	Enemies []EnemySnapshot `json:"enemies"`
	Events  []EventSnapshot `json:"events"`

	// Focus is the NPC the player last interacted with, if still in range.
	Focus string `json:"focus,omitempty"`
}

type PlayerSnapshot struct {
	Name         string         `json:"name"`
	Rect         kinematic.Rect `json:"rect"`
	Facing       string         `json:"facing"`
	HP           int            `json:"hp"`
	MaxHP        int            `json:"maxHp"`
	Level        int            `json:"level"`
	XP           int            `json:"xp"`
	XPToNext     int            `json:"xpToNext"`
	AttackDamage int            `json:"attackDamage"`
	Attacking    bool           `json:"attacking"`
	Invulnerable bool           `json:"invulnerable"`
	DamageFlash  bool           `json:"damageFlash"`
}

type RelationshipSnapshot struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Label string `json:"label"`
}

type NPCSnapshot struct {
	Name        string         `json:"name"`
	Personality string         `json:"personality"`
	Symbol      string         `json:"symbol"`
	Color       string         `json:"color"`
	Screen      string         `json:"screen"`
	Rect        kinematic.Rect `json:"rect"`
	Facing      string         `json:"facing"`
	Mood        string         `json:"mood"`
	Activity    string         `json:"activity"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"maxHp"`
	// Relationship is the NPC's score toward the player.
	Relationship  int                    `json:"relationship"`
	Relationships []RelationshipSnapshot `json:"relationships"`
	Memories      []string               `json:"memories"`
	// Speech is the part of the NPC's last reply revealed so far.
	Speech   string `json:"speech,omitempty"`
	Speaking bool   `json:"speaking,omitempty"`
}

type EnemySnapshot struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Rect        kinematic.Rect `json:"rect"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"maxHp"`
	AI          string         `json:"ai"`
	Dying       bool           `json:"dying"`
	DamageFlash bool           `json:"damageFlash"`
}

type EventSnapshot struct {
	Text      string  `json:"text"`
	WorldTime float64 `json:"worldTime"`
	Timestamp int64   `json:"timestamp"`
}

// ScreenMap is the static tile data of one screen, served to renderers.
type ScreenMap struct {
	Name        string          `json:"name"`
	WidthTiles  int             `json:"widthTiles"`
	HeightTiles int             `json:"heightTiles"`
	TileWidth   int             `json:"tileWidth"`
	TileHeight  int             `json:"tileHeight"`
	Layers      []LayerSnapshot `json:"layers"`
	Collision   []bool          `json:"collision"`
	// DrawInfo has one entry per distinct non-empty tile ID used by the layers.
	DrawInfo map[uint32]DrawInfoSnapshot `json:"drawInfo"`
}

type LayerSnapshot struct {
	Name string   `json:"name"`
	Data []uint32 `json:"data"`
}

type DrawInfoSnapshot struct {
	Source   string `json:"source,omitempty"`
	SrcX     int    `json:"srcX"`
	SrcY     int    `json:"srcY"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Color    string `json:"color,omitempty"`
	Fallback bool   `json:"fallback"`
}
