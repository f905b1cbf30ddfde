package game

import (
	"time"

	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/messages"
)

const (
	snapshotMemories      = 5
	snapshotRelationships = 3
)

// Snapshot captures the simulation for renderers and the dialogue surface.
// Only enemies on the active screen are included; NPCs are included everywhere, tagged with their screen.
func (gm *GameManager) Snapshot(t time.Time) *messages.WorldSnapshot {
	active := gm.screens.Active()
	s := &messages.WorldSnapshot{
		Tick:         gm.tick,
		Timestamp:    t.UnixMilli(),
		WorldTime:    gm.clock.WorldTime(),
		Day:          gm.clock.Day(),
		Hour:         gm.clock.Hour(),
		TimeOfDay:    gm.clock.TimeOfDay().String(),
		Paused:       gm.clock.Paused(),
		Speed:        gm.clock.Speed(),
		ActiveScreen: active.Name,
		Screens:      gm.screens.Names(),
		NPCs:         make([]messages.NPCSnapshot, 0, len(gm.npcs)),
		Enemies:      make([]messages.EnemySnapshot, 0, len(active.Enemies)),
		Focus:        gm.focus,
	}

	playerName := gm.world.PlayerName
	if gm.player != nil {
		playerName = gm.player.Name
		s.Player = PlayerSnapshotFromPlayer(gm.player)
	}
	for _, npc := range gm.npcs {
		snap := NPCSnapshotFromCharacter(npc, playerName)
		if tw, ok := gm.speech[npc.Name()]; ok {
			snap.Speech = tw.Visible()
			snap.Speaking = !tw.Done()
		}
		s.NPCs = append(s.NPCs, snap)
	}
	for _, e := range active.Enemies {
		s.Enemies = append(s.Enemies, EnemySnapshotFromEnemy(e))
	}
	for _, e := range gm.events.Events() {
		s.Events = append(s.Events, messages.EventSnapshot{
			Text:      e.Text,
			WorldTime: e.WorldTime,
			Timestamp: e.Timestamp.UnixMilli(),
		})
	}
	return s
}

func PlayerSnapshotFromPlayer(p *types.Player) *messages.PlayerSnapshot {
	return &messages.PlayerSnapshot{
		Name:         p.Name,
		Rect:         p.Body.Rect,
		Facing:       p.Body.Facing.String(),
		HP:           p.HP,
		MaxHP:        p.MaxHP,
		Level:        p.Level,
		XP:           p.XP,
		XPToNext:     p.XPToNext,
		AttackDamage: p.AttackDamage,
		Attacking:    p.Attacking,
		Invulnerable: p.Invulnerable,
		DamageFlash:  p.DamageFlash,
	}
}

// NPCSnapshotFromCharacter captures an NPC, including its standing with the named player.
func NPCSnapshotFromCharacter(c types.Character, playerName string) messages.NPCSnapshot {
	hp, maxHP := c.Health()
	body := c.Body()
	appearance := c.Appearance()

	memories := c.GetRecentMemories(snapshotMemories)
	events := make([]string, len(memories))
	for i, m := range memories {
		events[i] = m.Event
	}
	top := c.TopRelationships(snapshotRelationships)
	relationships := make([]messages.RelationshipSnapshot, len(top))
	for i, r := range top {
		relationships[i] = messages.RelationshipSnapshot{Name: r.Name, Score: r.Score, Label: r.Label}
	}

	return messages.NPCSnapshot{
		Name:          c.Name(),
		Personality:   c.Personality(),
		Symbol:        appearance.Symbol,
		Color:         appearance.Color,
		Screen:        c.HomeScreen(),
		Rect:          body.Rect,
		Facing:        body.Facing.String(),
		Mood:          string(c.Mood()),
		Activity:      string(c.Activity()),
		HP:            hp,
		MaxHP:         maxHP,
		Relationship:  c.GetRelationship(playerName),
		Relationships: relationships,
		Memories:      events,
	}
}

func EnemySnapshotFromEnemy(e *types.Enemy) messages.EnemySnapshot {
	return messages.EnemySnapshot{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Rect:        e.Body.Rect,
		HP:          e.HP,
		MaxHP:       e.MaxHP,
		AI:          e.AI.String(),
		Dying:       e.Dying,
		DamageFlash: e.DamageFlash,
	}
}

// ScreenMapFromScreen captures the static tile data of a screen with draw info for every tile ID it uses.
func ScreenMapFromScreen(s *Screen) *messages.ScreenMap {
	dims := s.Dimensions()
	out := &messages.ScreenMap{
		Name:        s.Name,
		WidthTiles:  dims.WidthTiles,
		HeightTiles: dims.HeightTiles,
		TileWidth:   dims.TileWidth,
		TileHeight:  dims.TileHeight,
		Collision:   s.Map.CollisionGrid(),
		DrawInfo:    make(map[uint32]messages.DrawInfoSnapshot),
	}
	for _, name := range s.Map.LayerNames() {
		layer, ok := s.Map.Layer(name)
		if !ok {
			continue
		}
		out.Layers = append(out.Layers, messages.LayerSnapshot{Name: name, Data: layer.Data})
		for _, id := range layer.Data {
			if id == 0 {
				continue
			}
			if _, seen := out.DrawInfo[id]; seen {
				continue
			}
			info := s.Map.DrawInfo(id)
			out.DrawInfo[id] = messages.DrawInfoSnapshot{
				Source:   info.Source,
				SrcX:     info.SrcX,
				SrcY:     info.SrcY,
				Width:    info.Width,
				Height:   info.Height,
				Color:    info.Color,
				Fallback: info.Fallback,
			}
		}
	}
	return out
}
