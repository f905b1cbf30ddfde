package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/cbodonnell/tileworld/assets"
	"github.com/cbodonnell/tileworld/pkg/clock"
	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidWorld wraps every validation failure.
var ErrInvalidWorld = errors.New("invalid world")

// Edges a screen transition can be attached to.
const (
	EdgeNorth = "north"
	EdgeSouth = "south"
	EdgeEast  = "east"
	EdgeWest  = "west"
)

// World is the YAML world definition.
type World struct {
	StartScreen string             `yaml:"startScreen"`
	PlayerName  string             `yaml:"playerName"`
	Clock       ClockConfig        `yaml:"clock"`
	Collision   CollisionConfig    `yaml:"collision"`
	Screens     []ScreenConfig     `yaml:"screens"`
	Transitions []TransitionConfig `yaml:"transitions"`
	Characters  []CharacterConfig  `yaml:"characters"`
	Enemies     []EnemySpawnConfig `yaml:"enemies"`
	Dialogue    DialogueConfig     `yaml:"dialogue"`
}

type ClockConfig struct {
	DayLength float64   `yaml:"dayLength"`
	Speeds    []float64 `yaml:"speeds"`
	StartTime float64   `yaml:"startTime"`
}

// CollisionConfig is the rule table in YAML form. Rules are "never", "always" or "selective".
type CollisionConfig struct {
	Default  string            `yaml:"default"`
	Layers   map[string]string `yaml:"layers"`
	Passable []uint32          `yaml:"passable"`
}

type ScreenConfig struct {
	Name           string                      `yaml:"name"`
	Map            string                      `yaml:"map"`
	ArrivalMessage string                      `yaml:"arrivalMessage"`
	Ambient        []string                    `yaml:"ambient"`
	Landmarks      map[string]kinematic.Vector `yaml:"landmarks"`
	// SpawnZones override the default safe-spawn zones, innermost first.
	SpawnZones []collisions.Zone `yaml:"spawnZones"`
}

type TransitionConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Edge string `yaml:"edge"`
}

// TilePosition is a position in tile coordinates.
type TilePosition struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type CharacterConfig struct {
	Name        string                         `yaml:"name"`
	Personality string                         `yaml:"personality"`
	Appearance  types.Appearance               `yaml:"appearance"`
	Home        string                         `yaml:"home"`
	Start       TilePosition                   `yaml:"start"`
	Schedule    map[string]types.ScheduleEntry `yaml:"schedule"`
}

type EnemySpawnConfig struct {
	Screen string `yaml:"screen"`
	Count  int    `yaml:"count"`
	// Kinds are assigned in rotation. Empty means every kind.
	Kinds []types.EnemyKind `yaml:"kinds"`
}

type DialogueConfig struct {
	OllamaURL      string `yaml:"ollamaURL"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Parse decodes and validates a world definition.
func Parse(data []byte) (*World, error) {
	w := &World{}
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("failed to parse world: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Load reads a world definition from disk.
func Load(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded default world.
func Default() (*World, error) {
	return Parse(assets.World)
}

// Validate checks cross references between screens, transitions, characters and spawns.
func (w *World) Validate() error {
	if len(w.Screens) == 0 {
		return fmt.Errorf("%w: no screens", ErrInvalidWorld)
	}
	screens := make(map[string]bool, len(w.Screens))
	for _, s := range w.Screens {
		if s.Name == "" {
			return fmt.Errorf("%w: screen without a name", ErrInvalidWorld)
		}
		if screens[s.Name] {
			return fmt.Errorf("%w: duplicate screen %q", ErrInvalidWorld, s.Name)
		}
		screens[s.Name] = true
	}
	if w.StartScreen == "" {
		w.StartScreen = w.Screens[0].Name
	}
	if !screens[w.StartScreen] {
		return fmt.Errorf("%w: unknown start screen %q", ErrInvalidWorld, w.StartScreen)
	}

	if w.Clock.DayLength < 0 {
		return fmt.Errorf("%w: day length must be positive, got %g", ErrInvalidWorld, w.Clock.DayLength)
	}
	if w.Clock.DayLength == 0 {
		w.Clock.DayLength = clock.DefaultDayLength
	}
	if w.Clock.StartTime < 0 {
		return fmt.Errorf("%w: start time must not be negative, got %g", ErrInvalidWorld, w.Clock.StartTime)
	}
	for _, speed := range w.Clock.Speeds {
		if speed <= 0 {
			return fmt.Errorf("%w: speed must be positive, got %g", ErrInvalidWorld, speed)
		}
	}

	if _, err := w.RuleTable(); err != nil {
		return err
	}

	for _, t := range w.Transitions {
		if !screens[t.From] || !screens[t.To] {
			return fmt.Errorf("%w: transition %s -> %s references an unknown screen", ErrInvalidWorld, t.From, t.To)
		}
		switch t.Edge {
		case EdgeNorth, EdgeSouth, EdgeEast, EdgeWest:
		default:
			return fmt.Errorf("%w: transition %s -> %s has unknown edge %q", ErrInvalidWorld, t.From, t.To, t.Edge)
		}
	}

	names := make(map[string]bool, len(w.Characters))
	for _, c := range w.Characters {
		if c.Name == "" {
			return fmt.Errorf("%w: character without a name", ErrInvalidWorld)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate character %q", ErrInvalidWorld, c.Name)
		}
		names[c.Name] = true
		if !screens[c.Home] {
			return fmt.Errorf("%w: character %s has unknown home %q", ErrInvalidWorld, c.Name, c.Home)
		}
		for key := range c.Schedule {
			if _, err := clock.ParseTimeOfDay(key); err != nil {
				return fmt.Errorf("%w: character %s: %v", ErrInvalidWorld, c.Name, err)
			}
		}
	}

	for _, e := range w.Enemies {
		if !screens[e.Screen] {
			return fmt.Errorf("%w: enemies on unknown screen %q", ErrInvalidWorld, e.Screen)
		}
		for _, kind := range e.Kinds {
			if _, err := types.StatsFor(kind); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidWorld, err)
			}
		}
	}
	return nil
}

// RuleTable builds the collision rule table. Missing entries keep the built-in defaults.
func (w *World) RuleTable() (*tilemap.RuleTable, error) {
	table := tilemap.DefaultRules()
	if w.Collision.Default != "" {
		rule, err := tilemap.ParseRule(w.Collision.Default)
		if err != nil {
			return nil, fmt.Errorf("%w: default collision rule: %v", ErrInvalidWorld, err)
		}
		table.Default = rule
	}
	for layer, name := range w.Collision.Layers {
		rule, err := tilemap.ParseRule(name)
		if err != nil {
			return nil, fmt.Errorf("%w: collision rule for layer %s: %v", ErrInvalidWorld, layer, err)
		}
		table.Layers[layer] = rule
	}
	for _, id := range w.Collision.Passable {
		table.Passable[id] = struct{}{}
	}
	return table, nil
}

// ScheduleTable converts a character's schedule. Entries with unknown activities are kept so the
// NPC falls back to wandering at run time.
func (c CharacterConfig) ScheduleTable() types.Schedule {
	schedule := make(types.Schedule, len(c.Schedule))
	for key, entry := range c.Schedule {
		tod, err := clock.ParseTimeOfDay(key)
		if err != nil {
			continue
		}
		schedule[tod] = entry
	}
	return schedule
}

// Screen returns the screen config with the given name.
func (w *World) Screen(name string) (ScreenConfig, bool) {
	for _, s := range w.Screens {
		if s.Name == name {
			return s, true
		}
	}
	return ScreenConfig{}, false
}
