package tilemap

import (
	"fmt"
	"strings"
)

// Rule decides how a layer contributes to the collision grid.
type Rule uint8

const (
	// RuleNever layers never block movement.
	RuleNever Rule = iota
	// RuleAlways layers block movement on every non-empty tile.
	RuleAlways
	// RuleSelective layers block movement on every non-empty tile except the passable exceptions.
	RuleSelective
)

func (r Rule) String() string {
	switch r {
	case RuleNever:
		return "never"
	case RuleAlways:
		return "always"
	case RuleSelective:
		return "selective"
	default:
		return "unknown"
	}
}

// ParseRule parses a rule name: never, always or selective.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return RuleNever, nil
	case "always":
		return RuleAlways, nil
	case "selective":
		return RuleSelective, nil
	default:
		return RuleNever, fmt.Errorf("unknown collision rule: %q", s)
	}
}

// RuleTable maps layer names to collision rules.
type RuleTable struct {
	// Layers holds the rule for every known layer name.
	Layers map[string]Rule
	// Passable lists tile IDs that stay walkable on selective layers.
	Passable map[uint32]struct{}
	// Default applies to layers missing from Layers. RuleNever means unknown layers are ignored.
	Default Rule
}

// DefaultUnlistedLayerRule is the rule used for layers the table does not name.
const DefaultUnlistedLayerRule = RuleNever

// DefaultRules returns the standard rule table for the town and forest maps.
func DefaultRules() *RuleTable {
	return &RuleTable{
		Layers: map[string]Rule{
			"ground":    RuleNever,
			"buildings": RuleAlways,
			"trees":     RuleAlways,
			"walls":     RuleAlways,
			"objects":   RuleSelective,
			"overlay":   RuleNever,
		},
		Passable: make(map[uint32]struct{}),
		Default:  DefaultUnlistedLayerRule,
	}
}

// RuleFor returns the rule applied to the named layer.
func (t *RuleTable) RuleFor(layer string) Rule {
	if rule, ok := t.Layers[layer]; ok {
		return rule
	}
	return t.Default
}

// IsPassable reports whether a tile ID is listed as an exception on selective layers.
func (t *RuleTable) IsPassable(tileID uint32) bool {
	_, ok := t.Passable[tileID]
	return ok
}

// Solid reports whether a tile on the named layer blocks movement.
func (t *RuleTable) Solid(layer string, tileID uint32) bool {
	if tileID == 0 {
		return false
	}
	switch t.RuleFor(layer) {
	case RuleAlways:
		return true
	case RuleSelective:
		return !t.IsPassable(tileID)
	default:
		return false
	}
}

// Clone returns a deep copy of the table.
func (t *RuleTable) Clone() *RuleTable {
	clone := &RuleTable{
		Layers:   make(map[string]Rule, len(t.Layers)),
		Passable: make(map[uint32]struct{}, len(t.Passable)),
		Default:  t.Default,
	}
	for name, rule := range t.Layers {
		clone.Layers[name] = rule
	}
	for id := range t.Passable {
		clone.Passable[id] = struct{}{}
	}
	return clone
}
