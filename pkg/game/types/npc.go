package types

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/cbodonnell/tileworld/pkg/clock"
	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/movement"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
)

type Mood string

const (
	MoodNeutral Mood = "neutral"
	MoodTired   Mood = "tired"
	MoodWorried Mood = "worried"
	MoodHappy   Mood = "happy"
	MoodRelaxed Mood = "relaxed"
)

// Memory is one remembered event. Importance ranges from 5 to 10.
type Memory struct {
	Event      string    `json:"event"`
	WorldTime  float64   `json:"worldTime"`
	Timestamp  time.Time `json:"timestamp"`
	Importance int       `json:"importance"`
}

// Appearance is a rendering hint.
type Appearance struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Color  string `json:"color" yaml:"color"`
}

// Landmarks resolves named locations on a screen to pixel positions.
type Landmarks map[string]kinematic.Vector

func (l Landmarks) Landmark(name string) (kinematic.Vector, bool) {
	v, ok := l[name]
	return v, ok
}

// NPCContext is what an NPC can see of the world during its update.
type NPCContext struct {
	TimeOfDay clock.TimeOfDay
	WorldTime float64
	Space     collisions.Occupier
	Dims      tilemap.Dimensions
	// Neighbors are the other NPCs sharing the screen.
	Neighbors []Character
	Landmarks Landmarks
	Rand      *rand.Rand
}

// Character is the capability set shared by every NPC variant.
type Character interface {
	Name() string
	Personality() string
	Appearance() Appearance
	HomeScreen() string
	Body() *movement.Body
	Health() (int, int)
	GetRelationship(name string) int
	UpdateRelationship(name string, delta int)
	RememberEvent(event string)
	GetRecentMemories(n int) []Memory
	TopRelationships(n int) []RelationshipSummary
	Mood() Mood
	Activity() Activity
	Update(ctx *NPCContext, dtMs float64)
}

// RelationshipSummary is a labelled relationship score.
type RelationshipSummary struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Label string `json:"label"`
}

// RelationshipLabel names a relationship score band.
func RelationshipLabel(score int) string {
	switch {
	case score > 50:
		return "close friend"
	case score > 20:
		return "friend"
	case score < -50:
		return "enemy"
	case score < -20:
		return "dislike"
	default:
		return "acquaintance"
	}
}

type NewBasicNPCOptions struct {
	Name        string
	Personality string
	Appearance  Appearance
	HomeScreen  string
	Position    kinematic.Vector
	Rand        *rand.Rand
}

// BasicNPC is a villager with memory, relationships and a simple wander.
type BasicNPC struct {
	name        string
	personality string
	appearance  Appearance
	homeScreen  string
	body        movement.Body

	hp    int
	maxHP int

	relationships map[string]int
	memories      []Memory
	mood          Mood
	activity      Activity
	worldTime     float64

	wanderTimer    float64
	wanderInterval float64
	target         *kinematic.Vector
}

func NewBasicNPC(opts NewBasicNPCOptions) *BasicNPC {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BasicNPC{
		name:        opts.Name,
		personality: opts.Personality,
		appearance:  opts.Appearance,
		homeScreen:  opts.HomeScreen,
		body: movement.Body{
			Rect:   kinematic.Rect{X: opts.Position.X, Y: opts.Position.Y, W: constants.NPCSize, H: constants.NPCSize},
			Speed:  constants.NPCSpeed,
			Facing: movement.DirectionDown,
		},
		hp:             constants.NPCHitpoints,
		maxHP:          constants.NPCHitpoints,
		relationships:  make(map[string]int),
		memories:       make([]Memory, 0, constants.NPCMemoryCap),
		mood:           MoodNeutral,
		activity:       ActivityWandering,
		wanderInterval: wanderInterval(rng),
	}
}

func wanderInterval(rng *rand.Rand) float64 {
	return constants.NPCWanderIntervalMin + rng.Float64()*constants.NPCWanderIntervalJitter
}

func (n *BasicNPC) Name() string           { return n.name }
func (n *BasicNPC) Personality() string    { return n.personality }
func (n *BasicNPC) Appearance() Appearance { return n.appearance }
func (n *BasicNPC) HomeScreen() string     { return n.homeScreen }
func (n *BasicNPC) Body() *movement.Body   { return &n.body }
func (n *BasicNPC) Mood() Mood             { return n.mood }
func (n *BasicNPC) Activity() Activity     { return n.activity }

// Health returns the current and max hp.
func (n *BasicNPC) Health() (int, int) {
	return n.hp, n.maxHP
}

// Target returns the current movement target, if any.
func (n *BasicNPC) Target() (kinematic.Vector, bool) {
	if n.target == nil {
		return kinematic.Vector{}, false
	}
	return *n.target, true
}

func (n *BasicNPC) GetRelationship(name string) int {
	return n.relationships[name]
}

// UpdateRelationship changes the score toward name by delta, clamped to [-100, 100].
// Swings larger than 10 in either direction are remembered.
func (n *BasicNPC) UpdateRelationship(name string, delta int) {
	limit := constants.NPCRelationshipLimit
	// no single update can move further than the whole range, which also keeps the sum from overflowing
	if delta > 2*limit {
		delta = 2 * limit
	}
	if delta < -2*limit {
		delta = -2 * limit
	}
	score := n.relationships[name] + delta
	if score > limit {
		score = limit
	}
	if score < -limit {
		score = -limit
	}
	n.relationships[name] = score

	if delta > constants.NPCRelationshipSwing {
		n.RememberEvent(fmt.Sprintf("My relationship with %s grew warmer", name))
	} else if delta < -constants.NPCRelationshipSwing {
		n.RememberEvent(fmt.Sprintf("My relationship with %s soured", name))
	}
}

// TopRelationships returns up to count relationships ordered by strength, strongest first.
func (n *BasicNPC) TopRelationships(count int) []RelationshipSummary {
	summaries := make([]RelationshipSummary, 0, len(n.relationships))
	for name, score := range n.relationships {
		summaries = append(summaries, RelationshipSummary{Name: name, Score: score, Label: RelationshipLabel(score)})
	}
	sort.Slice(summaries, func(i, j int) bool {
		ai, aj := abs(summaries[i].Score), abs(summaries[j].Score)
		if ai != aj {
			return ai > aj
		}
		return summaries[i].Name < summaries[j].Name
	})
	if count >= 0 && len(summaries) > count {
		summaries = summaries[:count]
	}
	return summaries
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RememberEvent appends a memory, evicting the oldest once the log is full.
func (n *BasicNPC) RememberEvent(event string) {
	n.memories = append(n.memories, Memory{
		Event:      event,
		WorldTime:  n.worldTime,
		Timestamp:  time.Now(),
		Importance: n.importance(event),
	})
	if over := len(n.memories) - constants.NPCMemoryCap; over > 0 {
		copy(n.memories, n.memories[over:])
		n.memories = n.memories[:constants.NPCMemoryCap]
	}
}

// GetRecentMemories returns up to count of the newest memories in insertion order.
func (n *BasicNPC) GetRecentMemories(count int) []Memory {
	if count > len(n.memories) {
		count = len(n.memories)
	}
	if count < 0 {
		count = 0
	}
	recent := make([]Memory, count)
	copy(recent, n.memories[len(n.memories)-count:])
	return recent
}

func (n *BasicNPC) importance(event string) int {
	if n.name != "" && strings.Contains(event, n.name) {
		return 10
	}
	lower := strings.ToLower(event)
	switch {
	case strings.Contains(lower, "combat"), strings.Contains(lower, "treasure"):
		return 8
	case strings.Contains(lower, "friend"), strings.Contains(lower, "relationship"):
		return 7
	case strings.Contains(lower, "conversation"):
		return 6
	default:
		return 5
	}
}

// moodFor derives the mood from the time of day, health and recent memories.
func (n *BasicNPC) moodFor(tod clock.TimeOfDay) Mood {
	mood := MoodNeutral
	if tod == clock.Night && !strings.Contains(strings.ToLower(n.personality), "nocturnal") {
		mood = MoodTired
	}
	if float64(n.hp) < float64(n.maxHP)*0.3 {
		mood = MoodWorried
	}
	notable := 0
	for _, m := range n.GetRecentMemories(5) {
		if m.Importance > 7 {
			notable++
		}
	}
	if notable > 2 {
		mood = MoodHappy
	}
	return mood
}

// SetHealth sets hp, clamped to [0, max].
func (n *BasicNPC) SetHealth(hp int) {
	if hp > n.maxHP {
		hp = n.maxHP
	}
	if hp < 0 {
		hp = 0
	}
	n.hp = hp
}

// Update wanders: every few seconds the NPC picks a cardinal direction and walks one to three tiles.
func (n *BasicNPC) Update(ctx *NPCContext, dtMs float64) {
	n.worldTime = ctx.WorldTime
	n.wanderTimer += dtMs
	if n.wanderTimer >= n.wanderInterval {
		n.wanderTimer = 0
		n.wanderInterval = wanderInterval(ctx.Rand)
		n.mood = n.moodFor(ctx.TimeOfDay)
		n.activity = ActivityWandering
		n.pickWanderTarget(ctx.Rand)
	}
	n.step(ctx, dtMs)
}

var cardinals = []kinematic.Vector{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: -1, Y: 0}}

func (n *BasicNPC) pickWanderTarget(rng *rand.Rand) {
	dir := cardinals[rng.Intn(len(cardinals))]
	tiles := float64(1 + rng.Intn(3))
	c := n.body.Center()
	n.setTarget(c.Add(dir.Scale(tiles * constants.TileSize)))
}

func (n *BasicNPC) setTarget(v kinematic.Vector) {
	n.target = &v
}

func (n *BasicNPC) clearTarget() {
	n.target = nil
}

// step walks toward the current target. The target is dropped once reached or when a wall stops progress.
func (n *BasicNPC) step(ctx *NPCContext, dtMs float64) {
	if n.target != nil {
		before := n.body.Rect.Position()
		remaining := movement.MoveToward(&n.body, *n.target, n.body.Speed, dtMs, ctx.Space)
		moved := n.body.Rect.Position().Sub(before).Length()
		if remaining <= constants.NPCArriveDistance || (moved == 0 && dtMs > 0) {
			n.clearTarget()
		}
	}
	movement.ClampToBounds(&n.body, ctx.Dims)
}

func distanceTo(a, b kinematic.Vector) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
