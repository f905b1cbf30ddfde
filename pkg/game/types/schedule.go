package types

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cbodonnell/tileworld/pkg/clock"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/log"
)

// ErrInvalidScheduleEntry marks a schedule entry that cannot be followed. NPCs wander instead.
var ErrInvalidScheduleEntry = errors.New("invalid schedule entry")

type Activity string

const (
	ActivityWorking     Activity = "working"
	ActivityStudying    Activity = "studying"
	ActivityTrading     Activity = "trading"
	ActivityExploring   Activity = "exploring"
	ActivityWandering   Activity = "wandering"
	ActivitySocializing Activity = "socializing"
	ActivityResting     Activity = "resting"
	ActivitySleeping    Activity = "sleeping"
)

// Policy is how an activity translates into movement.
type Policy uint8

const (
	PolicyWander Policy = iota
	PolicyStationary
	PolicyExplore
	PolicySocial
	PolicyRest
)

var activityPolicies = map[Activity]Policy{
	ActivityWorking:     PolicyStationary,
	ActivityStudying:    PolicyStationary,
	ActivityTrading:     PolicyStationary,
	ActivityExploring:   PolicyExplore,
	ActivityWandering:   PolicyExplore,
	ActivitySocializing: PolicySocial,
	ActivityResting:     PolicyRest,
	ActivitySleeping:    PolicyRest,
}

// PolicyFor returns the movement policy for an activity.
func PolicyFor(a Activity) (Policy, error) {
	p, ok := activityPolicies[a]
	if !ok {
		return PolicyWander, fmt.Errorf("%w: unknown activity %q", ErrInvalidScheduleEntry, a)
	}
	return p, nil
}

// ScheduleEntry is what an NPC does during one time-of-day band, and where.
// An empty Location means wherever the NPC happens to be.
type ScheduleEntry struct {
	Activity Activity `json:"activity" yaml:"activity"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty"`
}

// Schedule maps time-of-day bands to entries.
type Schedule map[clock.TimeOfDay]ScheduleEntry

// ScheduledNPC follows a daily schedule. Memory, relationships and movement come from the wrapped BasicNPC.
type ScheduledNPC struct {
	*BasicNPC

	schedule Schedule

	decisionTimer    float64
	decisionInterval float64
	lastTimeOfDay    clock.TimeOfDay
	decided          bool

	policy Policy
	anchor *kinematic.Vector
}

func NewScheduledNPC(base *BasicNPC, schedule Schedule, rng *rand.Rand) *ScheduledNPC {
	if schedule == nil {
		schedule = Schedule{}
	}
	return &ScheduledNPC{
		BasicNPC:         base,
		schedule:         schedule,
		decisionInterval: decisionInterval(rng),
		policy:           PolicyWander,
	}
}

func decisionInterval(rng *rand.Rand) float64 {
	return constants.NPCDecisionIntervalMin + rng.Float64()*constants.NPCDecisionIntervalJitter
}

// Schedule returns the NPC's schedule.
func (n *ScheduledNPC) Schedule() Schedule {
	return n.schedule
}

// Policy returns the movement policy currently in force.
func (n *ScheduledNPC) Policy() Policy {
	return n.policy
}

// Update re-evaluates the schedule on the decision timer or when the time of day changes, and
// re-picks a movement target on the independent wander timer.
func (n *ScheduledNPC) Update(ctx *NPCContext, dtMs float64) {
	n.worldTime = ctx.WorldTime
	n.decisionTimer += dtMs
	if !n.decided || n.decisionTimer >= n.decisionInterval || ctx.TimeOfDay != n.lastTimeOfDay {
		n.decide(ctx)
	}

	n.wanderTimer += dtMs
	if n.wanderTimer >= n.wanderInterval {
		n.wanderTimer = 0
		n.wanderInterval = wanderInterval(ctx.Rand)
		n.pickTarget(ctx)
	}
	n.step(ctx, dtMs)
}

func (n *ScheduledNPC) decide(ctx *NPCContext) {
	n.decided = true
	n.decisionTimer = 0
	n.decisionInterval = decisionInterval(ctx.Rand)
	changed := ctx.TimeOfDay != n.lastTimeOfDay
	n.lastTimeOfDay = ctx.TimeOfDay

	activity, policy, anchor, err := n.resolve(ctx)
	if err != nil {
		log.Component("npc").Debug("%s falls back to wandering: %v", n.name, err)
	}
	if changed || activity != n.activity {
		n.clearTarget()
		// pick a fresh target right away instead of waiting out the wander timer
		n.wanderTimer = n.wanderInterval
	}
	n.activity = activity
	n.policy = policy
	n.anchor = anchor

	n.mood = n.moodFor(ctx.TimeOfDay)
	if policy == PolicyRest {
		n.clearTarget()
		n.mood = MoodRelaxed
		n.SetHealth(n.hp + 1)
	}
}

// resolve looks up the entry for the current time of day. Missing or broken entries
// resolve to wandering with ErrInvalidScheduleEntry.
func (n *ScheduledNPC) resolve(ctx *NPCContext) (Activity, Policy, *kinematic.Vector, error) {
	entry, ok := n.schedule[ctx.TimeOfDay]
	if !ok {
		return ActivityWandering, PolicyExplore, nil, fmt.Errorf("%w: nothing scheduled for %s", ErrInvalidScheduleEntry, ctx.TimeOfDay)
	}
	policy, err := PolicyFor(entry.Activity)
	if err != nil {
		return ActivityWandering, PolicyExplore, nil, err
	}
	if entry.Location == "" {
		return entry.Activity, policy, nil, nil
	}
	pos, ok := ctx.Landmarks.Landmark(entry.Location)
	if !ok {
		return ActivityWandering, PolicyExplore, nil, fmt.Errorf("%w: unknown location %q", ErrInvalidScheduleEntry, entry.Location)
	}
	return entry.Activity, policy, &pos, nil
}

func (n *ScheduledNPC) pickTarget(ctx *NPCContext) {
	c := n.body.Center()
	// head for the scheduled location first
	if n.anchor != nil && n.policy != PolicyRest && distanceTo(c, *n.anchor) > 2*constants.TileSize {
		n.setTarget(*n.anchor)
		return
	}

	switch n.policy {
	case PolicyRest:
		n.clearTarget()
	case PolicyStationary:
		n.setTarget(kinematic.Vector{
			X: c.X + (ctx.Rand.Float64()*2-1)*constants.NPCJitterRadius,
			Y: c.Y + (ctx.Rand.Float64()*2-1)*constants.NPCJitterRadius,
		})
	case PolicySocial:
		if target, ok := n.socialTarget(ctx); ok {
			n.setTarget(target)
			return
		}
		n.explore(ctx.Rand)
	default:
		n.explore(ctx.Rand)
	}
}

func (n *ScheduledNPC) explore(rng *rand.Rand) {
	angle := rng.Float64() * 2 * math.Pi
	distance := constants.NPCExploreMin + rng.Float64()*constants.NPCExploreJitter
	c := n.body.Center()
	n.setTarget(kinematic.Vector{
		X: c.X + math.Cos(angle)*distance,
		Y: c.Y + math.Sin(angle)*distance,
	})
}

// socialTarget finds the nearest neighbor from the same home screen within the social radius and
// returns a point partway toward it, never closer than the minimum approach distance.
func (n *ScheduledNPC) socialTarget(ctx *NPCContext) (kinematic.Vector, bool) {
	c := n.body.Center()
	var nearest Character
	best := constants.NPCSocialRadius
	for _, other := range ctx.Neighbors {
		if other == nil || other.Name() == n.name || other.HomeScreen() != n.homeScreen {
			continue
		}
		if d := distanceTo(c, other.Body().Center()); d <= best {
			best = d
			nearest = other
		}
	}
	if nearest == nil {
		return kinematic.Vector{}, false
	}
	if best <= constants.NPCMinApproach {
		return c, true
	}
	heading := kinematic.Direction(c.X, c.Y, nearest.Body().Center().X, nearest.Body().Center().Y)
	step := math.Min(heading.Distance*constants.NPCSocialApproachFraction, heading.Distance-constants.NPCMinApproach)
	return c.Add(heading.Unit().Scale(step)), true
}
