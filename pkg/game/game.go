package game

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"time"

	"github.com/cbodonnell/tileworld/assets"
	"github.com/cbodonnell/tileworld/pkg/clock"
	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/config"
	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/solarlune/resolv"
)

// maxTickDelta bounds the time step of a single tick in milliseconds so a stalled loop
// does not teleport entities through walls.
const maxTickDelta = 100

// GameManager is the simulation context. It owns every screen, entity and the world clock, and is
// only ever mutated from its own loop; other goroutines talk to it through the command queue and
// read it through published snapshots.
type GameManager struct {
	world        *config.World
	commandQueue queue.Queue
	stateManager state.StateManager
	tickInterval time.Duration
	rng          *rand.Rand

	clock      *clock.Clock
	screens    *ScreenManager
	screenMaps map[string]*messages.ScreenMap
	npcs       []types.Character
	events     *types.EventLog

	player       *types.Player
	playerObject *resolv.Object
	intent       types.Intent
	focus        string
	speech       map[string]*dialogue.Typewriter

	tick uint64
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	// World defaults to the embedded world definition.
	World *config.World
	// Assets holds the map files named by the world. It defaults to the embedded assets.
	Assets       fs.FS
	CommandQueue queue.Queue
	StateManager state.StateManager
	TickInterval time.Duration
	Rand         *rand.Rand
}

func NewGameManager(opts NewGameManagerOptions) (*GameManager, error) {
	world := opts.World
	if world == nil {
		w, err := config.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load default world: %w", err)
		}
		world = w
	}
	fsys := opts.Assets
	if fsys == nil {
		fsys = assets.FS
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	commandQueue := opts.CommandQueue
	if commandQueue == nil {
		commandQueue = queue.NewInMemoryQueue(1024)
	}
	stateManager := opts.StateManager
	if stateManager == nil {
		stateManager = state.NewInMemoryStateManager()
	}
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = 16 * time.Millisecond
	}

	gm := &GameManager{
		world:        world,
		commandQueue: commandQueue,
		stateManager: stateManager,
		tickInterval: tickInterval,
		rng:          rng,
		clock: clock.New(clock.NewClockOptions{
			DayLength: world.Clock.DayLength,
			Speeds:    world.Clock.Speeds,
			WorldTime: world.Clock.StartTime,
		}),
		screens:    NewScreenManager(),
		screenMaps: make(map[string]*messages.ScreenMap),
		events:     types.NewEventLog(constants.MaxEvents),
		speech:     make(map[string]*dialogue.Typewriter),
	}
	if err := gm.initializeWorld(fsys); err != nil {
		return nil, err
	}
	return gm, nil
}

// initializeWorld loads every screen and populates it with its characters and enemies.
// Broken map assets degrade to the fallback map instead of failing.
func (gm *GameManager) initializeWorld(fsys fs.FS) error {
	rules, err := gm.world.RuleTable()
	if err != nil {
		return err
	}
	for _, sc := range gm.world.Screens {
		m := tilemap.LoadOrFallback(fsys, sc.Name, sc.Map, rules.Clone())
		screen := NewScreen(sc, m)
		gm.screens.AddScreen(screen)
		gm.screenMaps[sc.Name] = ScreenMapFromScreen(screen)
	}
	if err := gm.screens.SetActive(gm.world.StartScreen); err != nil {
		return err
	}
	for _, t := range gm.world.Transitions {
		if err := gm.screens.AddTransition(Transition{From: t.From, To: t.To, Edge: t.Edge}); err != nil {
			return fmt.Errorf("failed to add transition: %w", err)
		}
	}

	for _, c := range gm.world.Characters {
		gm.npcs = append(gm.npcs, gm.newCharacter(c))
	}

	for _, spawn := range gm.world.Enemies {
		screen, ok := gm.screens.Screen(spawn.Screen)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownScreen, spawn.Screen)
		}
		kinds := spawn.Kinds
		if len(kinds) == 0 {
			kinds = types.EnemyKinds
		}
		for i := 0; i < spawn.Count; i++ {
			if _, err := gm.spawnEnemy(screen, kinds[i%len(kinds)]); err != nil {
				return err
			}
		}
	}

	log.Info("World initialized: %d screens, %d characters, starting on %s", len(gm.world.Screens), len(gm.npcs), gm.world.StartScreen)
	return nil
}

func (gm *GameManager) newCharacter(c config.CharacterConfig) types.Character {
	screen, _ := gm.screens.Screen(c.Home)
	dims := screen.Dimensions()
	pos := kinematic.Vector{X: float64(c.Start.X * dims.TileWidth), Y: float64(c.Start.Y * dims.TileHeight)}
	if c.Start == (config.TilePosition{}) || !screen.Query.CanOccupy(kinematic.Rect{X: pos.X, Y: pos.Y, W: constants.NPCSize, H: constants.NPCSize}) {
		res := screen.Query.FindSafeSpawn(constants.NPCSize, constants.NPCSize, collisions.SpawnOptions{Zones: screen.Zones(), Rand: gm.rng})
		if res.Fallback {
			log.Warn("No clear start for %s on %s, using fallback position", c.Name, c.Home)
		}
		pos = res.Position
	}

	base := types.NewBasicNPC(types.NewBasicNPCOptions{
		Name:        c.Name,
		Personality: c.Personality,
		Appearance:  c.Appearance,
		HomeScreen:  c.Home,
		Position:    pos,
		Rand:        gm.rng,
	})
	if len(c.Schedule) == 0 {
		return base
	}
	return types.NewScheduledNPC(base, c.ScheduleTable(), gm.rng)
}

// spawnEnemy places a new enemy at a safe spawn point on the screen, away from the player when present.
func (gm *GameManager) spawnEnemy(screen *Screen, kind types.EnemyKind) (*types.Enemy, error) {
	opts := collisions.SpawnOptions{Zones: screen.Zones(), Rand: gm.rng}
	if gm.player != nil && screen == gm.screens.Active() {
		c := gm.player.Center()
		opts.Exclude = &c
		opts.MinSeparation = constants.EnemyAlertRange
	}
	res := screen.Query.FindSafeSpawn(constants.EnemySize, constants.EnemySize, opts)
	if res.Fallback {
		log.Warn("No safe spawn for %s on %s, using fallback position", kind, screen.Name)
	}
	e, err := types.NewEnemy(kind, res.Position.X, res.Position.Y, gm.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create enemy: %w", err)
	}
	screen.AddEnemy(e)
	log.Debug("Spawned %s %s on %s at (%.0f, %.0f)", e.Kind, e.ID, screen.Name, res.Position.X, res.Position.Y)
	return e, nil
}

// Start runs the game loop until ctx is cancelled.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.tickInterval)
	defer ticker.Stop()

	gm.publish(ctx, time.Now())
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			delta := t.Sub(last)
			last = t
			gm.gameTick(ctx, t, delta)
		}
	}
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(ctx context.Context, t time.Time, delta time.Duration) {
	gm.processCommands()
	dtMs := float64(delta) / float64(time.Millisecond)
	if dtMs > maxTickDelta {
		dtMs = maxTickDelta
	}
	gm.Tick(dtMs)
	gm.publish(ctx, t)
}

// Tick advances the simulation by dtMs milliseconds: world time first, then screen transitions,
// then every entity on the active screen. Entities on other screens stay frozen.
func (gm *GameManager) Tick(dtMs float64) {
	gm.tick++
	gm.advanceSpeech(dtMs)
	if gm.clock.Paused() {
		return
	}
	gm.clock.Tick()

	gm.checkTransition()

	screen := gm.screens.Active()
	gm.updatePlayer(screen, dtMs)
	gm.updateNPCs(screen, dtMs)
	gm.updateEnemies(screen, dtMs)
	gm.updateFocus()
	// attack and interact fire once per press
	gm.intent.Attack = false
	gm.intent.Interact = false
	gm.ambientEvent(screen)
}

func (gm *GameManager) checkTransition() {
	if gm.player == nil {
		return
	}
	t, ok := gm.screens.CheckTransition(gm.player.Rect())
	if !ok {
		return
	}
	from := gm.screens.Active()
	to, ok := gm.screens.Screen(t.To)
	if !ok {
		log.Error("Transition from %s leads to unknown screen %s", t.From, t.To)
		return
	}

	pos := gm.screens.ArrivalPosition(t, gm.player.Rect(), gm.rng)
	from.Space.Remove(gm.playerObject)
	if err := gm.screens.SetActive(to.Name); err != nil {
		log.Error("Failed to switch screen: %v", err)
		from.Space.Add(gm.playerObject)
		return
	}
	gm.player.Body.Rect = gm.player.Body.Rect.At(pos.X, pos.Y)
	gm.player.Knockback.Stop()
	to.Space.Add(gm.playerObject)
	gm.syncPlayerObject()
	gm.focus = ""

	message := to.ArrivalMessage
	if message == "" {
		message = fmt.Sprintf("You enter %s.", to.Name)
	}
	gm.addEvent(message)
	log.Debug("Player moved from %s to %s through the %s edge", from.Name, to.Name, t.Edge)
}

func (gm *GameManager) updatePlayer(screen *Screen, dtMs float64) {
	if gm.player == nil {
		return
	}
	gm.player.Update(dtMs, gm.intent, screen.Query, screen.Dimensions())
	gm.syncPlayerObject()
	if gm.intent.Attack {
		gm.checkPlayerAttack(screen)
	}
}

// checkPlayerAttack starts an attack and applies it to every living enemy under the hitbox.
func (gm *GameManager) checkPlayerAttack(screen *Screen) {
	hitbox, ok := gm.player.StartAttack()
	if !ok {
		return
	}

	attackObject := resolv.NewObject(hitbox.X, hitbox.Y, hitbox.W, hitbox.H, collisions.TagAttack)
	screen.Space.Add(attackObject)
	defer screen.Space.Remove(attackObject)

	c := gm.player.Center()
	for _, e := range screen.Enemies {
		if e.Dying || e.Object == nil {
			continue
		}
		// broad phase on the space cells, then the exact rectangle test
		if !attackObject.SharesCells(e.Object) || !hitbox.Overlaps(e.Rect()) {
			continue
		}

		log.Debug("Player hit %s %s for %d", e.Kind, e.ID, gm.player.AttackDamage)
		if !e.TakeDamage(gm.player.AttackDamage, c.X, c.Y) {
			continue
		}

		levels := gm.player.GainXP(e.XPValue)
		gm.addEvent(fmt.Sprintf("%s defeated a %s! (+%d XP)", gm.player.Name, e.Kind, e.XPValue))
		if levels > 0 {
			gm.addEvent(fmt.Sprintf("%s reached level %d!", gm.player.Name, gm.player.Level))
		}
	}
}

func (gm *GameManager) syncPlayerObject() {
	if gm.playerObject == nil || gm.player == nil {
		return
	}
	gm.playerObject.Position.X = gm.player.Body.Rect.X
	gm.playerObject.Position.Y = gm.player.Body.Rect.Y
	gm.playerObject.Update()
}

func (gm *GameManager) updateNPCs(screen *Screen, dtMs float64) {
	active := gm.npcsOn(screen.Name)
	if len(active) == 0 {
		return
	}
	ctx := &types.NPCContext{
		TimeOfDay: gm.clock.TimeOfDay(),
		WorldTime: gm.clock.WorldTime(),
		Space:     screen.Query,
		Dims:      screen.Dimensions(),
		Neighbors: active,
		Landmarks: screen.Landmarks,
		Rand:      gm.rng,
	}
	for _, npc := range active {
		npc.Update(ctx, dtMs)
	}
}

// npcsOn returns the characters whose home is the named screen.
func (gm *GameManager) npcsOn(screen string) []types.Character {
	var npcs []types.Character
	for _, npc := range gm.npcs {
		if npc.HomeScreen() == screen {
			npcs = append(npcs, npc)
		}
	}
	return npcs
}

// updateEnemies runs every enemy on the screen. The slice is walked in reverse so finished
// enemies can be removed in place.
func (gm *GameManager) updateEnemies(screen *Screen, dtMs float64) {
	for i := len(screen.Enemies) - 1; i >= 0; i-- {
		e := screen.Enemies[i]
		action := e.Update(dtMs, gm.player, screen.Query, screen.Dimensions(), gm.rng)
		if action.KilledPlayer {
			gm.respawnPlayer(screen, e)
		}
		if e.Removable() {
			screen.RemoveEnemy(i)
			gm.addEvent(fmt.Sprintf("A %s has fallen.", e.Kind))
		}
	}
}

func (gm *GameManager) respawnPlayer(screen *Screen, killer *types.Enemy) {
	res := screen.Query.FindSafeSpawn(constants.PlayerSize, constants.PlayerSize, collisions.SpawnOptions{Zones: screen.Zones(), Rand: gm.rng})
	if res.Fallback {
		log.Warn("No safe respawn on %s, using fallback position", screen.Name)
	}
	gm.player.Respawn(res.Position.X, res.Position.Y)
	gm.syncPlayerObject()
	gm.addEvent(fmt.Sprintf("%s was defeated by a %s and wakes up nearby.", gm.player.Name, killer.Kind))
}

// updateFocus tracks the NPC the player is talking to. Interacting focuses the nearest NPC in
// dialogue range; walking out of range drops the focus.
func (gm *GameManager) updateFocus() {
	if gm.player == nil {
		gm.focus = ""
		return
	}
	active := gm.npcsOn(gm.screens.Active().Name)
	if gm.focus != "" {
		npc := findCharacter(active, gm.focus)
		if npc == nil || !dialogue.CanInitiateDialogue(gm.player.Rect(), npc.Body().Rect) {
			gm.focus = ""
		}
	}
	if !gm.intent.Interact {
		return
	}

	best := constants.DialogueRange
	for _, npc := range active {
		rect := npc.Body().Rect
		if !dialogue.CanInitiateDialogue(gm.player.Rect(), rect) {
			continue
		}
		if d := kinematic.DistanceBetween(gm.player.Rect(), rect); d < best {
			best = d
			gm.focus = npc.Name()
		}
	}
}

func findCharacter(npcs []types.Character, name string) types.Character {
	for _, npc := range npcs {
		if npc.Name() == name {
			return npc
		}
	}
	return nil
}

// ambientEvent occasionally logs a flavor line for the active screen. The chance scales with game speed.
func (gm *GameManager) ambientEvent(screen *Screen) {
	if len(screen.AmbientLines) == 0 {
		return
	}
	if gm.rng.Float64() >= constants.AmbientEventChance*gm.clock.Speed() {
		return
	}
	gm.addEvent(screen.AmbientLines[gm.rng.Intn(len(screen.AmbientLines))])
}

func (gm *GameManager) advanceSpeech(dtMs float64) {
	for _, tw := range gm.speech {
		tw.Advance(dtMs)
	}
}

func (gm *GameManager) addEvent(text string) {
	gm.events.Add(text, gm.clock.WorldTime())
	log.Info("Event: %s", text)
}

// publish stores the current snapshot for readers outside the loop.
func (gm *GameManager) publish(ctx context.Context, t time.Time) {
	if err := gm.stateManager.Set(ctx, gm.Snapshot(t)); err != nil {
		log.Error("Failed to publish world snapshot: %v", err)
	}
}

// CommandQueue returns the queue the loop drains at the start of every tick.
func (gm *GameManager) CommandQueue() queue.Queue {
	return gm.commandQueue
}

// StateManager returns where snapshots are published.
func (gm *GameManager) StateManager() state.StateManager {
	return gm.stateManager
}

// ScreenMap returns the static tile data of a screen. Maps never change after startup,
// so it is safe to call from any goroutine.
func (gm *GameManager) ScreenMap(name string) (*messages.ScreenMap, error) {
	m, ok := gm.screenMaps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}
	return m, nil
}
