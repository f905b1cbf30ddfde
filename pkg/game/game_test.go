package game

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"testing/fstest"
	"time"

	mocks "github.com/cbodonnell/tileworld/mocks/github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/config"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/movement"
	"github.com/cbodonnell/tileworld/pkg/tilemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapSize = 25

// testMapJSON builds a 25x25 map of ground tiles. Each wall puts a building tile at the given tile coordinates.
func testMapJSON(t *testing.T, walls ...[2]int) []byte {
	t.Helper()
	ground := make([]uint32, testMapSize*testMapSize)
	buildings := make([]uint32, testMapSize*testMapSize)
	for i := range ground {
		ground[i] = 17
	}
	for _, w := range walls {
		buildings[w[1]*testMapSize+w[0]] = 513
	}
	data, err := json.Marshal(map[string]interface{}{
		"width":      testMapSize,
		"height":     testMapSize,
		"tilewidth":  32,
		"tileheight": 32,
		"layers": []map[string]interface{}{
			{"name": "ground", "data": ground},
			{"name": "buildings", "data": buildings},
		},
	})
	require.NoError(t, err)
	return data
}

func newTestWorld() *config.World {
	return &config.World{
		StartScreen: "meadow",
		PlayerName:  "Hero",
		Clock:       config.ClockConfig{DayLength: 24000, Speeds: []float64{0.5, 1, 2, 5}, StartTime: 8000},
		Screens: []config.ScreenConfig{
			{Name: "meadow", Map: "maps/meadow.json", Ambient: []string{"Birds sing."}},
			{Name: "cave", Map: "maps/cave.json", ArrivalMessage: "You enter the dark cave."},
		},
		Transitions: []config.TransitionConfig{
			{From: "meadow", To: "cave", Edge: config.EdgeNorth},
			{From: "cave", To: "meadow", Edge: config.EdgeSouth},
		},
		Characters: []config.CharacterConfig{
			{Name: "Grimm", Personality: "a gruff blacksmith", Home: "meadow", Start: config.TilePosition{X: 5, Y: 5}},
			{Name: "Maya", Personality: "a shrewd trader", Home: "cave", Start: config.TilePosition{X: 10, Y: 10}},
		},
	}
}

func newTestGame(t *testing.T, fsys fstest.MapFS) *GameManager {
	t.Helper()
	if fsys == nil {
		fsys = fstest.MapFS{
			"maps/meadow.json": {Data: testMapJSON(t)},
			"maps/cave.json":   {Data: testMapJSON(t)},
		}
	}
	gm, err := NewGameManager(NewGameManagerOptions{
		World:  newTestWorld(),
		Assets: fsys,
		Rand:   rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return gm
}

func eventTexts(gm *GameManager) []string {
	var texts []string
	for _, e := range gm.events.Events() {
		texts = append(texts, e.Text)
	}
	return texts
}

// joinAt adds the player and moves it to (x, y).
func joinAt(t *testing.T, gm *GameManager, x, y float64) *types.Player {
	t.Helper()
	gm.join("")
	require.NotNil(t, gm.player)
	gm.player.Body.Rect = gm.player.Body.Rect.At(x, y)
	gm.syncPlayerObject()
	return gm.player
}

func placeEnemy(t *testing.T, gm *GameManager, x, y float64) *types.Enemy {
	t.Helper()
	e, err := types.NewEnemy(types.EnemyKindGoblin, x, y, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	gm.screens.Active().AddEnemy(e)
	return e
}

func TestNewGameManager(t *testing.T) {
	gm := newTestGame(t, nil)

	assert.Equal(t, []string{"meadow", "cave"}, gm.screens.Names())
	assert.Equal(t, "meadow", gm.screens.Active().Name)
	require.Len(t, gm.npcs, 2)
	assert.Equal(t, kinematic.Vector{X: 160, Y: 160}, gm.npcs[0].Body().Rect.Position())
	assert.IsType(t, &types.BasicNPC{}, gm.npcs[0], "characters without a schedule wander")

	m, err := gm.ScreenMap("meadow")
	require.NoError(t, err)
	assert.Len(t, m.Collision, testMapSize*testMapSize)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, "ground", m.Layers[0].Name)
	assert.True(t, m.DrawInfo[17].Fallback)

	_, err = gm.ScreenMap("moon")
	assert.ErrorIs(t, err, ErrUnknownScreen)
}

func TestNewGameManager_MissingMapFallsBack(t *testing.T) {
	gm := newTestGame(t, fstest.MapFS{
		"maps/meadow.json": {Data: testMapJSON(t)},
		"maps/cave.json":   {Data: []byte(`{"width": 25, "height": 25, "layers": []}`)},
	})

	cave, ok := gm.screens.Screen("cave")
	require.True(t, ok)
	assert.Equal(t, tilemap.FallbackWidth, cave.Dimensions().WidthTiles)
	assert.Equal(t, 0, cave.Map.SolidCount())
}

func TestNewGameManager_SpawnsEnemies(t *testing.T) {
	world := newTestWorld()
	world.Enemies = []config.EnemySpawnConfig{{Screen: "cave", Count: 5, Kinds: []types.EnemyKind{types.EnemyKindWolf, types.EnemyKindOrc}}}
	gm, err := NewGameManager(NewGameManagerOptions{
		World: world,
		Assets: fstest.MapFS{
			"maps/meadow.json": {Data: testMapJSON(t)},
			"maps/cave.json":   {Data: testMapJSON(t)},
		},
		Rand: rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)

	cave, _ := gm.screens.Screen("cave")
	require.Len(t, cave.Enemies, 5)
	assert.Equal(t, types.EnemyKindWolf, cave.Enemies[0].Kind)
	assert.Equal(t, types.EnemyKindOrc, cave.Enemies[1].Kind)
	assert.Equal(t, types.EnemyKindWolf, cave.Enemies[4].Kind)
	for _, e := range cave.Enemies {
		assert.True(t, cave.Query.CanOccupy(e.Rect()))
	}
	meadow, _ := gm.screens.Screen("meadow")
	assert.Empty(t, meadow.Enemies)
}

func TestGameManager_processCommands(t *testing.T) {
	tests := []struct {
		name     string
		commands []interface{}
		readErr  error
		check    func(t *testing.T, gm *GameManager)
	}{
		{
			name:     "join",
			commands: []interface{}{&JoinCommand{}},
			check: func(t *testing.T, gm *GameManager) {
				require.NotNil(t, gm.player)
				assert.Equal(t, "Hero", gm.player.Name)
				assert.True(t, gm.screens.Active().Query.CanOccupy(gm.player.Rect()))
				assert.Equal(t, []string{"You join the world in Adventure Mode!"}, eventTexts(gm))
			},
		},
		{
			name:     "join twice keeps the first player",
			commands: []interface{}{&JoinCommand{Name: "First"}, &JoinCommand{Name: "Second"}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, "First", gm.player.Name)
				assert.Len(t, eventTexts(gm), 1)
			},
		},
		{
			name:     "leave",
			commands: []interface{}{&JoinCommand{}, &SetIntentCommand{Intent: types.Intent{Up: true}}, &LeaveCommand{}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Nil(t, gm.player)
				assert.Equal(t, types.Intent{}, gm.intent)
				assert.Equal(t, "You return to Observer Mode.", eventTexts(gm)[0])
			},
		},
		{
			name:     "intent",
			commands: []interface{}{&SetIntentCommand{Intent: types.Intent{Right: true, Attack: true}}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, types.Intent{Right: true, Attack: true}, gm.intent)
			},
		},
		{
			name:     "pause",
			commands: []interface{}{&TogglePauseCommand{}},
			check: func(t *testing.T, gm *GameManager) {
				assert.True(t, gm.clock.Paused())
			},
		},
		{
			name:     "speed",
			commands: []interface{}{&CycleSpeedCommand{}, &CycleSpeedCommand{}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, 5.0, gm.clock.Speed())
			},
		},
		{
			name:     "activate screen in observer mode",
			commands: []interface{}{&ActivateScreenCommand{Screen: "cave"}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, "cave", gm.screens.Active().Name)
			},
		},
		{
			name:     "activate screen rejected while playing",
			commands: []interface{}{&JoinCommand{}, &ActivateScreenCommand{Screen: "cave"}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, "meadow", gm.screens.Active().Name)
			},
		},
		{
			name:     "activate unknown screen",
			commands: []interface{}{&ActivateScreenCommand{Screen: "moon"}},
			check: func(t *testing.T, gm *GameManager) {
				assert.Equal(t, "meadow", gm.screens.Active().Name)
			},
		},
		{
			name:     "unknown command",
			commands: []interface{}{"jump"},
			check: func(t *testing.T, gm *GameManager) {
				assert.Nil(t, gm.player)
			},
		},
		{
			name:    "read error",
			readErr: errors.New("queue closed"),
			check: func(t *testing.T, gm *GameManager) {
				assert.Nil(t, gm.player)
				assert.Empty(t, eventTexts(gm))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue := mocks.NewMockQueue(t)
			mockQueue.EXPECT().ReadAllMessages().Return(tt.commands, tt.readErr).Once()

			gm := newTestGame(t, nil)
			gm.commandQueue = mockQueue
			gm.processCommands()
			tt.check(t, gm)
		})
	}
}

func TestGameManager_PausedTickFreezesWorld(t *testing.T) {
	gm := newTestGame(t, nil)
	gm.clock.SetPaused(true)
	before := gm.clock.WorldTime()
	start := gm.npcs[0].Body().Rect

	for i := 0; i < 600; i++ {
		gm.Tick(16)
	}
	assert.Equal(t, before, gm.clock.WorldTime())
	assert.Equal(t, start, gm.npcs[0].Body().Rect)
}

func TestGameManager_InactiveScreenIsFrozen(t *testing.T) {
	gm := newTestGame(t, nil)
	grimm, maya := gm.npcs[0], gm.npcs[1]
	grimmStart, mayaStart := grimm.Body().Rect, maya.Body().Rect

	for i := 0; i < 600; i++ {
		gm.Tick(16)
	}
	assert.Equal(t, 8000.0+600, gm.clock.WorldTime(), "world time advances by speed, not by elapsed ms")
	assert.NotEqual(t, grimmStart, grimm.Body().Rect, "active screen NPCs move")
	assert.Equal(t, mayaStart, maya.Body().Rect, "NPCs on other screens are frozen")
}

func TestGameManager_Transition(t *testing.T) {
	gm := newTestGame(t, nil)
	p := joinAt(t, gm, 400, 10)

	gm.Tick(16)
	assert.Equal(t, "cave", gm.screens.Active().Name)
	assert.Equal(t, 400.0, p.Body.Rect.X, "the coordinate along the edge is kept")
	assert.Equal(t, 800.0-32-8-constants.PlayerSize, p.Body.Rect.Y)
	assert.Equal(t, "You enter the dark cave.", eventTexts(gm)[0])
	assert.Equal(t, p.Body.Rect.X, gm.playerObject.Position.X)

	gm.Tick(16)
	assert.Equal(t, "cave", gm.screens.Active().Name, "arrival is clear of the return trigger")

	p.Body.Rect = p.Body.Rect.At(400, 800-constants.PlayerSize-2)
	gm.Tick(16)
	assert.Equal(t, "meadow", gm.screens.Active().Name)
	assert.Equal(t, 40.0, p.Body.Rect.Y)
	assert.Equal(t, "You enter meadow.", eventTexts(gm)[0])
}

func TestGameManager_NoTransitionWithoutPlayer(t *testing.T) {
	gm := newTestGame(t, nil)
	for i := 0; i < 10; i++ {
		gm.Tick(16)
	}
	assert.Equal(t, "meadow", gm.screens.Active().Name)
}

func TestScreenManager_ArrivalPositionBlocked(t *testing.T) {
	var wall [][2]int
	for x := 0; x < testMapSize; x++ {
		wall = append(wall, [2]int{x, 23})
	}
	gm := newTestGame(t, fstest.MapFS{
		"maps/meadow.json": {Data: testMapJSON(t)},
		"maps/cave.json":   {Data: testMapJSON(t, wall...)},
	})
	cave, _ := gm.screens.Screen("cave")

	r := kinematic.Rect{X: 400, Y: 10, W: constants.PlayerSize, H: constants.PlayerSize}
	pos := gm.screens.ArrivalPosition(Transition{From: "meadow", To: "cave", Edge: config.EdgeNorth}, r, rand.New(rand.NewSource(1)))
	arrived := r.At(pos.X, pos.Y)
	assert.True(t, cave.Query.CanOccupy(arrived))
	assert.Less(t, arrived.Y+arrived.H, 23.0*32)
	assert.GreaterOrEqual(t, arrived.Y, float64(testMapSize-1-arrivalBandTiles)*32, "searched along the arrival edge first")
}

func TestArrivalZones_StayOutOfTriggerBands(t *testing.T) {
	for _, edge := range []string{config.EdgeNorth, config.EdgeSouth, config.EdgeEast, config.EdgeWest} {
		t.Run(edge, func(t *testing.T) {
			for _, z := range arrivalZones(edge, testMapSize, testMapSize) {
				assert.GreaterOrEqual(t, z.MinX, 1)
				assert.GreaterOrEqual(t, z.MinY, 1)
				assert.LessOrEqual(t, z.MaxX, testMapSize-1)
				assert.LessOrEqual(t, z.MaxY, testMapSize-1)
			}
		})
	}
}

func TestScreenManager_ArrivalPositionAvoidsEdges(t *testing.T) {
	// only a ring near the map edge is open, so the search falls through to the whole-map zone
	var walls [][2]int
	for y := 0; y < testMapSize; y++ {
		for x := 0; x < testMapSize; x++ {
			inner := x >= 4 && x < 21 && y >= 4 && y < 21
			if inner || y >= 20 {
				walls = append(walls, [2]int{x, y})
			}
		}
	}
	gm := newTestGame(t, fstest.MapFS{
		"maps/meadow.json": {Data: testMapJSON(t)},
		"maps/cave.json":   {Data: testMapJSON(t, walls...)},
	})
	cave, _ := gm.screens.Screen("cave")

	tests := []struct {
		name string
		x    float64
	}{
		{name: "middle of the edge", x: 400},
		{name: "left corner", x: 0},
		{name: "right corner", x: 800 - constants.PlayerSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(1); seed <= 20; seed++ {
				r := kinematic.Rect{X: tt.x, Y: 10, W: constants.PlayerSize, H: constants.PlayerSize}
				pos := gm.screens.ArrivalPosition(Transition{From: "meadow", To: "cave", Edge: config.EdgeNorth}, r, rand.New(rand.NewSource(seed)))
				arrived := r.At(pos.X, pos.Y)
				require.True(t, cave.Query.CanOccupy(arrived), "seed %d", seed)
				assert.GreaterOrEqual(t, arrived.X, 32.0, "seed %d", seed)
				assert.GreaterOrEqual(t, arrived.Y, 32.0, "seed %d", seed)
				assert.LessOrEqual(t, arrived.X+arrived.W, 800.0-32, "seed %d", seed)
				assert.LessOrEqual(t, arrived.Y+arrived.H, 800.0-32, "seed %d", seed)
			}
		})
	}
}

func TestGameManager_PlayerAttackKillsEnemy(t *testing.T) {
	gm := newTestGame(t, nil)
	p := joinAt(t, gm, 400, 400)
	p.Body.Facing = movement.DirectionRight
	p.XP = 90
	e := placeEnemy(t, gm, 400+constants.PlayerSize+2, 400)
	e.HP = 10

	gm.intent = types.Intent{Attack: true}
	gm.Tick(16)

	assert.True(t, e.Dying)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 15, p.XP)
	assert.Contains(t, eventTexts(gm), "Hero defeated a goblin! (+25 XP)")
	assert.Contains(t, eventTexts(gm), "Hero reached level 2!")

	gm.intent = types.Intent{}
	for i := 0; i < 40; i++ {
		gm.Tick(16)
	}
	assert.Empty(t, gm.screens.Active().Enemies)
	assert.Contains(t, eventTexts(gm), "A goblin has fallen.")
}

func TestGameManager_AttackMisses(t *testing.T) {
	gm := newTestGame(t, nil)
	p := joinAt(t, gm, 400, 400)
	p.Body.Facing = movement.DirectionLeft
	e := placeEnemy(t, gm, 400+constants.PlayerSize+2, 400)

	gm.intent = types.Intent{Attack: true}
	gm.Tick(16)
	assert.Equal(t, e.MaxHP, e.HP, "enemies behind the player are not hit")
}

func TestGameManager_EnemyKillsPlayer(t *testing.T) {
	gm := newTestGame(t, nil)
	p := joinAt(t, gm, 400, 400)
	p.HP = 1
	placeEnemy(t, gm, 410, 400)

	gm.Tick(16)
	assert.Equal(t, p.MaxHP, p.HP, "the player respawns at full health")
	assert.False(t, p.Knockback.Active)
	assert.True(t, gm.screens.Active().Query.CanOccupy(p.Rect()))
	assert.Contains(t, eventTexts(gm), "Hero was defeated by a goblin and wakes up nearby.")
}

func TestGameManager_Dialogue(t *testing.T) {
	gm := newTestGame(t, nil)
	grimm := gm.npcs[0]

	require.NoError(t, gm.commandQueue.Enqueue(&DialogueOutcomeCommand{NPC: "Grimm", Player: "Hero", Reply: "Glad to see you, friend!", Sentiment: 10}))
	require.NoError(t, gm.commandQueue.Enqueue(&DialogueOutcomeCommand{NPC: "Nobody", Player: "Hero", Reply: "Hello there."}))
	gm.processCommands()

	assert.Equal(t, 10, grimm.GetRelationship("Hero"))
	memories := grimm.GetRecentMemories(1)
	require.Len(t, memories, 1)
	assert.Equal(t, `Talked with Hero about: "Glad to see you, friend!"`, memories[0].Event)

	gm.Tick(60)
	snap := gm.Snapshot(time.Now())
	assert.Equal(t, "Gl", snap.NPCs[0].Speech)
	assert.True(t, snap.NPCs[0].Speaking)
	assert.Equal(t, 10, snap.NPCs[0].Relationship)

	require.NoError(t, gm.commandQueue.Enqueue(&DialogueEndCommand{NPC: "Grimm", Player: "Hero", Turns: 3}))
	gm.processCommands()
	assert.Equal(t, "Had a 3-turn conversation with Hero", grimm.GetRecentMemories(1)[0].Event)
	assert.Contains(t, eventTexts(gm), "Grimm finished talking with Hero")
	assert.Empty(t, gm.Snapshot(time.Now()).NPCs[0].Speech)
}

func TestGameManager_Focus(t *testing.T) {
	gm := newTestGame(t, nil)
	grimm := gm.npcs[0].Body().Rect
	p := joinAt(t, gm, grimm.X+grimm.W+4, grimm.Y)

	gm.intent = types.Intent{Interact: true}
	gm.Tick(16)
	assert.Equal(t, "Grimm", gm.focus)

	gm.intent = types.Intent{}
	p.Body.Rect = p.Body.Rect.At(600, 600)
	gm.Tick(16)
	assert.Empty(t, gm.focus, "walking away drops the focus")
}

func TestGameManager_gameTickPublishes(t *testing.T) {
	gm := newTestGame(t, nil)
	require.NoError(t, gm.commandQueue.Enqueue(&JoinCommand{}))

	gm.gameTick(context.Background(), time.Now(), 16*time.Millisecond)

	snap, err := gm.stateManager.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, "meadow", snap.ActiveScreen)
	assert.Equal(t, []string{"meadow", "cave"}, snap.Screens)
	assert.Equal(t, "morning", snap.TimeOfDay)
	assert.Equal(t, 8, snap.Hour)
	require.NotNil(t, snap.Player)
	assert.Equal(t, "Hero", snap.Player.Name)
	assert.Len(t, snap.NPCs, 2)
	assert.Equal(t, "cave", snap.NPCs[1].Screen)
	require.NotEmpty(t, snap.Events)
	assert.Equal(t, "You join the world in Adventure Mode!", snap.Events[0].Text)
}

func TestGameManager_Start(t *testing.T) {
	gm := newTestGame(t, nil)
	gm.tickInterval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, gm.Start(ctx))
	snap, err := gm.stateManager.Get(context.Background())
	require.NoError(t, err)
	assert.Greater(t, snap.Tick, uint64(0))
}

// a ground-only map is fully passable, so the first pick in the central zone succeeds
func TestScreenQuery_SafeSpawnOnOpenMap(t *testing.T) {
	gm := newTestGame(t, nil)
	res := gm.screens.Active().Query.FindSafeSpawn(constants.PlayerSize, constants.PlayerSize, collisions.SpawnOptions{Rand: rand.New(rand.NewSource(1))})
	assert.False(t, res.Fallback)
	assert.Equal(t, 0, res.Zone)
	assert.Equal(t, 1, res.Attempts)
}
