package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dialoguemocks "github.com/cbodonnell/tileworld/mocks/github.com/cbodonnell/tileworld/pkg/dialogue"
	queuemocks "github.com/cbodonnell/tileworld/mocks/github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeMaps map[string]*messages.ScreenMap

func (m fakeMaps) ScreenMap(name string) (*messages.ScreenMap, error) {
	sm, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrUnknownScreen, name)
	}
	return sm, nil
}

var testMaps = fakeMaps{
	"town": {Name: "town", WidthTiles: 2, HeightTiles: 1, TileWidth: 32, TileHeight: 32, Collision: []bool{false, true}},
}

func testSnapshot(withPlayer bool) *messages.WorldSnapshot {
	s := &messages.WorldSnapshot{
		Tick:         7,
		TimeOfDay:    "morning",
		ActiveScreen: "town",
		Screens:      []string{"town", "forest"},
		NPCs: []messages.NPCSnapshot{
			{Name: "Grimm", Personality: "A gruff blacksmith", Mood: "neutral", Activity: "working", Screen: "town", Rect: kinematic.Rect{X: 130, Y: 100, W: 24, H: 24}},
			{Name: "Maya", Screen: "town", Rect: kinematic.Rect{X: 600, Y: 600, W: 24, H: 24}},
			{Name: "Elara", Screen: "forest", Rect: kinematic.Rect{X: 100, Y: 100, W: 24, H: 24}},
		},
		Events: []messages.EventSnapshot{{Text: "A new day begins."}},
	}
	if withPlayer {
		s.Player = &messages.PlayerSnapshot{Name: "Hero", Rect: kinematic.Rect{X: 100, Y: 100, W: 24, H: 24}}
	}
	return s
}

type testServer struct {
	router   http.Handler
	commands *queue.InMemoryQueue
	state    *state.InMemoryStateManager
	clients  *ClientManager
}

func newTestServer(t *testing.T, generator dialogue.Generator) *testServer {
	t.Helper()
	ts := &testServer{
		commands: queue.NewInMemoryQueue(16),
		state:    state.NewInMemoryStateManager(),
		clients:  NewClientManager(),
	}
	ts.router = NewRouter(NewServerOptions{
		Commands: ts.commands,
		State:    ts.state,
		Maps:     testMaps,
		Dialogue: dialogue.NewService(dialogue.NewServiceOptions{Generator: generator}),
	}, ts.clients)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) pending(t *testing.T) []interface{} {
	t.Helper()
	items, err := ts.commands.ReadAllMessages()
	require.NoError(t, err)
	return items
}

func TestHandleGetState(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/state", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, ts.state.Set(context.Background(), testSnapshot(false)))
	rec = ts.do(http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	got := &messages.WorldSnapshot{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), got))
	assert.Equal(t, uint64(7), got.Tick)
	assert.Len(t, got.NPCs, 3)

	rec = ts.do(http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"text":"A new day begins.","worldTime":0,"timestamp":0}]`, rec.Body.String())
}

func TestHandleGetScreenMap(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/screens/town/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := &messages.ScreenMap{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), got))
	assert.Equal(t, []bool{false, true}, got.Collision)

	rec = ts.do(http.MethodGet, "/screens/moon/map", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommandRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		want       []interface{}
	}{
		{name: "join without a body", method: http.MethodPost, path: "/player/join", wantStatus: http.StatusAccepted, want: []interface{}{&game.JoinCommand{}}},
		{name: "join with a name", method: http.MethodPost, path: "/player/join", body: `{"name":"Aria"}`, wantStatus: http.StatusAccepted, want: []interface{}{&game.JoinCommand{Name: "Aria"}}},
		{name: "join with a bad body", method: http.MethodPost, path: "/player/join", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "leave", method: http.MethodPost, path: "/player/leave", wantStatus: http.StatusAccepted, want: []interface{}{&game.LeaveCommand{}}},
		{name: "input", method: http.MethodPost, path: "/player/input", body: `{"up":true,"attack":true}`, wantStatus: http.StatusAccepted, want: []interface{}{&game.SetIntentCommand{Intent: types.Intent{Up: true, Attack: true}}}},
		{name: "bad input", method: http.MethodPost, path: "/player/input", body: `up`, wantStatus: http.StatusBadRequest},
		{name: "pause", method: http.MethodPost, path: "/control/pause", wantStatus: http.StatusAccepted, want: []interface{}{&game.TogglePauseCommand{}}},
		{name: "speed", method: http.MethodPost, path: "/control/speed", wantStatus: http.StatusAccepted, want: []interface{}{&game.CycleSpeedCommand{}}},
		{name: "activate screen", method: http.MethodPost, path: "/screens/town/activate", wantStatus: http.StatusAccepted, want: []interface{}{&game.ActivateScreenCommand{Screen: "town"}}},
		{name: "activate unknown screen", method: http.MethodPost, path: "/screens/moon/activate", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/player/join", wantStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			rec := ts.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			pending := ts.pending(t)
			if tt.want == nil {
				assert.Empty(t, pending)
				return
			}
			assert.Equal(t, tt.want, pending)
		})
	}
}

func TestEnqueue_QueueFull(t *testing.T) {
	commands := queuemocks.NewMockQueue(t)
	commands.EXPECT().Enqueue(&game.TogglePauseCommand{}).Return(queue.ErrQueueFull).Once()

	router := NewRouter(NewServerOptions{Commands: commands, State: state.NewInMemoryStateManager(), Maps: testMaps}, NewClientManager())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/control/pause", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDialogueRoutes_Start(t *testing.T) {
	tests := []struct {
		name       string
		withPlayer bool
		npc        string
		wantStatus int
	}{
		{name: "observer mode", withPlayer: false, npc: "Grimm", wantStatus: http.StatusBadRequest},
		{name: "unknown NPC", withPlayer: true, npc: "Nobody", wantStatus: http.StatusNotFound},
		{name: "too far", withPlayer: true, npc: "Maya", wantStatus: http.StatusBadRequest},
		{name: "other screen", withPlayer: true, npc: "Elara", wantStatus: http.StatusBadRequest},
		{name: "in range", withPlayer: true, npc: "Grimm", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			require.NoError(t, ts.state.Set(context.Background(), testSnapshot(tt.withPlayer)))
			rec := ts.do(http.MethodPost, "/dialogue/"+tt.npc+"/start", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestDialogueRoutes_Conversation(t *testing.T) {
	generator := dialoguemocks.NewMockGenerator(t)
	generator.EXPECT().Available(mock.Anything).Return(true)
	generator.EXPECT().Generate(mock.Anything, mock.MatchedBy(func(pc dialogue.PromptContext) bool {
		return pc.NPCName == "Grimm" && pc.PlayerName == "Hero" && pc.Location == "town" && pc.TimeOfDay == "morning"
	})).Return("Glad to see you, friend!", nil)

	ts := newTestServer(t, generator)
	require.NoError(t, ts.state.Set(context.Background(), testSnapshot(true)))

	rec := ts.do(http.MethodPost, "/dialogue/Grimm/say", `{"message":"Hello"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "no conversation yet")

	rec = ts.do(http.MethodPost, "/dialogue/Grimm/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/dialogue/Grimm/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/dialogue/Grimm/say", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/dialogue/Grimm/say", `{"message":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := sayResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Glad to see you, friend!", resp.Text)
	assert.Equal(t, 1, resp.Turn)
	assert.False(t, resp.Ended)
	assert.Equal(t, []interface{}{&game.DialogueOutcomeCommand{NPC: "Grimm", Player: "Hero", Reply: "Glad to see you, friend!", Sentiment: 10}}, ts.pending(t))

	rec = ts.do(http.MethodPost, "/dialogue/Grimm/say", `{"message":"Goodbye!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ended)
	assert.Equal(t, []interface{}{
		&game.DialogueOutcomeCommand{NPC: "Grimm", Player: "Hero", Reply: "Glad to see you, friend!", Sentiment: 10},
		&game.DialogueEndCommand{NPC: "Grimm", Player: "Hero", Turns: 2},
	}, ts.pending(t))

	rec = ts.do(http.MethodPost, "/dialogue/Grimm/end", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "already ended")
}

func TestDialogueRoutes_End(t *testing.T) {
	ts := newTestServer(t, nil)
	require.NoError(t, ts.state.Set(context.Background(), testSnapshot(true)))

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/dialogue/Grimm/start", "").Code)
	rec := ts.do(http.MethodPost, "/dialogue/Grimm/end", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []interface{}{&game.DialogueEndCommand{NPC: "Grimm", Player: "Hero"}}, ts.pending(t))
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t, nil)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ping, err := messages.SerializeMessage(&messages.Message{Type: messages.MessageTypeClientPing, Payload: json.RawMessage(`42`)})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, ping))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	pong, err := ReadMessageFromWS(conn)
	require.NoError(t, err)
	assert.Equal(t, messages.MessageTypeServerPong, pong.Type)
	assert.JSONEq(t, `42`, string(pong.Payload))
	require.Equal(t, 1, ts.clients.Count())

	data, err := messages.SerializeSnapshot(testSnapshot(false))
	require.NoError(t, err)
	ts.clients.Broadcast(data)

	msg, err := ReadMessageFromWS(conn)
	require.NoError(t, err)
	snapshot, err := messages.SnapshotFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), snapshot.Tick)

	conn.Close()
	assert.Eventually(t, func() bool { return ts.clients.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestClientManager(t *testing.T) {
	cm := NewClientManager()
	client := cm.ConnectClient(nil)
	assert.True(t, cm.Exists(client.ID))

	for i := 0; i < ClientSendBufferSize+5; i++ {
		cm.Broadcast([]byte{byte(i)})
	}
	assert.Len(t, client.send, ClientSendBufferSize, "full buffers drop instead of blocking")
	assert.False(t, cm.sendTo(client.ID, []byte{0}))

	cm.DisconnectClient(client.ID)
	assert.False(t, cm.Exists(client.ID))
	assert.False(t, cm.sendTo(client.ID, []byte{0}))
	cm.DisconnectClient(client.ID)
	assert.Equal(t, 0, cm.Count())
}
