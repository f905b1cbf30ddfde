package network

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cbodonnell/tileworld/pkg/game"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/gorilla/mux"
)

// ScreenMapProvider serves the static tile data of a screen.
type ScreenMapProvider interface {
	ScreenMap(name string) (*messages.ScreenMap, error)
}

type joinRequest struct {
	Name string `json:"name"`
}

func HandleGetState(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := latestSnapshot(w, r, stateManager)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func HandleGetEvents(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := latestSnapshot(w, r, stateManager)
		if !ok {
			return
		}
		events := snapshot.Events
		if events == nil {
			events = []messages.EventSnapshot{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func HandleGetScreenMap(maps ScreenMapProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		m, err := maps.ScreenMap(name)
		if err != nil {
			if errors.Is(err, game.ErrUnknownScreen) {
				http.Error(w, "Unknown screen", http.StatusNotFound)
				return
			}
			log.Error("failed to get screen map %s: %v", name, err)
			http.Error(w, "Failed to get screen map", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// HandleJoin queues a switch to adventure mode. The body is optional.
func HandleJoin(commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := joinRequest{}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
		}
		enqueue(w, commands, &game.JoinCommand{Name: req.Name})
	}
}

func HandleLeave(commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enqueue(w, commands, &game.LeaveCommand{})
	}
}

// HandleInput replaces the player's intent. Attack and interact fire once per request.
func HandleInput(commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intent := types.Intent{}
		if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
			http.Error(w, "Invalid intent", http.StatusBadRequest)
			return
		}
		enqueue(w, commands, &game.SetIntentCommand{Intent: intent})
	}
}

func HandleTogglePause(commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enqueue(w, commands, &game.TogglePauseCommand{})
	}
}

func HandleCycleSpeed(commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enqueue(w, commands, &game.CycleSpeedCommand{})
	}
}

func HandleActivateScreen(commands queue.Queue, maps ScreenMapProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if _, err := maps.ScreenMap(name); err != nil {
			http.Error(w, "Unknown screen", http.StatusNotFound)
			return
		}
		enqueue(w, commands, &game.ActivateScreenCommand{Screen: name})
	}
}

// latestSnapshot writes a 503 while the simulation has not published yet.
func latestSnapshot(w http.ResponseWriter, r *http.Request, stateManager state.StateManager) (*messages.WorldSnapshot, bool) {
	snapshot, err := stateManager.Get(r.Context())
	if err != nil {
		if errors.Is(err, state.ErrNoSnapshot) {
			http.Error(w, "World is not ready", http.StatusServiceUnavailable)
			return nil, false
		}
		log.Error("failed to get snapshot: %v", err)
		http.Error(w, "Failed to get snapshot", http.StatusInternalServerError)
		return nil, false
	}
	return snapshot, true
}

func enqueue(w http.ResponseWriter, commands queue.Queue, cmd interface{}) {
	if err := commands.Enqueue(cmd); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			http.Error(w, "Server is busy", http.StatusServiceUnavailable)
			return
		}
		log.Error("failed to enqueue %T: %v", cmd, err)
		http.Error(w, "Failed to enqueue command", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
