package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/gorilla/mux"
)

type sayRequest struct {
	Message string `json:"message"`
}

type sayResponse struct {
	dialogue.Reply
	Ended bool `json:"ended"`
}

// HandleStartDialogue opens a conversation. The player must be on the NPC's screen and within talking range.
func HandleStartDialogue(stateManager state.StateManager, service *dialogue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, ok := latestSnapshot(w, r, stateManager)
		if !ok {
			return
		}
		npc, ok := findNPC(w, r, snapshot)
		if !ok {
			return
		}
		player := snapshot.Player
		if player == nil {
			http.Error(w, "Join the world first", http.StatusBadRequest)
			return
		}
		if npc.Screen != snapshot.ActiveScreen || !dialogue.CanInitiateDialogue(player.Rect, npc.Rect) {
			http.Error(w, "Too far away to talk", http.StatusBadRequest)
			return
		}

		conversation, err := service.Start(npc.Name, player.Name)
		if err != nil {
			if errors.Is(err, dialogue.ErrConversationActive) {
				http.Error(w, "Already talking", http.StatusConflict)
				return
			}
			log.Error("failed to start conversation with %s: %v", npc.Name, err)
			http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, conversation)
	}
}

// HandleSay sends one line to the NPC and queues the reply's effect on the world.
// A farewell also ends the conversation.
func HandleSay(stateManager state.StateManager, service *dialogue.Service, commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := sayRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			http.Error(w, "A message is required", http.StatusBadRequest)
			return
		}
		snapshot, ok := latestSnapshot(w, r, stateManager)
		if !ok {
			return
		}
		npc, ok := findNPC(w, r, snapshot)
		if !ok {
			return
		}
		conversation, ok := service.Active(npc.Name)
		if !ok {
			http.Error(w, "Not talking to "+npc.Name, http.StatusConflict)
			return
		}

		pc := dialogue.PromptContext{
			NPCName:      npc.Name,
			Personality:  npc.Personality,
			Mood:         npc.Mood,
			Activity:     npc.Activity,
			Relationship: npc.Relationship,
			Memories:     npc.Memories,
			Location:     npc.Screen,
			TimeOfDay:    snapshot.TimeOfDay,
			PlayerName:   conversation.Player,
			Message:      req.Message,
		}
		reply, err := service.Say(r.Context(), pc)
		if err != nil {
			if errors.Is(err, dialogue.ErrNoConversation) {
				http.Error(w, "Not talking to "+npc.Name, http.StatusConflict)
				return
			}
			log.Error("failed to get reply from %s: %v", npc.Name, err)
			http.Error(w, "Failed to get reply", http.StatusInternalServerError)
			return
		}

		if err := commands.Enqueue(&game.DialogueOutcomeCommand{
			NPC:       npc.Name,
			Player:    conversation.Player,
			Reply:     reply.Text,
			Sentiment: reply.Sentiment,
		}); err != nil {
			log.Warn("Dropped dialogue outcome for %s: %v", npc.Name, err)
		}

		ended := false
		if dialogue.IsFarewell(req.Message) {
			ended = endConversation(service, commands, npc.Name)
		}
		writeJSON(w, http.StatusOK, sayResponse{Reply: reply, Ended: ended})
	}
}

func HandleEndDialogue(service *dialogue.Service, commands queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["npc"]
		if !endConversation(service, commands, name) {
			http.Error(w, "Not talking to "+name, http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func endConversation(service *dialogue.Service, commands queue.Queue, npc string) bool {
	conversation, err := service.End(npc)
	if err != nil {
		return false
	}
	if err := commands.Enqueue(&game.DialogueEndCommand{
		NPC:    conversation.NPC,
		Player: conversation.Player,
		Turns:  conversation.Turns,
	}); err != nil {
		log.Warn("Dropped end of conversation with %s: %v", npc, err)
	}
	return true
}

func findNPC(w http.ResponseWriter, r *http.Request, snapshot *messages.WorldSnapshot) (*messages.NPCSnapshot, bool) {
	name := mux.Vars(r)["npc"]
	for i := range snapshot.NPCs {
		if snapshot.NPCs[i].Name == name {
			return &snapshot.NPCs[i], true
		}
	}
	http.Error(w, "Unknown NPC", http.StatusNotFound)
	return nil, false
}
