package game

import (
	"fmt"

	"github.com/cbodonnell/tileworld/pkg/collisions"
	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/solarlune/resolv"
)

// Commands are queued by other goroutines and applied at the start of the next tick.

// SetIntentCommand replaces the player's action intent until the next one arrives.
type SetIntentCommand struct {
	Intent types.Intent
}

// JoinCommand switches from observer mode to adventure mode.
type JoinCommand struct {
	Name string
}

// LeaveCommand removes the player and returns to observer mode.
type LeaveCommand struct{}

type TogglePauseCommand struct{}

type CycleSpeedCommand struct{}

// ActivateScreenCommand switches the simulated screen. It is only honored in observer mode.
type ActivateScreenCommand struct {
	Screen string
}

// DialogueOutcomeCommand applies one NPC reply: the relationship change, the memory of it and the speech bubble.
type DialogueOutcomeCommand struct {
	NPC       string
	Player    string
	Reply     string
	Sentiment int
}

// DialogueEndCommand records a finished conversation.
type DialogueEndCommand struct {
	NPC    string
	Player string
	Turns  int
}

// processCommands applies every pending command in arrival order.
func (gm *GameManager) processCommands() {
	pending, err := gm.commandQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read commands: %v", err)
		return
	}
	for _, item := range pending {
		switch cmd := item.(type) {
		case *SetIntentCommand:
			gm.intent = cmd.Intent
		case *JoinCommand:
			gm.join(cmd.Name)
		case *LeaveCommand:
			gm.leave()
		case *TogglePauseCommand:
			paused := gm.clock.TogglePause()
			log.Info("Simulation paused: %t", paused)
		case *CycleSpeedCommand:
			speed := gm.clock.CycleSpeed()
			log.Info("Game speed set to %gx", speed)
		case *ActivateScreenCommand:
			gm.activateScreen(cmd.Screen)
		case *DialogueOutcomeCommand:
			gm.applyDialogueOutcome(cmd)
		case *DialogueEndCommand:
			gm.applyDialogueEnd(cmd)
		default:
			log.Error("Unhandled command type: %T", cmd)
		}
	}
}

func (gm *GameManager) join(name string) {
	if gm.player != nil {
		log.Warn("Player %s is already in the world", gm.player.Name)
		return
	}
	if name == "" {
		name = gm.world.PlayerName
	}
	screen := gm.screens.Active()
	res := screen.Query.FindSafeSpawn(constants.PlayerSize, constants.PlayerSize, collisions.SpawnOptions{Zones: screen.Zones(), Rand: gm.rng})
	if res.Fallback {
		log.Warn("No safe spawn for the player on %s after %d attempts, using fallback position", screen.Name, res.Attempts)
	}

	gm.player = types.NewPlayer(name, res.Position.X, res.Position.Y)
	gm.playerObject = resolv.NewObject(res.Position.X, res.Position.Y, constants.PlayerSize, constants.PlayerSize, collisions.TagPlayer)
	screen.Space.Add(gm.playerObject)
	gm.intent = types.Intent{}
	log.Debug("Player %s joined on %s at (%.0f, %.0f)", name, screen.Name, res.Position.X, res.Position.Y)
	gm.addEvent("You join the world in Adventure Mode!")
}

func (gm *GameManager) leave() {
	if gm.player == nil {
		log.Warn("No player to remove")
		return
	}
	gm.screens.Active().Space.Remove(gm.playerObject)
	gm.player = nil
	gm.playerObject = nil
	gm.intent = types.Intent{}
	gm.focus = ""
	gm.addEvent("You return to Observer Mode.")
}

func (gm *GameManager) activateScreen(name string) {
	if gm.player != nil {
		log.Warn("Cannot switch to %s while a player is in the world", name)
		return
	}
	if err := gm.screens.SetActive(name); err != nil {
		log.Warn("Failed to activate screen: %v", err)
		return
	}
	log.Info("Observing %s", name)
}

func (gm *GameManager) findNPC(name string) types.Character {
	return findCharacter(gm.npcs, name)
}

func (gm *GameManager) applyDialogueOutcome(cmd *DialogueOutcomeCommand) {
	npc := gm.findNPC(cmd.NPC)
	if npc == nil {
		log.Warn("Dialogue outcome for unknown NPC %s", cmd.NPC)
		return
	}
	if cmd.Sentiment != 0 {
		npc.UpdateRelationship(cmd.Player, cmd.Sentiment)
	}
	npc.RememberEvent(fmt.Sprintf("Talked with %s about: %q", cmd.Player, dialogue.Topic(cmd.Reply)))
	gm.speech[npc.Name()] = dialogue.NewTypewriter(cmd.Reply, dialogue.DefaultRuneInterval)
}

func (gm *GameManager) applyDialogueEnd(cmd *DialogueEndCommand) {
	npc := gm.findNPC(cmd.NPC)
	if npc == nil {
		log.Warn("Dialogue end for unknown NPC %s", cmd.NPC)
		return
	}
	if cmd.Turns > 0 {
		npc.RememberEvent(fmt.Sprintf("Had a %d-turn conversation with %s", cmd.Turns, cmd.Player))
	}
	delete(gm.speech, npc.Name())
	gm.addEvent(fmt.Sprintf("%s finished talking with %s", npc.Name(), cmd.Player))
}
