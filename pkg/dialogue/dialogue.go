package dialogue

import (
	"context"
	"errors"

	"github.com/cbodonnell/tileworld/pkg/game/constants"
	"github.com/cbodonnell/tileworld/pkg/kinematic"
)

// ErrUnavailable is returned by generators that cannot currently produce text.
var ErrUnavailable = errors.New("dialogue generator unavailable")

// PromptContext is everything a generator may draw on when phrasing an NPC's reply.
type PromptContext struct {
	NPCName      string
	Personality  string
	Mood         string
	Activity     string
	Relationship int
	Memories     []string
	Location     string
	TimeOfDay    string
	PlayerName   string
	Message      string
}

// Generator produces an NPC's reply to the player.
type Generator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
	Available(ctx context.Context) bool
}

// CanInitiateDialogue reports whether two entities are close enough to talk:
// their centers are less than two tiles apart.
func CanInitiateDialogue(a, b kinematic.Rect) bool {
	return kinematic.DistanceBetween(a, b) < constants.DialogueRange
}
