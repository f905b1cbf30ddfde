package dialogue

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

var fallbackLines = map[string][]string{
	"tired":   {"*yawns* Sorry, I'm a bit tired right now.", "It's been a long day..."},
	"happy":   {"It's good to see you!", "What a lovely day for a chat!"},
	"worried": {"I've got a lot on my mind...", "These are troubling times."},
	"neutral": {"Hello there.", "How can I help you?", "Yes?"},
	"relaxed": {"Ah, just taking it easy.", "Life is good, isn't it?"},
}

// FallbackGenerator picks a canned line for the NPC's mood. It is always available.
type FallbackGenerator struct {
	lock sync.Mutex
	rng  *rand.Rand
}

func NewFallbackGenerator(rng *rand.Rand) *FallbackGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &FallbackGenerator{rng: rng}
}

func (g *FallbackGenerator) Generate(_ context.Context, pc PromptContext) (string, error) {
	lines, ok := fallbackLines[pc.Mood]
	if !ok {
		lines = fallbackLines["neutral"]
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	return lines[g.rng.Intn(len(lines))], nil
}

func (g *FallbackGenerator) Available(context.Context) bool {
	return true
}
