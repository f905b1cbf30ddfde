package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/tileworld/pkg/log"
	"golang.org/x/time/rate"
)

var (
	ErrNoConversation     = errors.New("no active conversation")
	ErrConversationActive = errors.New("conversation already active")
)

// Reply sources.
const (
	SourceGenerator = "generator"
	SourceFallback  = "fallback"
)

// Conversation tracks one player's talk with one NPC.
type Conversation struct {
	NPC       string    `json:"npc"`
	Player    string    `json:"player"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"startedAt"`
}

// Reply is a cleaned NPC reply and its effect on the relationship.
type Reply struct {
	Text      string `json:"text"`
	Sentiment int    `json:"sentiment"`
	Source    string `json:"source"`
	Turn      int    `json:"turn"`
}

// Service runs conversations. Replies come from the generator when it is available and within
// its rate limit, and from the fallback otherwise. It is safe for concurrent use and never touches
// simulation state; callers apply replies through the game's command queue.
type Service struct {
	generator Generator
	fallback  Generator
	limiter   *rate.Limiter

	lock          sync.Mutex
	conversations map[string]*Conversation
}

type NewServiceOptions struct {
	// Generator may be nil, in which case every reply is a fallback line.
	Generator Generator
	Fallback  Generator
	// RateLimit bounds generator calls per second across all conversations. Zero means unlimited.
	RateLimit rate.Limit
	Burst     int
}

func NewService(opts NewServiceOptions) *Service {
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewFallbackGenerator(nil)
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return &Service{
		generator:     opts.Generator,
		fallback:      fallback,
		limiter:       limiter,
		conversations: make(map[string]*Conversation),
	}
}

// Start opens a conversation with an NPC.
func (s *Service) Start(npc, player string) (Conversation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if c, ok := s.conversations[npc]; ok {
		return *c, fmt.Errorf("%w: %s is talking with %s", ErrConversationActive, npc, c.Player)
	}
	c := &Conversation{NPC: npc, Player: player, StartedAt: time.Now()}
	s.conversations[npc] = c
	return *c, nil
}

// Active returns the open conversation with an NPC.
func (s *Service) Active(npc string) (Conversation, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.conversations[npc]
	if !ok {
		return Conversation{}, false
	}
	return *c, true
}

// Say produces the NPC's reply to pc.Message and counts the turn.
func (s *Service) Say(ctx context.Context, pc PromptContext) (Reply, error) {
	if _, ok := s.Active(pc.NPCName); !ok {
		return Reply{}, fmt.Errorf("%w with %s", ErrNoConversation, pc.NPCName)
	}

	reply := s.generate(ctx, pc)
	reply.Sentiment = Sentiment(reply.Text)

	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.conversations[pc.NPCName]
	if !ok {
		return Reply{}, fmt.Errorf("%w with %s", ErrNoConversation, pc.NPCName)
	}
	c.Turns++
	reply.Turn = c.Turns
	return reply, nil
}

func (s *Service) generate(ctx context.Context, pc PromptContext) Reply {
	if s.generator != nil && s.generator.Available(ctx) && (s.limiter == nil || s.limiter.Allow()) {
		raw, err := s.generator.Generate(ctx, pc)
		if err != nil {
			log.Component("dialogue").Debug("Generator failed for %s, using fallback: %v", pc.NPCName, err)
		} else if text, ok := CleanResponse(pc.NPCName, raw); ok {
			return Reply{Text: text, Source: SourceGenerator}
		}
	}

	text, err := s.fallback.Generate(ctx, pc)
	if err != nil || text == "" {
		text = "..."
	}
	return Reply{Text: text, Source: SourceFallback}
}

// End closes the conversation with an NPC and returns its final state.
func (s *Service) End(npc string) (Conversation, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.conversations[npc]
	if !ok {
		return Conversation{}, fmt.Errorf("%w with %s", ErrNoConversation, npc)
	}
	delete(s.conversations, npc)
	return *c, nil
}
