package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/tileworld/pkg/client"
	"github.com/cbodonnell/tileworld/pkg/game/types"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/gdamore/tcell/v2"
)

var errQuit = errors.New("quit")

const (
	frameInterval = 33 * time.Millisecond
	// holdWindow is how long a direction stays held after its last key press. Terminals report
	// key repeats, not releases.
	holdWindow    = 400 * time.Millisecond
	statusTimeout = 4 * time.Second
	actionTimeout = 45 * time.Second
)

type direction int

const (
	dirUp direction = iota
	dirDown
	dirLeft
	dirRight
)

// heldKeys remembers when each direction key was last seen.
type heldKeys map[direction]time.Time

func (h heldKeys) intent(now time.Time) types.Intent {
	held := func(d direction) bool {
		t, ok := h[d]
		return ok && now.Sub(t) < holdWindow
	}
	return types.Intent{
		Up:    held(dirUp),
		Down:  held(dirDown),
		Left:  held(dirLeft),
		Right: held(dirRight),
	}
}

// result is applied on the render goroutine once a background request finishes.
type result func(o *observer)

type observer struct {
	api       *client.APIClient
	stream    *client.Stream
	snapshots queue.Queue
	screen    tcell.Screen
	renderer  *renderer
	name      string

	snapshot *messages.WorldSnapshot
	maps     map[string]*messages.ScreenMap

	held       heldKeys
	sentIntent types.Intent

	status      string
	statusUntil time.Time

	typing    bool
	input     []rune
	talkingTo string

	results chan result
}

func newObserver(api *client.APIClient, stream *client.Stream, snapshots queue.Queue, screen tcell.Screen, name string) *observer {
	return &observer{
		api:       api,
		stream:    stream,
		snapshots: snapshots,
		screen:    screen,
		renderer:  newRenderer(screen),
		name:      name,
		maps:      make(map[string]*messages.ScreenMap),
		held:      make(heldKeys),
		results:   make(chan result, 16),
	}
}

// run drives input and rendering until the user quits or ctx is done.
func (o *observer) run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := o.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := o.handleEvent(ctx, ev); err != nil {
				return err
			}
		case apply := <-o.results:
			apply(o)
		case now := <-ticker.C:
			o.drainSnapshots()
			o.ensureMap(ctx)
			o.updateIntent(ctx, now)
			o.draw(now)
		}
	}
}

func (o *observer) drainSnapshots() {
	items, err := o.snapshots.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read snapshots: %v", err)
		return
	}
	for _, item := range items {
		if s, ok := item.(*messages.WorldSnapshot); ok {
			o.snapshot = s
		}
	}
}

// ensureMap fetches the active screen's tiles the first time it is shown.
func (o *observer) ensureMap(ctx context.Context) {
	if o.snapshot == nil {
		return
	}
	name := o.snapshot.ActiveScreen
	if _, ok := o.maps[name]; ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	m, err := o.api.ScreenMap(ctx, name)
	if err != nil {
		log.Error("Failed to fetch map for %s: %v", name, err)
		o.setStatus(fmt.Sprintf("Failed to load %s", name))
		return
	}
	o.maps[name] = m
}

func (o *observer) updateIntent(ctx context.Context, now time.Time) {
	if o.snapshot == nil || o.snapshot.Player == nil {
		return
	}
	intent := o.held.intent(now)
	if intent == o.sentIntent {
		return
	}
	o.sentIntent = intent
	o.do(ctx, "move", func(ctx context.Context) (result, error) {
		return nil, o.api.SendIntent(ctx, intent)
	})
}

func (o *observer) draw(now time.Time) {
	if now.After(o.statusUntil) {
		o.status = ""
	}
	f := frame{
		snapshot:  o.snapshot,
		ping:      o.stream.Ping(),
		status:    o.status,
		talkingTo: o.talkingTo,
		input:     string(o.input),
		typing:    o.typing,
	}
	if o.snapshot != nil {
		f.screenMap = o.maps[o.snapshot.ActiveScreen]
	}
	o.renderer.draw(f)
}

func (o *observer) setStatus(status string) {
	o.status = status
	o.statusUntil = time.Now().Add(statusTimeout)
}

// do runs a request off the render goroutine and reports failures in the status line.
func (o *observer) do(ctx context.Context, label string, fn func(ctx context.Context) (result, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		apply, err := fn(ctx)
		if err != nil {
			log.Warn("Failed to %s: %v", label, err)
			apply = func(o *observer) { o.setStatus(fmt.Sprintf("Failed to %s: %v", label, err)) }
		}
		if apply == nil {
			return
		}
		select {
		case o.results <- apply:
		case <-ctx.Done():
		}
	}()
}

func (o *observer) handleEvent(ctx context.Context, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		o.screen.Sync()
	case *tcell.EventKey:
		if o.typing {
			o.handleTypingKey(ctx, ev)
			return nil
		}
		return o.handleKey(ctx, ev)
	}
	return nil
}

func (o *observer) handleKey(ctx context.Context, ev *tcell.EventKey) error {
	now := time.Now()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return errQuit
	case tcell.KeyUp:
		o.held[dirUp] = now
	case tcell.KeyDown:
		o.held[dirDown] = now
	case tcell.KeyLeft:
		o.held[dirLeft] = now
	case tcell.KeyRight:
		o.held[dirRight] = now
	case tcell.KeyTab:
		o.nextScreen(ctx)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return errQuit
		case ' ':
			intent := o.held.intent(now)
			intent.Attack = true
			o.do(ctx, "attack", func(ctx context.Context) (result, error) {
				return nil, o.api.SendIntent(ctx, intent)
			})
		case 'e':
			intent := o.held.intent(now)
			intent.Interact = true
			o.do(ctx, "interact", func(ctx context.Context) (result, error) {
				return nil, o.api.SendIntent(ctx, intent)
			})
		case 'j':
			o.do(ctx, "join", func(ctx context.Context) (result, error) {
				return nil, o.api.Join(ctx, o.name)
			})
		case 'l':
			o.do(ctx, "leave", func(ctx context.Context) (result, error) {
				return nil, o.api.Leave(ctx)
			})
		case 'p':
			o.do(ctx, "pause", func(ctx context.Context) (result, error) {
				return nil, o.api.TogglePause(ctx)
			})
		case 's':
			o.do(ctx, "change speed", func(ctx context.Context) (result, error) {
				return nil, o.api.CycleSpeed(ctx)
			})
		case 't':
			o.startTalking(ctx)
		}
	}
	return nil
}

// nextScreen switches the simulated screen in observer mode.
func (o *observer) nextScreen(ctx context.Context) {
	if o.snapshot == nil || len(o.snapshot.Screens) < 2 {
		return
	}
	if o.snapshot.Player != nil {
		o.setStatus("Leave adventure mode to switch screens")
		return
	}
	next := o.snapshot.Screens[0]
	for i, name := range o.snapshot.Screens {
		if name == o.snapshot.ActiveScreen {
			next = o.snapshot.Screens[(i+1)%len(o.snapshot.Screens)]
			break
		}
	}
	o.do(ctx, "switch screen", func(ctx context.Context) (result, error) {
		return nil, o.api.ActivateScreen(ctx, next)
	})
}

func (o *observer) startTalking(ctx context.Context) {
	if o.snapshot == nil || o.snapshot.Focus == "" {
		o.setStatus("Walk up to someone and press e first")
		return
	}
	npc := o.snapshot.Focus
	o.do(ctx, "talk to "+npc, func(ctx context.Context) (result, error) {
		if _, err := o.api.StartDialogue(ctx, npc); err != nil {
			return nil, err
		}
		return func(o *observer) {
			o.typing = true
			o.talkingTo = npc
			o.input = o.input[:0]
		}, nil
	})
}

func (o *observer) handleTypingKey(ctx context.Context, ev *tcell.EventKey) {
	npc := o.talkingTo
	switch ev.Key() {
	case tcell.KeyEscape:
		o.typing = false
		o.do(ctx, "end the conversation", func(ctx context.Context) (result, error) {
			return nil, o.api.EndDialogue(ctx, npc)
		})
	case tcell.KeyEnter:
		message := string(o.input)
		o.input = o.input[:0]
		if message == "" {
			return
		}
		o.do(ctx, "talk to "+npc, func(ctx context.Context) (result, error) {
			reply, err := o.api.Say(ctx, npc, message)
			if err != nil {
				return nil, err
			}
			return func(o *observer) {
				if reply.Ended {
					o.typing = false
					o.setStatus(fmt.Sprintf("%s: %s", npc, reply.Text))
				}
			}, nil
		})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(o.input) > 0 {
			o.input = o.input[:len(o.input)-1]
		}
	case tcell.KeyRune:
		o.input = append(o.input, ev.Rune())
	}
}
