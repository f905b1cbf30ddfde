package main

import (
	"fmt"
	"strings"

	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/messages"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	// cellWidth is how many terminal columns one tile takes, so tiles look roughly square.
	cellWidth  = 2
	panelWidth = 44
	eventLines = 8
)

var (
	styleDefault = tcell.StyleDefault.Background(tcell.ColorBlack)
	styleDim     = styleDefault.Foreground(tcell.ColorGray)
	styleTitle   = styleDefault.Foreground(tcell.ColorWhite).Bold(true)
	stylePlayer  = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleEnemy   = styleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSpeech  = styleDefault.Foreground(tcell.ColorLightCyan)
)

// camera maps tile coordinates into the map viewport.
type camera struct {
	x, y          int
	width, height int
}

// centerOn keeps the viewport inside the map while putting (tx, ty) as close to the middle as possible.
func (c *camera) centerOn(tx, ty, mapW, mapH int) {
	c.x = clampOffset(tx-c.width/2, mapW, c.width)
	c.y = clampOffset(ty-c.height/2, mapH, c.height)
}

func clampOffset(offset, size, view int) int {
	if size <= view {
		return 0
	}
	if offset < 0 {
		return 0
	}
	if offset > size-view {
		return size - view
	}
	return offset
}

func (c *camera) toScreen(tx, ty int) (int, int, bool) {
	sx, sy := tx-c.x, ty-c.y
	if sx < 0 || sy < 0 || sx >= c.width || sy >= c.height {
		return 0, 0, false
	}
	return sx * cellWidth, sy, true
}

// tileOf returns the tile under the center of r.
func tileOf(r kinematic.Rect, m *messages.ScreenMap) (int, int) {
	c := r.Center()
	return int(c.X) / m.TileWidth, int(c.Y) / m.TileHeight
}

type renderer struct {
	screen tcell.Screen
	cam    camera
}

func newRenderer(screen tcell.Screen) *renderer {
	return &renderer{screen: screen}
}

type frame struct {
	snapshot  *messages.WorldSnapshot
	screenMap *messages.ScreenMap
	ping      float64
	status    string
	talkingTo string
	input     string
	typing    bool
}

func (r *renderer) draw(f frame) {
	r.screen.Clear()
	w, h := r.screen.Size()

	if f.snapshot == nil || f.screenMap == nil {
		putText(r.screen, 1, 1, w-2, "Waiting for the world...", styleDim)
		r.screen.Show()
		return
	}

	mapCols := (w - panelWidth - 1) / cellWidth
	if mapCols < 1 {
		mapCols = 1
	}
	r.cam.width = min(mapCols, f.screenMap.WidthTiles)
	r.cam.height = min(h-2, f.screenMap.HeightTiles)
	if p := f.snapshot.Player; p != nil {
		tx, ty := tileOf(p.Rect, f.screenMap)
		r.cam.centerOn(tx, ty, f.screenMap.WidthTiles, f.screenMap.HeightTiles)
	} else {
		r.cam.centerOn(f.screenMap.WidthTiles/2, f.screenMap.HeightTiles/2, f.screenMap.WidthTiles, f.screenMap.HeightTiles)
	}

	r.drawMap(f.screenMap)
	r.drawEntities(f.snapshot, f.screenMap)
	r.drawPanel(r.cam.width*cellWidth+1, w, h, f)
	r.drawFooter(w, h, f)
	r.screen.Show()
}

func (r *renderer) drawMap(m *messages.ScreenMap) {
	for ty := 0; ty < m.HeightTiles; ty++ {
		for tx := 0; tx < m.WidthTiles; tx++ {
			sx, sy, ok := r.cam.toScreen(tx, ty)
			if !ok {
				continue
			}
			glyph, style := tileGlyph(m, tx, ty)
			r.putGlyph(sx, sy, glyph, style)
		}
	}
}

// tileGlyph picks a glyph for a tile from its top-most non-empty layer and whether it blocks movement.
func tileGlyph(m *messages.ScreenMap, tx, ty int) (string, tcell.Style) {
	i := ty*m.WidthTiles + tx
	blocked := i < len(m.Collision) && m.Collision[i]

	var color string
	for l := len(m.Layers) - 1; l >= 0; l-- {
		data := m.Layers[l].Data
		if i < len(data) && data[i] != 0 {
			color = m.DrawInfo[data[i]].Color
			break
		}
	}

	style := styleDefault
	if color != "" {
		style = style.Foreground(tcell.GetColor(color))
	} else if blocked {
		style = style.Foreground(tcell.ColorDarkGray)
	} else {
		style = style.Foreground(tcell.ColorDarkGreen)
	}
	if blocked {
		return "#", style
	}
	return ".", style
}

func (r *renderer) drawEntities(s *messages.WorldSnapshot, m *messages.ScreenMap) {
	for _, npc := range s.NPCs {
		if npc.Screen != s.ActiveScreen {
			continue
		}
		tx, ty := tileOf(npc.Rect, m)
		if sx, sy, ok := r.cam.toScreen(tx, ty); ok {
			style := styleDefault.Foreground(tcell.ColorWhite)
			if npc.Color != "" {
				style = styleDefault.Foreground(tcell.GetColor(npc.Color))
			}
			r.putGlyph(sx, sy, npcGlyph(npc), style)
		}
	}
	for _, e := range s.Enemies {
		tx, ty := tileOf(e.Rect, m)
		if sx, sy, ok := r.cam.toScreen(tx, ty); ok {
			glyph := strings.ToLower(firstRune(e.Kind, "e"))
			if e.Dying {
				glyph = "x"
			}
			r.putGlyph(sx, sy, glyph, styleEnemy)
		}
	}
	if p := s.Player; p != nil {
		tx, ty := tileOf(p.Rect, m)
		if sx, sy, ok := r.cam.toScreen(tx, ty); ok {
			r.putGlyph(sx, sy, "@", stylePlayer)
		}
	}
}

func npcGlyph(npc messages.NPCSnapshot) string {
	if npc.Symbol != "" {
		return npc.Symbol
	}
	return firstRune(npc.Name, "?")
}

func firstRune(s, fallback string) string {
	for _, r := range s {
		return string(r)
	}
	return fallback
}

func (r *renderer) drawPanel(x, w, h int, f frame) {
	s := f.snapshot
	width := w - x - 1
	y := 0
	line := func(text string, style tcell.Style) {
		if y < h-1 {
			putText(r.screen, x, y, width, text, style)
		}
		y++
	}

	line(fmt.Sprintf("%s  Day %d %02d:00 (%s)", s.ActiveScreen, s.Day, s.Hour, s.TimeOfDay), styleTitle)
	speed := fmt.Sprintf("Speed x%g", s.Speed)
	if s.Paused {
		speed += "  PAUSED"
	}
	line(fmt.Sprintf("%s  Ping %.0fms", speed, f.ping), styleDim)

	if p := s.Player; p != nil {
		line(fmt.Sprintf("%s  Lv %d  HP %d/%d  XP %d/%d", p.Name, p.Level, p.HP, p.MaxHP, p.XP, p.XPToNext), stylePlayer)
	} else {
		line("Observer mode", styleDim)
	}
	y++

	for _, npc := range s.NPCs {
		if npc.Screen != s.ActiveScreen {
			continue
		}
		marker := " "
		if npc.Name == s.Focus {
			marker = ">"
		}
		line(fmt.Sprintf("%s%s %s, %s, %s", marker, npcGlyph(npc), npc.Name, npc.Activity, npc.Mood), styleDefault)
		if npc.Speaking || npc.Speech != "" {
			for _, l := range wrap(npc.Speech, width-4) {
				line("   "+l, styleSpeech)
			}
		}
	}
	y++

	// newest first
	events := s.Events
	if len(events) > eventLines {
		events = events[:eventLines]
	}
	for _, e := range events {
		for _, l := range wrap(e.Text, width) {
			line(l, styleDim)
		}
	}
}

func (r *renderer) drawFooter(w, h int, f frame) {
	switch {
	case f.typing:
		putText(r.screen, 0, h-1, w, fmt.Sprintf("To %s: %s_", f.talkingTo, f.input), styleTitle)
	case f.status != "":
		putText(r.screen, 0, h-1, w, f.status, styleDim)
	default:
		putText(r.screen, 0, h-1, w, "arrows move  space attack  e interact  t talk  j/l join/leave  p pause  s speed  tab screen  q quit", styleDim)
	}
}

// putGlyph draws a single glyph at (x, y), padding wide glyphs' second column.
func (r *renderer) putGlyph(x, y int, glyph string, style tcell.Style) {
	runes := []rune(glyph)
	if len(runes) == 0 {
		return
	}
	r.screen.SetContent(x, y, runes[0], runes[1:], style)
	if runewidth.StringWidth(glyph) < cellWidth {
		r.screen.SetContent(x+1, y, ' ', nil, style)
	}
}

// putText writes s at (x, y), truncated to maxWidth columns.
func putText(screen tcell.Screen, x, y, maxWidth int, s string, style tcell.Style) {
	s = runewidth.Truncate(s, maxWidth, "…")
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

// wrap breaks text into lines of at most width columns on word boundaries.
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if runewidth.StringWidth(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = runewidth.Truncate(word, width, "")
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
