package dialogue

// DefaultRuneInterval is the reveal speed of a typewriter in milliseconds per rune.
const DefaultRuneInterval = 30

// Typewriter reveals text one rune at a time. It is advanced by the caller each tick and never
// schedules anything itself.
type Typewriter struct {
	runes    []rune
	cursor   int
	elapsed  float64
	interval float64
}

// NewTypewriter starts revealing text at intervalMs per rune.
func NewTypewriter(text string, intervalMs float64) *Typewriter {
	if intervalMs <= 0 {
		intervalMs = DefaultRuneInterval
	}
	return &Typewriter{runes: []rune(text), interval: intervalMs}
}

// Advance moves the cursor forward by the runes due in dtMs.
func (t *Typewriter) Advance(dtMs float64) {
	if t.Done() {
		return
	}
	t.elapsed += dtMs
	for t.elapsed >= t.interval && t.cursor < len(t.runes) {
		t.elapsed -= t.interval
		t.cursor++
	}
}

// Skip reveals the whole text.
func (t *Typewriter) Skip() {
	t.cursor = len(t.runes)
	t.elapsed = 0
}

// Visible returns the revealed part of the text.
func (t *Typewriter) Visible() string {
	return string(t.runes[:t.cursor])
}

func (t *Typewriter) Text() string {
	return string(t.runes)
}

func (t *Typewriter) Done() bool {
	return t.cursor >= len(t.runes)
}
