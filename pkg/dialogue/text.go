package dialogue

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxReplyRunes caps a cleaned reply.
	MaxReplyRunes = 300
	// MinReplyRunes is the shortest reply kept before the fallback takes over.
	MinReplyRunes = 5
	// SentimentStep is the relationship change per matched keyword.
	SentimentStep = 5
	// topicRunes is how much of a reply goes into the NPC's memory of it.
	topicRunes = 50
)

var (
	thinkBlock    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	thinkingAside = regexp.MustCompile(`(?i)\([^)]*thinking[^)]*\)`)
	whitespace    = regexp.MustCompile(`\s+`)

	positiveWords = []string{"thank", "glad", "happy", "friend", "help", "wonderful", "great"}
	negativeWords = []string{"angry", "hate", "stupid", "leave", "go away", "annoying"}
)

// BuildPrompt renders the instruction sent to a language model.
func BuildPrompt(pc PromptContext) string {
	player := pc.PlayerName
	if player == "" {
		player = "an adventurer"
	}
	message := pc.Message
	if message == "" {
		message = "Hello"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.\n", pc.NPCName, pc.Personality)
	fmt.Fprintf(&b, "Speaking to: %s\n", player)
	fmt.Fprintf(&b, "Your relationship level: %d (-100 to 100)\n", pc.Relationship)
	fmt.Fprintf(&b, "Your current mood: %s\n", pc.Mood)
	if pc.Activity != "" {
		fmt.Fprintf(&b, "You are currently %s.\n", pc.Activity)
	}
	fmt.Fprintf(&b, "Location: %s\n", pc.Location)
	fmt.Fprintf(&b, "Time: %s\n", pc.TimeOfDay)
	if len(pc.Memories) > 0 {
		fmt.Fprintf(&b, "Recent memories: %s\n", strings.Join(pc.Memories, "; "))
	}
	fmt.Fprintf(&b, "\nThe player says: %q\n\n", message)
	fmt.Fprintf(&b, "Important: Respond ONLY with what %s would say. Do not include any thinking, analysis, or stage directions.\n", pc.NPCName)
	b.WriteString("Write only the character's spoken words, 1-3 sentences.\n")
	b.WriteString("Be conversational and show personality.")
	return b.String()
}

// CleanResponse strips model reasoning and stage directions from a reply, drops a leading
// "Name:" speaker tag, trims quotes, collapses whitespace and caps the length.
// It reports false when too little text is left to use.
func CleanResponse(npcName, text string) (string, bool) {
	text = thinkBlock.ReplaceAllString(text, "")
	text = bracketed.ReplaceAllString(text, "")
	text = thinkingAside.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")

	if npcName != "" {
		if rest, ok := cutPrefixFold(text, npcName+":"); ok {
			text = strings.TrimSpace(rest)
		}
	}
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)

	if runes := []rune(text); len(runes) > MaxReplyRunes {
		text = string(runes[:MaxReplyRunes])
	}
	if len([]rune(text)) < MinReplyRunes {
		return "", false
	}
	return text, true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// Sentiment scores text by keyword: +5 for every positive word present, -5 for every negative one.
func Sentiment(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score += SentimentStep
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score -= SentimentStep
		}
	}
	return score
}

// IsFarewell reports whether a player message ends the conversation.
func IsFarewell(message string) bool {
	return strings.Contains(strings.ToLower(message), "bye")
}

// Topic is the short form of a reply kept in the NPC's memory.
func Topic(reply string) string {
	runes := []rune(reply)
	if len(runes) > topicRunes {
		runes = runes[:topicRunes]
	}
	return string(runes)
}
