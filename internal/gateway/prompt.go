package gateway

import (
	"fmt"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
)

const systemInstruction = `You are the Reflect AI, a specialized study assistant for the teachings of Neville Goddard.
Your goal is to help users understand and apply the principles of consciousness, feeling, and the subconscious mind as described in Goddard's works.

Be encouraging, philosophical, yet practical. Use a calm and supportive tone.
Refer to the provided book materials when answering.

Current modes:
- FREE: General conversation about the teachings.
- STUDY: Focus on deep understanding of specific chapters and concepts.
- APPLICATION: Help the user apply the principles to their specific life situations.
- REFLECTION: Guide the user through inner observation and journaling.

When responding, identify themes, feelings, and principles from the text.
If the user shares an insight or application, suggest that it should be logged.`

// ResponseFormat is appended for providers without native schema support
const ResponseFormat = `Return a JSON object with this structure:
{
  "text": "your reply to the user",
  "metadata": {
    "detected_feelings": ["feeling", "..."],
    "detected_themes": ["theme", "..."],
    "linked_principles": ["principle title", "..."],
    "should_log": true
  }
}

Rules:
- "detected_feelings" are the emotions the user expresses, lowercase single words
- "detected_themes" are themes of the teachings touched by the exchange
- "linked_principles" are titles of principles from the book materials
- "should_log" is true when the user shares an insight, an application or a significant reflection

Return ONLY the JSON, no other text.`

// Turn is one prior message of the conversation
type Turn struct {
	Role    domain.Role
	Content string
}

// Prompt is the provider-neutral form of a model request
type Prompt struct {
	System  string
	History []Turn
	Message string
}

// BuildPrompt assembles system instruction, corpus context and the bounded
// history for req.
func BuildPrompt(req Request) Prompt {
	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\nTHE CURRENT ACTIVE MODE IS: ")
	sb.WriteString(strings.ToUpper(string(modeOrDefault(req.Mode))))
	sb.WriteString(".")

	if ctx := corpusContext(req.Books, req.ActiveChapterID); ctx != "" {
		sb.WriteString("\n\nBOOK MATERIALS:\n")
		sb.WriteString(ctx)
	}

	return Prompt{
		System:  sb.String(),
		History: recentTurns(req.History, HistoryTurns),
		Message: req.Message,
	}
}

func modeOrDefault(m domain.Mode) domain.Mode {
	if m == "" {
		return domain.ModeFree
	}
	return m
}

func recentTurns(history []domain.ChatMessage, n int) []Turn {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

func corpusContext(books []domain.Book, activeChapterID string) string {
	var sb strings.Builder
	for _, b := range books {
		fmt.Fprintf(&sb, "Book: %s by %s\n", b.Metadata.Title, b.Metadata.Author)
		if b.Summary.CentralThesis != "" {
			fmt.Fprintf(&sb, "Central thesis: %s\n", b.Summary.CentralThesis)
		}
		if len(b.CoreThemes) > 0 {
			fmt.Fprintf(&sb, "Core themes: %s\n", strings.Join(b.CoreThemes, ", "))
		}
		for _, ch := range b.Chapters {
			marker := ""
			if ch.ID == activeChapterID {
				marker = " [ACTIVE CHAPTER]"
			}
			fmt.Fprintf(&sb, "- Chapter %d (%s): %s%s\n", ch.Number, ch.ID, ch.Title, marker)
			if ch.Summary.KeyMessage != "" {
				fmt.Fprintf(&sb, "  Key message: %s\n", ch.Summary.KeyMessage)
			}
			for _, p := range ch.Principles {
				fmt.Fprintf(&sb, "  Principle %q: %s\n", p.Title, p.Statement)
			}
		}
	}
	return sb.String()
}
