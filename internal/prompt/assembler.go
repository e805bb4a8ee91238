package prompt

import (
	"fmt"
	"strings"

	"github.com/xxxsen/docask/internal/model"
)

const (
	defaultMaxPassages     = 5
	defaultMaxPassageChars = 1200
)

const systemInstruction = `You are an assistant that answers questions using ONLY the context passages below.
Rules:
- Every factual claim must carry the citation marker of the passage it came from, e.g. [handbook.pdf, Time Off].
- If the context does not contain the answer, reply exactly: I don't know
- Do not use knowledge outside the supplied context.`

type ContextPassage struct {
	Marker  string
	Text    string
	Passage model.RetrievedPassage
}

// Context is the bounded prompt context for a single request. It keeps the
// passages that were actually supplied to the model so citation validation
// can run against them later.
type Context struct {
	Question string
	Passages []ContextPassage
}

// Markers returns the set of (document, section) keys present in the
// context.
func (c *Context) Markers() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Passages))
	for _, p := range c.Passages {
		set[MarkerKey(p.Passage.SourceDocument, p.Passage.SourceSection)] = struct{}{}
	}
	return set
}

// Lookup finds the context passage matching a (document, section) pair.
func (c *Context) Lookup(document, section string) (ContextPassage, bool) {
	key := MarkerKey(document, section)
	for _, p := range c.Passages {
		if MarkerKey(p.Passage.SourceDocument, p.Passage.SourceSection) == key {
			return p, true
		}
	}
	return ContextPassage{}, false
}

// MarkerKey normalizes a (document, section) pair into a comparison key.
// Passages sharing the pair share the key.
func MarkerKey(document, section string) string {
	return strings.ToLower(strings.TrimSpace(document)) + "\x00" + strings.ToLower(strings.TrimSpace(section))
}

// MarkerFor renders the citation marker a passage is tagged with in the
// prompt.
func MarkerFor(p model.RetrievedPassage) string {
	if p.Page > 0 {
		return fmt.Sprintf("[%s, %s, page %d]", p.SourceDocument, p.SourceSection, p.Page)
	}
	return fmt.Sprintf("[%s, %s]", p.SourceDocument, p.SourceSection)
}

type Assembler struct {
	maxPassages     int
	maxPassageChars int
}

func NewAssembler(maxPassages, maxPassageChars int) *Assembler {
	if maxPassages <= 0 {
		maxPassages = defaultMaxPassages
	}
	if maxPassageChars <= 0 {
		maxPassageChars = defaultMaxPassageChars
	}
	return &Assembler{maxPassages: maxPassages, maxPassageChars: maxPassageChars}
}

// Assemble builds the prompt context from the question and the ranked
// passages. Deterministic: same inputs produce the same context.
func (a *Assembler) Assemble(question string, passages []model.RetrievedPassage) *Context {
	limit := a.maxPassages
	if len(passages) < limit {
		limit = len(passages)
	}
	pc := &Context{
		Question: question,
		Passages: make([]ContextPassage, 0, limit),
	}
	for _, p := range passages[:limit] {
		pc.Passages = append(pc.Passages, ContextPassage{
			Marker:  MarkerFor(p),
			Text:    truncatePassage(p.Text, a.maxPassageChars),
			Passage: p,
		})
	}
	return pc
}

// Render produces the full prompt sent to the generation engine.
func (a *Assembler) Render(pc *Context) string {
	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\nContext:\n")
	for _, p := range pc.Passages {
		sb.WriteString(p.Marker)
		sb.WriteString("\n")
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(pc.Question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

// truncatePassage cuts text to at most max runes. When a sentence boundary
// falls inside the last 20% of the window the cut happens there instead of
// mid-sentence.
func truncatePassage(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	window := runes[:max]
	floor := max * 4 / 5
	if idx := lastSentenceBoundary(window, floor); idx >= 0 {
		return strings.TrimSpace(string(window[:idx+1]))
	}
	return strings.TrimSpace(string(window))
}

func lastSentenceBoundary(window []rune, floor int) int {
	for i := len(window) - 1; i >= floor; i-- {
		switch window[i] {
		case '.', '!', '?', '。', '！', '？':
			return i
		}
	}
	return -1
}
