package citation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xxxsen/docask/internal/model"
	"github.com/xxxsen/docask/internal/prompt"
)

// markerPattern is the closed marker grammar: [doc, section] or
// [doc, section, page]. The page field accepts "page 12", "p. 12" or "12".
var markerPattern = regexp.MustCompile(`\[([^\[\],]+),\s*([^\[\],]+?)\s*(?:,\s*(?:page\s+|p\.\s*)?(\d+)\s*)?\]`)

// Extracted is one raw marker match with its parsed fields. Parsing carries
// no trust decision; validation happens separately.
type Extracted struct {
	Raw      string
	Document string
	Section  string
	Page     int
}

// Extract parses all citation markers out of generated text, in order of
// appearance.
func Extract(text string) []Extracted {
	matches := markerPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Extracted, 0, len(matches))
	for _, m := range matches {
		e := Extracted{
			Raw:      m[0],
			Document: strings.TrimSpace(m[1]),
			Section:  strings.TrimSpace(m[2]),
		}
		if m[3] != "" {
			e.Page, _ = strconv.Atoi(m[3])
		}
		out = append(out, e)
	}
	return out
}

// Validate keeps only markers that reference a passage actually present in
// the request's prompt context, deduplicated in first-seen order. Markers
// that fail the check come back in dropped; the caller logs them and moves
// on.
func Validate(extracted []Extracted, pc *prompt.Context) (valid []model.Citation, dropped []Extracted) {
	seen := make(map[string]struct{}, len(extracted))
	for _, e := range extracted {
		cp, ok := pc.Lookup(e.Document, e.Section)
		if !ok {
			dropped = append(dropped, e)
			continue
		}
		key := prompt.MarkerKey(e.Document, e.Section)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, model.Citation{
			Document: cp.Passage.SourceDocument,
			Section:  cp.Passage.SourceSection,
			Page:     cp.Passage.Page,
		})
	}
	return valid, dropped
}

// CitedPassages resolves validated citations back to their context passages
// for confidence scoring.
func CitedPassages(citations []model.Citation, pc *prompt.Context) []model.RetrievedPassage {
	passages := make([]model.RetrievedPassage, 0, len(citations))
	for _, c := range citations {
		if cp, ok := pc.Lookup(c.Document, c.Section); ok {
			passages = append(passages, cp.Passage)
		}
	}
	return passages
}
