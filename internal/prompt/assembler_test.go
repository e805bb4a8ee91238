package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/model"
)

func makePassage(doc, section, text string, sim float64) model.RetrievedPassage {
	return model.RetrievedPassage{
		ID:             doc + "#" + section,
		Text:           text,
		Similarity:     sim,
		SourceDocument: doc,
		SourceSection:  section,
	}
}

func TestAssemble_BoundsPassageCount(t *testing.T) {
	a := NewAssembler(2, 100)
	passages := []model.RetrievedPassage{
		makePassage("a.pdf", "one", "first", 0.9),
		makePassage("b.pdf", "two", "second", 0.8),
		makePassage("c.pdf", "three", "third", 0.7),
	}
	pc := a.Assemble("question?", passages)
	require.Len(t, pc.Passages, 2)
	require.Equal(t, "a.pdf", pc.Passages[0].Passage.SourceDocument)
	require.Equal(t, "b.pdf", pc.Passages[1].Passage.SourceDocument)
}

func TestAssemble_MarkerStableForSharedDocSection(t *testing.T) {
	a := NewAssembler(5, 100)
	pc := a.Assemble("q", []model.RetrievedPassage{
		makePassage("handbook.pdf", "Time Off", "chunk one", 0.9),
		makePassage("handbook.pdf", "Time Off", "chunk two", 0.8),
	})
	require.Equal(t, pc.Passages[0].Marker, pc.Passages[1].Marker)
	require.Equal(t, "[handbook.pdf, Time Off]", pc.Passages[0].Marker)
}

func TestMarkerFor_WithPage(t *testing.T) {
	p := makePassage("handbook.pdf", "Time Off", "text", 0.9)
	p.Page = 12
	require.Equal(t, "[handbook.pdf, Time Off, page 12]", MarkerFor(p))
}

func TestRender_ContainsMarkersAndQuestion(t *testing.T) {
	a := NewAssembler(5, 1200)
	pc := a.Assemble("What is the vacation policy?", []model.RetrievedPassage{
		makePassage("handbook.pdf", "Time Off", "Employees get 20 days.", 0.92),
	})
	rendered := a.Render(pc)
	require.Contains(t, rendered, "[handbook.pdf, Time Off]")
	require.Contains(t, rendered, "Employees get 20 days.")
	require.Contains(t, rendered, "Question: What is the vacation policy?")
	require.Contains(t, rendered, "I don't know")
}

func TestTruncatePassage_PrefersSentenceBoundary(t *testing.T) {
	// sentence end falls inside the last 20% of a 100-rune window
	text := strings.Repeat("a", 85) + ". " + strings.Repeat("b", 50)
	got := truncatePassage(text, 100)
	require.Equal(t, strings.Repeat("a", 85)+".", got)
}

func TestTruncatePassage_HardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("x", 300)
	got := truncatePassage(text, 100)
	require.Equal(t, 100, len([]rune(got)))
}

func TestTruncatePassage_ShortTextUnchanged(t *testing.T) {
	require.Equal(t, "short.", truncatePassage("short.", 100))
}

func TestTruncatePassage_IgnoresBoundaryBeforeWindowTail(t *testing.T) {
	// boundary at 50 is below the 80% floor, so the cut is hard
	text := strings.Repeat("a", 50) + ". " + strings.Repeat("b", 100)
	got := truncatePassage(text, 100)
	require.Equal(t, 100, len([]rune(got)))
}

func TestContextMarkers(t *testing.T) {
	a := NewAssembler(5, 100)
	pc := a.Assemble("q", []model.RetrievedPassage{
		makePassage("a.pdf", "intro", "x", 0.9),
		makePassage("b.pdf", "body", "y", 0.8),
	})
	markers := pc.Markers()
	require.Len(t, markers, 2)
	_, ok := markers[MarkerKey("a.pdf", "intro")]
	require.True(t, ok)
	_, ok = markers[MarkerKey("A.PDF", " Intro ")]
	require.True(t, ok)
}

func TestContextLookup(t *testing.T) {
	a := NewAssembler(5, 100)
	pc := a.Assemble("q", []model.RetrievedPassage{
		makePassage("a.pdf", "intro", "x", 0.9),
	})
	cp, ok := pc.Lookup("a.pdf", "intro")
	require.True(t, ok)
	require.Equal(t, "x", cp.Passage.Text)
	_, ok = pc.Lookup("missing.pdf", "intro")
	require.False(t, ok)
}
