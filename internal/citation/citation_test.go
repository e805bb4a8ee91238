package citation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/model"
	"github.com/xxxsen/docask/internal/prompt"
)

func buildContext(t *testing.T, passages ...model.RetrievedPassage) *prompt.Context {
	t.Helper()
	a := prompt.NewAssembler(5, 1200)
	return a.Assemble("q", passages)
}

func TestExtract_SimpleMarker(t *testing.T) {
	got := Extract("Vacation is 20 days [handbook.pdf, Time Off] per year.")
	require.Len(t, got, 1)
	require.Equal(t, "handbook.pdf", got[0].Document)
	require.Equal(t, "Time Off", got[0].Section)
	require.Equal(t, 0, got[0].Page)
}

func TestExtract_MarkerWithPage(t *testing.T) {
	for _, text := range []string{
		"claim [handbook.pdf, Time Off, page 12]",
		"claim [handbook.pdf, Time Off, p. 12]",
		"claim [handbook.pdf, Time Off, 12]",
	} {
		got := Extract(text)
		require.Len(t, got, 1, text)
		require.Equal(t, 12, got[0].Page, text)
	}
}

func TestExtract_MultipleInOrder(t *testing.T) {
	got := Extract("a [x.pdf, one] b [y.pdf, two] c")
	require.Len(t, got, 2)
	require.Equal(t, "x.pdf", got[0].Document)
	require.Equal(t, "y.pdf", got[1].Document)
}

func TestExtract_NoMarkers(t *testing.T) {
	require.Nil(t, Extract("plain text without citations"))
	require.Nil(t, Extract("stray [brackets] only"))
}

func TestValidate_KeepsKnownMarkers(t *testing.T) {
	pc := buildContext(t, model.RetrievedPassage{
		Text:           "vacation text",
		SourceDocument: "handbook.pdf",
		SourceSection:  "Time Off",
		Similarity:     0.92,
	})
	valid, dropped := Validate(Extract("claim [handbook.pdf, Time Off]"), pc)
	require.Len(t, valid, 1)
	require.Empty(t, dropped)
	require.Equal(t, model.Citation{Document: "handbook.pdf", Section: "Time Off"}, valid[0])
}

func TestValidate_DropsHallucinatedMarker(t *testing.T) {
	pc := buildContext(t, model.RetrievedPassage{
		Text:           "vacation text",
		SourceDocument: "handbook.pdf",
		SourceSection:  "Time Off",
	})
	valid, dropped := Validate(Extract("claim [made-up.pdf, Nowhere]"), pc)
	require.Empty(t, valid)
	require.Len(t, dropped, 1)
	require.Equal(t, "made-up.pdf", dropped[0].Document)
}

func TestValidate_DeduplicatesRepeatedMarkers(t *testing.T) {
	pc := buildContext(t, model.RetrievedPassage{
		Text:           "x",
		SourceDocument: "handbook.pdf",
		SourceSection:  "Time Off",
	})
	valid, dropped := Validate(Extract("a [handbook.pdf, Time Off] b [handbook.pdf, Time Off]"), pc)
	require.Len(t, valid, 1)
	require.Empty(t, dropped)
}

func TestValidate_CaseInsensitiveMatch(t *testing.T) {
	pc := buildContext(t, model.RetrievedPassage{
		Text:           "x",
		SourceDocument: "Handbook.PDF",
		SourceSection:  "Time Off",
	})
	valid, _ := Validate(Extract("claim [handbook.pdf, time off]"), pc)
	require.Len(t, valid, 1)
	// citation carries the passage's own casing, not the model's
	require.Equal(t, "Handbook.PDF", valid[0].Document)
}

func TestCitedPassages_ResolvesBackToContext(t *testing.T) {
	p1 := model.RetrievedPassage{Text: "x", SourceDocument: "a.pdf", SourceSection: "one", Similarity: 0.9}
	p2 := model.RetrievedPassage{Text: "y", SourceDocument: "b.pdf", SourceSection: "two", Similarity: 0.7}
	pc := buildContext(t, p1, p2)
	cited := CitedPassages([]model.Citation{{Document: "b.pdf", Section: "two"}}, pc)
	require.Len(t, cited, 1)
	require.Equal(t, 0.7, cited[0].Similarity)
}
