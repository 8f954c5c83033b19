package cli

import (
	"strings"
	"testing"
)

func TestRenderTurn(t *testing.T) {
	s := NewStyles(DefaultTheme)
	got := s.RenderTurn(Turn{User: true, Text: "  Da Torino.  "}, 80)
	if !strings.Contains(got, "TU") || !strings.Contains(got, "Da Torino.") {
		t.Errorf("RenderTurn = %q", got)
	}
	got = s.RenderTurn(Turn{Text: "Da dove vieni?"}, 80)
	if !strings.Contains(got, "AI") {
		t.Errorf("RenderTurn = %q", got)
	}
}

func TestRenderProgress(t *testing.T) {
	s := NewStyles(DefaultTheme)
	got := s.RenderProgress(Progress{Status: "connessa", Question: 3, Max: 16, Phase: "base"})
	for _, want := range []string{"connessa", "domanda 3/16", "base"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderProgress missing %q in %q", want, got)
		}
	}
	if got := s.RenderProgress(Progress{Status: "in attesa"}); strings.Contains(got, "domanda") {
		t.Errorf("RenderProgress without budget = %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	s := NewStyles(DefaultTheme)
	got := s.RenderSummary("Anna Rossi", []Field{{"Chi sono", "Designer."}}, 60)
	for _, want := range []string{"Anna Rossi", "Chi sono", "Designer."} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderSummary missing %q", want)
		}
	}
}
