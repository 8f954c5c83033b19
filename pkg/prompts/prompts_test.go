package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twinoai/twino/pkg/interview"
	"github.com/twinoai/twino/pkg/twin"
)

func TestInterviewerDefault(t *testing.T) {
	text, err := Interviewer(DefaultQuestionSet(), InterviewerOptions{})
	if err != nil {
		t.Fatalf("Interviewer: %v", err)
	}
	for i, q := range DefaultQuestions {
		if !strings.Contains(text, q) {
			t.Errorf("question %d missing", i+1)
		}
	}
	for _, want := range []string{
		"MAX 16 DOMANDE TOTALI",
		"14 Domande Fisse",
		"Max 2 Domande di Approfondimento",
		"14. \"Cosa ti viene naturale",
		"Ciao! Sono TwinoAI",
		"PROFILO JUNIOR/STUDENTE",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestInterviewerPersonalized(t *testing.T) {
	text, err := Interviewer(DefaultQuestionSet(), InterviewerOptions{
		Name: " Anna ",
		Documents: []Document{
			{Name: "cv.pdf", Text: "Product designer, 8 anni."},
			{Name: "empty.pdf", Text: "  "},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Ciao Anna! Sono TwinoAI") {
		t.Error("greeting not personalized")
	}
	if !strings.Contains(text, "### Documento 1: cv.pdf\nProduct designer, 8 anni.") {
		t.Error("document section missing")
	}
	if strings.Contains(text, "empty.pdf") {
		t.Error("blank document rendered")
	}
	if strings.Contains(text, "PROFILO JUNIOR/STUDENTE") {
		t.Error("junior note rendered with documents")
	}
}

// The closing line and the example block must be recognized by the session
// detector, otherwise a well-behaved model would never end the session.
func TestInterviewerMatchesDetector(t *testing.T) {
	text, err := Interviewer(DefaultQuestionSet(), InterviewerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := interview.NewDetector(interview.DefaultCompletionPhrases)
	if !d.MatchPhrase(ClosingLine) {
		t.Error("closing line does not match a completion phrase")
	}
	p, ok := interview.FindPayload(text)
	if !ok {
		t.Fatal("example block is not a valid profile payload")
	}
	if p.IdentitySummary == "" || len(p.DoNotSay) != 1 {
		t.Errorf("example profile = %+v", p)
	}
}

func TestTwin(t *testing.T) {
	tw, err := twin.New("anna-rossi", "", twin.Profile{
		IdentitySummary: "Product designer a Torino.",
		StyleTone:       "Diretto.",
		DoNotSay:        twin.StringList{"Lavoro in Google"},
	}, "UTENTE: Ciao\n\nAI: Ciao!")
	if err != nil {
		t.Fatal(err)
	}
	text, err := Twin(tw, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Sei il Digital Twin di Anna Rossi.",
		"**Chi sono:** Product designer a Torino.",
		"**Come lavoro:** -",
		"- Lavoro in Google\n",
		"## TRASCRIZIONE ORIGINALE\nUTENTE: Ciao\n\nAI: Ciao!",
		"1. Parla in prima persona come Anna Rossi",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("twin prompt missing %q", want)
		}
	}
	if strings.Contains(text, "DOCUMENTI DI RIFERIMENTO") {
		t.Error("documents section rendered without documents")
	}

	text, err = Twin(tw, "CV: 8 anni di esperienza\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "CV: 8 anni di esperienza\n\nIMPORTANTE") {
		t.Error("documents section missing")
	}
}

func TestParseQuestionSet(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"valid", "questions:\n  - Uno?\n  - Due?\nfollow_up_questions: 1\n", 2, false},
		{"blank dropped", "questions:\n  - Uno?\n  - \"  \"\n", 1, false},
		{"empty", "follow_up_questions: 1\n", 0, true},
		{"negative follow-up", "questions: [Uno?]\nfollow_up_questions: -1\n", 0, true},
		{"malformed", "questions: [", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := ParseQuestionSet([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(qs.Questions) != tt.want {
				t.Errorf("questions = %d, want %d", len(qs.Questions), tt.want)
			}
		})
	}
}

func TestLoadQuestionSetApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	data := "questions:\n  - Uno?\n  - Due?\n  - Tre?\nfollow_up_questions: 1\ncompletion_phrases:\n  - ecco fatto\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	qs, err := LoadQuestionSet(path)
	if err != nil {
		t.Fatalf("LoadQuestionSet: %v", err)
	}
	cfg := qs.Apply(interview.DefaultConfig())
	if cfg.FixedQuestions != 3 || cfg.FollowUpQuestions != 1 || cfg.MaxQuestions != 4 {
		t.Errorf("budget = %d/%d/%d", cfg.FixedQuestions, cfg.FollowUpQuestions, cfg.MaxQuestions)
	}
	if len(cfg.CompletionPhrases) != 1 || cfg.CompletionPhrases[0] != "ecco fatto" {
		t.Errorf("phrases = %v", cfg.CompletionPhrases)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if _, err := LoadQuestionSet(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestJoinDocuments(t *testing.T) {
	got := JoinDocuments([]Document{
		{Name: "cv.pdf", Text: " Esperienza \n"},
		{Name: "vuoto.txt", Text: "  "},
		{Name: "note.md", Text: "Note"},
	})
	want := "=== cv.pdf ===\nEsperienza\n\n=== note.md ===\nNote"
	if got != want {
		t.Errorf("JoinDocuments = %q, want %q", got, want)
	}
	if got := JoinDocuments(nil); got != "" {
		t.Errorf("JoinDocuments(nil) = %q", got)
	}
}
