package prompts

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/twinoai/twino/pkg/interview"
)

// DefaultQuestions are the scripted interview questions, grouped by topic:
// background, role, projects, method, values, passions, limits, failures and
// uniqueness.
var DefaultQuestions = []string{
	"Da dove vieni e qual è stato il tuo percorso fino ad oggi?",
	"C'è stato un momento che ti ha fatto cambiare strada nel lavoro?",

	"Cosa fai davvero nel tuo lavoro, senza usare il job title?",
	"In cosa senti di fare davvero la differenza?",
	"Quali strumenti software usi ogni giorno?",

	"Qual è il progetto che ti rappresenta di più? Perché?",

	"Quando hai un problema poco chiaro, cosa fai per prima cosa?",
	"Come decidi quando ti mancano informazioni? Fammi un esempio.",

	"Su quale valore professionale non scendi mai a compromessi?",

	"In quale attività lavorativa il tempo vola senza accorgertene?",

	"Qual è una situazione che ti toglie energie quando lavori?",
	"Qual è un tuo limite che cerchi di gestire attivamente?",

	"Raccontami un errore significativo che ricordi ancora. Perché è successo?",

	"Cosa ti viene naturale e che gli altri ti riconoscono sempre?",
}

// QuestionSet is the script of an interview.
type QuestionSet struct {
	Questions         []string `json:"questions" yaml:"questions"`
	FollowUpQuestions int      `json:"follow_up_questions" yaml:"follow_up_questions"`
	// CompletionPhrases overrides the wrap-up phrases when not nil.
	CompletionPhrases []string `json:"completion_phrases,omitempty" yaml:"completion_phrases,omitempty"`
}

// DefaultQuestionSet returns the built-in Italian script.
func DefaultQuestionSet() QuestionSet {
	return QuestionSet{
		Questions:         slices.Clone(DefaultQuestions),
		FollowUpQuestions: interview.DefaultFollowUpQuestions,
	}
}

// LoadQuestionSet reads a question set from a YAML file.
func LoadQuestionSet(path string) (QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("prompts: read question set: %w", err)
	}
	qs, err := ParseQuestionSet(data)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("prompts: %s: %w", path, err)
	}
	return qs, nil
}

// ParseQuestionSet parses YAML question set data. Blank questions are
// dropped; a set without questions is an error.
func ParseQuestionSet(data []byte) (QuestionSet, error) {
	var qs QuestionSet
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return QuestionSet{}, fmt.Errorf("parse question set: %w", err)
	}
	qs.Questions = slices.DeleteFunc(qs.Questions, func(q string) bool {
		return strings.TrimSpace(q) == ""
	})
	if len(qs.Questions) == 0 {
		return QuestionSet{}, errors.New("question set has no questions")
	}
	if qs.FollowUpQuestions < 0 {
		return QuestionSet{}, fmt.Errorf("follow_up_questions must not be negative, got %d", qs.FollowUpQuestions)
	}
	return qs, nil
}

// MaxQuestions is the total question budget.
func (qs QuestionSet) MaxQuestions() int {
	return len(qs.Questions) + qs.FollowUpQuestions
}

// Apply sets the question budget and phrases of cfg from the set.
func (qs QuestionSet) Apply(cfg interview.Config) interview.Config {
	cfg.FixedQuestions = len(qs.Questions)
	cfg.FollowUpQuestions = qs.FollowUpQuestions
	cfg.MaxQuestions = qs.MaxQuestions()
	if qs.CompletionPhrases != nil {
		cfg.CompletionPhrases = qs.CompletionPhrases
	}
	return cfg
}
