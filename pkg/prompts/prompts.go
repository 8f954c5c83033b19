package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/twinoai/twino/pkg/twin"
)

// ClosingLine is the sentence the interviewer speaks right before the
// profile block. It contains the default completion phrases.
const ClosingLine = "Perfetto! Abbiamo finito, sto creando il tuo Digital Twin..."

var (
	//go:embed interviewer.gotmpl
	interviewerTplContent string

	//go:embed twin.gotmpl
	twinTplContent string

	funcs = template.FuncMap{
		"inc":  func(i int) int { return i + 1 },
		"trim": strings.TrimSpace,
	}

	interviewerTpl = template.Must(template.New("interviewer").Funcs(funcs).Parse(interviewerTplContent))
	twinTpl        = template.Must(template.New("twin").Funcs(funcs).Parse(twinTplContent))
)

// Document is user supplied reference text such as a CV.
type Document struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
}

// JoinDocuments renders documents as one reference text, each under a
// "=== name ===" header. Blank documents are skipped.
func JoinDocuments(docs []Document) string {
	var parts []string
	for _, d := range docs {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", d.Name, text))
	}
	return strings.Join(parts, "\n\n")
}

// InterviewerOptions personalizes the interviewer prompt.
type InterviewerOptions struct {
	// Name is used to greet the user.
	Name      string
	Documents []Document
}

// Interviewer renders the realtime session instructions for a question set.
func Interviewer(qs QuestionSet, opts InterviewerOptions) (string, error) {
	var docs []Document
	for _, d := range opts.Documents {
		if strings.TrimSpace(d.Text) != "" {
			docs = append(docs, d)
		}
	}
	data := struct {
		Name              string
		Documents         []Document
		Questions         []string
		FollowUpQuestions int
		MaxQuestions      int
		ClosingLine       string
	}{
		Name:              strings.TrimSpace(opts.Name),
		Documents:         docs,
		Questions:         qs.Questions,
		FollowUpQuestions: qs.FollowUpQuestions,
		MaxQuestions:      qs.MaxQuestions(),
		ClosingLine:       ClosingLine,
	}
	var sb strings.Builder
	if err := interviewerTpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("prompts: render interviewer: %w", err)
	}
	return sb.String(), nil
}

// Twin renders the system prompt that makes a model answer as the twin.
// documents is optional free text appended as reference material; when
// empty the twin's own documents are used.
func Twin(t *twin.Twin, documents string) (string, error) {
	if documents == "" {
		documents = t.Documents
	}
	data := struct {
		DisplayName string
		Profile     twin.Profile
		Transcript  string
		Documents   string
	}{
		DisplayName: t.DisplayName,
		Profile:     t.Profile.Normalize(),
		Transcript:  t.Transcript,
		Documents:   documents,
	}
	var sb strings.Builder
	if err := twinTpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("prompts: render twin: %w", err)
	}
	return sb.String(), nil
}
