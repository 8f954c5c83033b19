package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Warn    lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is green for the interviewer, blue for the user.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#58a6ff"),
	Warn:    lipgloss.Color("#f0883e"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title     lipgloss.Style
	Assistant lipgloss.Style
	User      lipgloss.Style
	Warn      lipgloss.Style
	Help      lipgloss.Style
	Box       lipgloss.Style
	Label     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		User:      lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Warn:      lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Help:      lipgloss.NewStyle().Foreground(t.Dim),
		Box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
	}
}

// Turn is one rendered transcript line.
type Turn struct {
	User bool
	Text string
}

// RenderTurn renders a transcript turn wrapped to width.
func (s Styles) RenderTurn(t Turn, width int) string {
	label := s.Assistant.Render("AI")
	if t.User {
		label = s.User.Render("TU")
	}
	body := strings.TrimSpace(t.Text)
	if width > 8 {
		body = lipgloss.NewStyle().Width(width - 4).Render(body)
	}
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "    " + lines[i]
	}
	return label + "  " + strings.Join(lines, "\n")
}

// Progress is the status line of a running interview.
type Progress struct {
	Status   string
	Question int
	Max      int
	Phase    string
}

// RenderProgress renders "[status] domanda 3/16 · base".
func (s Styles) RenderProgress(p Progress) string {
	line := s.Help.Render("[" + p.Status + "]")
	if p.Max > 0 {
		line += " " + s.Title.Render(fmt.Sprintf("domanda %d/%d", p.Question, p.Max))
	}
	if p.Phase != "" {
		line += s.Help.Render(" · " + p.Phase)
	}
	return line
}

// RenderWarning renders a silence countdown.
func (s Styles) RenderWarning(text string) string {
	return s.Warn.Render("⏳ " + text)
}

// Field is a labeled value inside a summary box.
type Field struct {
	Label string
	Value string
}

// RenderSummary renders fields in a bordered box under a title.
func (s Styles) RenderSummary(title string, fields []Field, width int) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	inner := max(width-4, 20)
	for _, f := range fields {
		b.WriteString("\n\n")
		b.WriteString(s.Label.Render(f.Label))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(inner).Render(f.Value))
	}
	return s.Box.Render(b.String())
}
