package interview

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role is the speaker of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one finalized turn.
type TranscriptEntry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Phase is the interview stage derived from the assistant turn count.
type Phase int

const (
	PhaseBase Phase = iota
	PhaseDeepening
	PhaseOverflow
)

var phaseNames = [...]string{"base", "deepening", "overflow"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalJSON implements json.Marshaler.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	i := slices.Index(phaseNames[:], s)
	if i < 0 {
		return fmt.Errorf("interview: unknown phase %q", s)
	}
	*p = Phase(i)
	return nil
}

// Budget is the question budget of one interview.
type Budget struct {
	Fixed    int `json:"fixed"`
	FollowUp int `json:"follow_up"`
	Max      int `json:"max"`
}

// PhaseOf computes the phase after the given number of assistant turns.
func (b Budget) PhaseOf(assistantTurns int) Phase {
	switch {
	case assistantTurns <= b.Fixed:
		return PhaseBase
	case assistantTurns <= b.Max:
		return PhaseDeepening
	default:
		return PhaseOverflow
	}
}

// Snapshot is an immutable view of the transcript after an update.
type Snapshot struct {
	Entries        []TranscriptEntry `json:"entries"`
	AssistantTurns int               `json:"assistant_turns"`
	Phase          Phase             `json:"phase"`
	// Question is the 1-based question being asked, capped at Budget.Max.
	Question int    `json:"question"`
	Budget   Budget `json:"budget"`
}

// Tracker accumulates the ordered transcript of one session.
// It is not safe for concurrent use.
type Tracker struct {
	budget         Budget
	entries        []TranscriptEntry
	assistantTurns int
}

// NewTracker returns an empty Tracker.
func NewTracker(b Budget) *Tracker {
	return &Tracker{budget: b}
}

// Append records a finalized turn and returns the full snapshot. Blank text
// is ignored and reported with ok == false: the transcript, and the
// TranscriptUpdated signals built from it, count non-blank turns only.
func (t *Tracker) Append(role Role, text string, at time.Time) (s Snapshot, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return t.Snapshot(), false
	}
	t.entries = append(t.entries, TranscriptEntry{Role: role, Text: text, Timestamp: at})
	if role == RoleAssistant {
		t.assistantTurns++
	}
	return t.Snapshot(), true
}

// Snapshot returns the current state. The entries slice is a copy.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Entries:        slices.Clone(t.entries),
		AssistantTurns: t.assistantTurns,
		Phase:          t.budget.PhaseOf(t.assistantTurns),
		Question:       min(t.assistantTurns, t.budget.Max),
		Budget:         t.budget,
	}
}

// FormatTranscript renders entries as "UTENTE: ..." and "AI: ..." blocks
// separated by blank lines, the format stored with a twin.
func FormatTranscript(entries []TranscriptEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		label := "AI"
		if e.Role == RoleUser {
			label = "UTENTE"
		}
		parts = append(parts, label+": "+e.Text)
	}
	return strings.Join(parts, "\n\n")
}
