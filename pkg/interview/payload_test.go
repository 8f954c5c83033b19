package interview

import (
	"strings"
	"testing"
)

const profileBlock = "```json\n" + `{
  "twin_profile": {
    "identity_summary": "Sono Anna, product designer a Torino.",
    "thinking_patterns": "Parto dai dati, poi verifico con le persone.",
    "methodology": "Interviste, prototipo, test.",
    "constraints": "Non lavoro senza obiettivi chiari.",
    "proof_metrics": "Conversioni +30% in un anno.",
    "style_tone": "Diretto e ironico.",
    "do_not_say": ["Garantisco risultati"]
  },
  "slug_confirmed": "pending"
}` + "\n```"

func TestFindPayload(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"complete block", "Ecco il profilo.\n" + profileBlock, true},
		{"no fence", `{"twin_profile": {"identity_summary": "x"}}`, false},
		{"truncated", profileBlock[:len(profileBlock)/2], false},
		{"truncated with closing fence", profileBlock[:120] + "\n```", false},
		{"profile not object", "```json\n{\"twin_profile\": \"Anna\"}\n```", false},
		{"profile null", "```json\n{\"twin_profile\": null}\n```", false},
		{"missing key", "```json\n{\"profile\": {}}\n```", false},
		{"sub fields incomplete", "```json\n{\"twin_profile\": {\"style_tone\": \"calmo\"}}\n```", true},
		{"second block valid", "```json\n{broken\n```\nRiprovo:\n" + profileBlock, true},
		{"unclosed block before complete one", "Ecco:\n" + profileBlock[:80] + "\n" + profileBlock, true},
		{"two unclosed blocks before complete one", profileBlock[:40] + profileBlock[:90] + profileBlock, true},
		{"do_not_say object", "```json\n{\"twin_profile\": {\"identity_summary\": \"x\", \"do_not_say\": {\"a\": \"b\"}}}\n```", true},
		{"do_not_say number", "```json\n{\"twin_profile\": {\"do_not_say\": 42}}\n```", true},
		{"narrative field object", "```json\n{\"twin_profile\": {\"methodology\": {\"step\": 1}}}\n```", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FindPayload(tt.text)
			if ok != tt.want {
				t.Errorf("FindPayload ok = %v, want %v", ok, tt.want)
			}
		})
	}

	p, _ := FindPayload(profileBlock)
	if p.IdentitySummary != "Sono Anna, product designer a Torino." {
		t.Errorf("IdentitySummary = %q", p.IdentitySummary)
	}
	if len(p.DoNotSay) != 1 {
		t.Errorf("DoNotSay = %v", p.DoNotSay)
	}
}

func TestDisplayText(t *testing.T) {
	got := DisplayText("Perfetto!\n\n" + profileBlock + "\n  Grazie.")
	if got != "Perfetto! Grazie." {
		t.Errorf("DisplayText = %q", got)
	}
	raw := `Ecco: {"twin_profile": {"a": "b"}, "slug_confirmed": "pending"} fine`
	if got := DisplayText(raw); got != "Ecco: fine" {
		t.Errorf("DisplayText(raw json) = %q", got)
	}
}

func TestDetectorPartialFence(t *testing.T) {
	d := NewDetector(DefaultCompletionPhrases)
	half := len(profileBlock) / 2

	if _, ok := d.AppendDelta("resp_1", profileBlock[:half]); ok {
		t.Fatal("payload detected from first half")
	}
	if d.State() != CompletionPending {
		t.Fatalf("State = %v", d.State())
	}
	p, ok := d.AppendDelta("resp_1", profileBlock[half:])
	if !ok {
		t.Fatal("payload not detected after second half")
	}
	if p.StyleTone != "Diretto e ironico." {
		t.Errorf("StyleTone = %q", p.StyleTone)
	}
	if d.State() != CompletionPayloadDetected {
		t.Errorf("State = %v", d.State())
	}
	if _, ok := d.AppendFinal("resp_1", profileBlock); ok {
		t.Error("payload reported twice")
	}
}

func TestDetectorCutOffBlockThenComplete(t *testing.T) {
	d := NewDetector(DefaultCompletionPhrases)
	cut := "Perfetto! Abbiamo finito.\n" + profileBlock[:len(profileBlock)/3]

	if _, ok := d.AppendFinal("resp_1", cut); ok {
		t.Fatal("payload detected from a cut-off block")
	}
	p, ok := d.AppendFinal("resp_2", profileBlock)
	if !ok {
		t.Fatalf("complete block after a cut-off one not detected, state %v", d.State())
	}
	if p.Methodology != "Interviste, prototipo, test." {
		t.Errorf("Methodology = %q", p.Methodology)
	}
	if d.State() != CompletionPayloadDetected {
		t.Errorf("State = %v", d.State())
	}
}

func TestDetectorCutOffDeltasThenComplete(t *testing.T) {
	d := NewDetector(nil)
	d.AppendDelta("resp_1", profileBlock[:60])
	d.AppendFinal("resp_1", profileBlock[:60])
	if _, ok := d.AppendDelta("resp_2", profileBlock[:100]); ok {
		t.Fatal("payload detected too early")
	}
	if _, ok := d.AppendDelta("resp_2", profileBlock[100:]); !ok {
		t.Fatal("payload not detected once the second block completed")
	}
}

func TestDetectorFinalReplacesDeltas(t *testing.T) {
	d := NewDetector(nil)
	d.AppendDelta("resp_1", "Ciao, ")
	d.AppendDelta("resp_1", "come stai?")
	d.AppendFinal("resp_1", "Ciao, come stai?")
	d.AppendDelta("resp_2", "Da dove")
	if got, want := d.Text(), "Ciao, come stai?\nDa dove"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	d.AppendDelta("resp_3", "Nuova")
	if got := d.Text(); !strings.HasSuffix(got, "\nNuova") || strings.Contains(got, "Da dove") {
		t.Errorf("Text after new response = %q", got)
	}
}

func TestDetectorPhraseThenPayload(t *testing.T) {
	d := NewDetector(DefaultCompletionPhrases)
	if !d.MatchPhrase("Perfetto! Abbiamo finito, sto creando il tuo Digital Twin...") {
		t.Fatal("phrase not matched")
	}
	if d.State() != CompletionPhraseAwaitingPayload {
		t.Fatalf("State = %v", d.State())
	}
	if d.MatchPhrase("abbiamo finito") {
		t.Error("second phrase match should report false")
	}
	if _, ok := d.AppendFinal("r2", profileBlock); !ok {
		t.Fatal("payload during grace not detected")
	}
	if got := d.Expire(); got != CompletionPayloadDetected {
		t.Errorf("Expire = %v, want payload-detected", got)
	}
}

func TestDetectorPhraseTimesOut(t *testing.T) {
	d := NewDetector([]string{"  Abbiamo Finito "})
	d.AppendFinal("r1", "Bene, abbiamo finito!")
	if !d.MatchPhrase("Bene, abbiamo finito!") {
		t.Fatal("phrase not matched")
	}
	if got := d.Expire(); got != CompletionTimedOut {
		t.Fatalf("Expire = %v, want timed-out", got)
	}
	if _, ok := d.AppendFinal("r2", profileBlock); ok {
		t.Error("payload accepted after timed-out")
	}
	if d.State() != CompletionTimedOut {
		t.Errorf("State = %v", d.State())
	}
}

func TestDetectorPayloadBeforePhrase(t *testing.T) {
	d := NewDetector(DefaultCompletionPhrases)
	if _, ok := d.AppendFinal("r1", profileBlock); !ok {
		t.Fatal("payload not detected")
	}
	if d.MatchPhrase("abbiamo finito") {
		t.Error("phrase matched after payload")
	}
	if got := d.Expire(); got != CompletionPayloadDetected {
		t.Errorf("Expire = %v", got)
	}
}

func TestDetectorExpireWithoutPhrase(t *testing.T) {
	d := NewDetector(nil)
	if got := d.Expire(); got != CompletionPending {
		t.Errorf("Expire = %v, want pending", got)
	}
	if d.MatchPhrase("abbiamo finito") {
		t.Error("matched with no phrases configured")
	}
}
