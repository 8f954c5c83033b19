package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/twinoai/twino/pkg/twin"
)

// CompletionState tracks how the interview is ending.
type CompletionState int

const (
	CompletionPending CompletionState = iota
	CompletionPayloadDetected
	CompletionPhraseAwaitingPayload
	CompletionTimedOut
)

var completionNames = [...]string{"pending", "payload-detected", "phrase-detected-awaiting-payload", "timed-out"}

func (s CompletionState) String() string {
	if int(s) < len(completionNames) {
		return completionNames[s]
	}
	return fmt.Sprintf("CompletionState(%d)", int(s))
}

// Terminal reports whether no further transition is allowed.
func (s CompletionState) Terminal() bool {
	return s == CompletionPayloadDetected || s == CompletionTimedOut
}

var (
	fencePattern   = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	rawJSONPattern = regexp.MustCompile(`(?s)\{.*?"twin_profile".*\}`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// envelope is the block the interviewer emits when it is done.
type envelope struct {
	TwinProfile   json.RawMessage `json:"twin_profile"`
	SlugConfirmed any             `json:"slug_confirmed"`
}

const (
	fenceOpen  = "```json"
	fenceClose = "```"
)

// FindPayload returns the profile of the first fenced ```json block in text
// whose object has a "twin_profile" object. Blocks that do not parse are
// skipped: a block truncated mid-stream is simply not there yet. Every
// opening fence is tried on its own, so an opener that never closed does
// not hide a complete block emitted after it.
func FindPayload(text string) (twin.Profile, bool) {
	for _, body := range fencedBlocks(text) {
		if p, ok := parseEnvelope(body); ok {
			return p, true
		}
	}
	return twin.Profile{}, false
}

// fencedBlocks returns the body of every ```json opener that is closed by
// the next fence. An opener whose next fence is another opener was cut off
// and yields nothing.
func fencedBlocks(text string) []string {
	var blocks []string
	for i := 0; ; {
		j := strings.Index(text[i:], fenceOpen)
		if j < 0 {
			return blocks
		}
		start := i + j + len(fenceOpen)
		i = start
		k := strings.Index(text[start:], fenceClose)
		if k < 0 {
			return blocks
		}
		if strings.HasPrefix(text[start+k:], fenceOpen) {
			continue
		}
		blocks = append(blocks, strings.TrimSpace(text[start:start+k]))
	}
}

func parseEnvelope(body string) (twin.Profile, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return twin.Profile{}, false
	}
	raw := bytes.TrimSpace(env.TwinProfile)
	if len(raw) == 0 || raw[0] != '{' {
		return twin.Profile{}, false
	}
	var p twin.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return twin.Profile{}, false
	}
	return p, true
}

// DisplayText removes profile blocks from assistant text so the transcript
// shown to people reads as speech.
func DisplayText(text string) string {
	out := fencePattern.ReplaceAllString(text, "")
	out = rawJSONPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(out, " "))
}

// Detector accumulates assistant text and decides whether the interview
// produced its profile. The completion state moves forward only; once
// terminal it never changes. It is not safe for concurrent use.
type Detector struct {
	phrases []string

	finals    []string
	partialID string
	partial   strings.Builder

	state   CompletionState
	profile twin.Profile
}

// NewDetector returns a Detector matching the given completion phrases.
func NewDetector(phrases []string) *Detector {
	lower := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lower = append(lower, p)
		}
	}
	return &Detector{phrases: lower}
}

// State returns the completion state.
func (d *Detector) State() CompletionState {
	return d.state
}

// Profile returns the detected profile, if any.
func (d *Detector) Profile() (twin.Profile, bool) {
	return d.profile, d.state == CompletionPayloadDetected
}

// AppendDelta adds a streamed piece of the response identified by
// responseID and scans the accumulated text.
func (d *Detector) AppendDelta(responseID, delta string) (twin.Profile, bool) {
	if responseID != d.partialID {
		d.partial.Reset()
		d.partialID = responseID
	}
	d.partial.WriteString(delta)
	return d.Scan()
}

// AppendFinal adds the finalized text of a response, replacing its streamed
// pieces, and scans the accumulated text.
func (d *Detector) AppendFinal(responseID, text string) (twin.Profile, bool) {
	if responseID == d.partialID || responseID == "" {
		d.partial.Reset()
		d.partialID = ""
	}
	d.finals = append(d.finals, text)
	return d.Scan()
}

// Text returns all assistant text seen so far.
func (d *Detector) Text() string {
	text := strings.Join(d.finals, "\n")
	if d.partial.Len() > 0 {
		text += "\n" + d.partial.String()
	}
	return text
}

// Scan looks for the payload. On the first success it latches
// CompletionPayloadDetected and returns the profile; it returns false in
// every later call and whenever the state is already terminal.
func (d *Detector) Scan() (twin.Profile, bool) {
	if d.state.Terminal() {
		return twin.Profile{}, false
	}
	p, ok := FindPayload(d.Text())
	if !ok {
		return twin.Profile{}, false
	}
	d.state = CompletionPayloadDetected
	d.profile = p
	return p, true
}

// MatchPhrase reports whether text contains a completion phrase. A match
// while pending moves the state to CompletionPhraseAwaitingPayload and
// returns true; later matches return false.
func (d *Detector) MatchPhrase(text string) bool {
	if d.state != CompletionPending {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			d.state = CompletionPhraseAwaitingPayload
			return true
		}
	}
	return false
}

// Expire ends the grace period. It rescans once; when the payload is still
// missing the state becomes CompletionTimedOut. It returns the final state,
// or the current one when no grace period was running.
func (d *Detector) Expire() CompletionState {
	if d.state != CompletionPhraseAwaitingPayload {
		return d.state
	}
	if _, ok := d.Scan(); ok {
		return d.state
	}
	d.state = CompletionTimedOut
	return d.state
}
